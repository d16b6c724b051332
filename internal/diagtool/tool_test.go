package diagtool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqldoctor/internal/sandbox"
	"github.com/leapstack-labs/sqldoctor/internal/testutil"
	"github.com/leapstack-labs/sqldoctor/pkg/adapter"
	"github.com/leapstack-labs/sqldoctor/pkg/dialect"
)

type fakeSandbox struct {
	session *sandbox.Session
	mapper  *sandbox.Mapper
	resets  int
}

func newFakeSandbox(t *testing.T) *fakeSandbox {
	t.Helper()

	s := sandbox.NewSession()
	require.NoError(t, s.Transition(sandbox.StateCreating))
	require.NoError(t, s.Transition(sandbox.StateImporting))
	require.NoError(t, s.Transition(sandbox.StateReady))

	m := sandbox.NewMapper()
	m.Add("orders", `"shop_sbx_deadbeef"."orders"`)
	m.Add("customers", `"shop_sbx_deadbeef"."customers"`)

	return &fakeSandbox{session: s, mapper: m}
}

func (f *fakeSandbox) Session() *sandbox.Session { return f.session }
func (f *fakeSandbox) Mapper() *sandbox.Mapper   { return f.mapper }
func (f *fakeSandbox) Namespace() string         { return "shop_sbx_deadbeef" }

func (f *fakeSandbox) Reset(_ context.Context) error {
	f.resets++
	return nil
}

type dbStub struct {
	adapter.BaseSQLAdapter
	d *dialect.Dialect
}

func (a *dbStub) Connect(_ context.Context, _ adapter.Config) error { return nil }
func (a *dbStub) Dialect() *dialect.Dialect                         { return a.d }

func (a *dbStub) TableExists(_ context.Context, _ string) (bool, error) { return true, nil }
func (a *dbStub) RowCount(_ context.Context, _ string) (int64, error)   { return 0, nil }
func (a *dbStub) TableMetadata(_ context.Context, _ string) (*adapter.Metadata, error) {
	return nil, errors.New("not implemented")
}

func newDBStub(t *testing.T) (*dbStub, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d, ok := dialect.Get("duckdb")
	require.True(t, ok)

	stub := &dbStub{d: d}
	stub.DB = db
	return stub, mock
}

func TestRunStatementRewritesAndQueries(t *testing.T) {
	sb := newFakeSandbox(t)
	db, mock := newDBStub(t)

	mock.ExpectQuery(`SELECT * FROM "shop_sbx_deadbeef"."orders" LIMIT 5`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total"}).
			AddRow(int64(1), 9.5).
			AddRow(int64(2), 12.0))

	tool := New(sb, db, 10, testutil.NewTestLogger(t))
	res, err := tool.RunStatement(context.Background(), "SELECT * FROM orders LIMIT 5")
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.Statements, 1)
	sr := res.Statements[0]
	assert.Equal(t, `SELECT * FROM "shop_sbx_deadbeef"."orders" LIMIT 5`, sr.SQL)
	assert.Equal(t, []string{"id", "total"}, sr.Columns)
	assert.Equal(t, 2, sr.RowCount)
	assert.GreaterOrEqual(t, sr.Duration, time.Duration(0))

	// the session is available again after the statement
	assert.Equal(t, sandbox.StateReady, sb.session.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStatementBudget(t *testing.T) {
	sb := newFakeSandbox(t)
	db, mock := newDBStub(t)

	for range 5 {
		mock.ExpectQuery(`SELECT * FROM "shop_sbx_deadbeef"."orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
	}

	tool := New(sb, db, 5, testutil.NewTestLogger(t))
	for i := range 5 {
		res, err := tool.RunStatement(context.Background(), "SELECT * FROM orders")
		require.NoError(t, err, "statement %d", i+1)
		assert.True(t, res.Success)
	}
	assert.Equal(t, 0, tool.Remaining())

	// the sixth statement is refused before touching the database
	_, err := tool.RunStatement(context.Background(), "SELECT * FROM orders")
	require.ErrorIs(t, err, ErrBudgetExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStatementMultiStatement(t *testing.T) {
	sb := newFakeSandbox(t)
	db, mock := newDBStub(t)

	mock.ExpectExec(`CREATE INDEX idx_total ON "shop_sbx_deadbeef"."orders" (total)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT * FROM "shop_sbx_deadbeef"."orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	tool := New(sb, db, 10, testutil.NewTestLogger(t))
	res, err := tool.RunStatement(context.Background(),
		"CREATE INDEX idx_total ON orders (total); SELECT * FROM orders;")
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.Statements, 2)
	assert.Nil(t, res.Statements[0].Columns)
	assert.Equal(t, 1, res.Statements[1].RowCount)
	assert.Equal(t, 8, tool.Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStatementBudgetExhaustedMidCall(t *testing.T) {
	sb := newFakeSandbox(t)
	db, mock := newDBStub(t)

	for range 2 {
		mock.ExpectQuery(`SELECT * FROM "shop_sbx_deadbeef"."orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
	}

	tool := New(sb, db, 2, testutil.NewTestLogger(t))
	res, err := tool.RunStatement(context.Background(),
		"SELECT * FROM orders; SELECT * FROM orders; SELECT * FROM orders")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, ErrorKindBudget, res.ErrorKind)
	assert.Len(t, res.Statements, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStatementExecutionErrorIsStructured(t *testing.T) {
	sb := newFakeSandbox(t)
	db, mock := newDBStub(t)

	mock.ExpectQuery(`SELECT nope FROM "shop_sbx_deadbeef"."orders"`).
		WillReturnError(errors.New(`column "nope" does not exist`))

	tool := New(sb, db, 10, testutil.NewTestLogger(t))
	res, err := tool.RunStatement(context.Background(), "SELECT nope FROM orders")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, ErrorKindExecution, res.ErrorKind)
	assert.Contains(t, res.ErrorMessage, "does not exist")

	// failed execution must not wedge the session
	assert.Equal(t, sandbox.StateReady, sb.session.State())
}

func TestRunStatementRejectedWhenNotReady(t *testing.T) {
	sb := newFakeSandbox(t)
	require.NoError(t, sb.session.Transition(sandbox.StateTearingDown))
	db, _ := newDBStub(t)

	tool := New(sb, db, 10, testutil.NewTestLogger(t))
	_, err := tool.RunStatement(context.Background(), "SELECT 1")

	var stateErr *sandbox.StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestResetDoesNotRefundBudget(t *testing.T) {
	sb := newFakeSandbox(t)
	db, mock := newDBStub(t)

	mock.ExpectQuery(`SELECT * FROM "shop_sbx_deadbeef"."orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tool := New(sb, db, 3, testutil.NewTestLogger(t))
	_, err := tool.RunStatement(context.Background(), "SELECT * FROM orders")
	require.NoError(t, err)

	require.NoError(t, tool.Reset(context.Background()))
	assert.Equal(t, 1, sb.resets)
	assert.Equal(t, 2, tool.Remaining())
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"SELECT 1", []string{"SELECT 1"}},
		{"SELECT 1; SELECT 2;", []string{"SELECT 1", "SELECT 2"}},
		{"  ;; \n ;", nil},
		{"CREATE INDEX i ON t (c);\nSELECT 1", []string{"CREATE INDEX i ON t (c)", "SELECT 1"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitStatements(tt.in), "input %q", tt.in)
	}
}

func TestReturnsRows(t *testing.T) {
	assert.True(t, returnsRows("SELECT 1"))
	assert.True(t, returnsRows("with t as (select 1) select * from t"))
	assert.True(t, returnsRows("EXPLAIN SELECT 1"))
	assert.False(t, returnsRows("CREATE INDEX i ON t (c)"))
	assert.False(t, returnsRows("UPDATE t SET c = 1"))
}

func TestRender(t *testing.T) {
	res := &Result{
		Success: true,
		Statements: []StatementResult{
			{
				SQL:      `SELECT * FROM "sbx"."orders"`,
				Columns:  []string{"id", "status"},
				Rows:     [][]any{{int64(1), "open"}, {int64(2), nil}},
				RowCount: 2,
				Duration: 3 * time.Millisecond,
			},
		},
	}

	var b strings.Builder
	Render(&b, res)
	out := b.String()

	assert.Contains(t, out, `-- SELECT * FROM "sbx"."orders"`)
	assert.Contains(t, out, "open")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows, 3ms)")
}

func TestRenderCapsRows(t *testing.T) {
	rows := make([][]any, 0, 30)
	for i := range 30 {
		rows = append(rows, []any{int64(i)})
	}
	res := &Result{
		Success: true,
		Statements: []StatementResult{
			{SQL: "SELECT id FROM t", Columns: []string{"id"}, Rows: rows, RowCount: 30},
		},
	}

	var b strings.Builder
	Render(&b, res)
	assert.Contains(t, b.String(), "... 10 more rows not shown")
}

func TestRenderError(t *testing.T) {
	res := &Result{
		Success:      false,
		ErrorKind:    ErrorKindExecution,
		ErrorMessage: "relation missing",
	}

	var b strings.Builder
	Render(&b, res)
	assert.Contains(t, b.String(), "error (execution_error): relation missing")
}
