// Package diagtool exposes sandboxed statement execution to a diagnostic
// caller: every statement is rewritten to sandbox table names, executed
// against the sandbox only, timed, and counted against a session budget.
package diagtool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/sqldoctor/internal/sandbox"
	"github.com/leapstack-labs/sqldoctor/pkg/adapter"
)

// ErrBudgetExceeded is returned when the session's statement budget is
// spent. Callers must tear the session down or reset their plans; the
// refused statement is never executed.
var ErrBudgetExceeded = errors.New("statement budget exceeded")

// DefaultMaxStatements is the per-session statement budget when none is
// configured.
const DefaultMaxStatements = 50

// ErrorKind values reported in results.
const (
	ErrorKindExecution = "execution_error"
	ErrorKindBudget    = "budget_exceeded"
)

// StatementResult is the outcome of one executed statement.
type StatementResult struct {
	// SQL is the statement as executed, after sandbox rewriting
	SQL string

	// Columns and Rows hold the result set for row-returning statements
	Columns []string
	Rows    [][]any

	// RowCount is the number of rows returned
	RowCount int

	// Duration is the wall-clock execution time
	Duration time.Duration
}

// Result is the structured outcome of one RunStatement call. Failures
// during execution are reported here rather than as an error so the
// caller always sees which statements ran and how long they took.
type Result struct {
	Success      bool
	Statements   []StatementResult
	ErrorKind    string
	ErrorMessage string
}

// Sandbox is the slice of the sandbox manager the tool needs.
type Sandbox interface {
	Session() *sandbox.Session
	Mapper() *sandbox.Mapper
	Namespace() string
	Reset(ctx context.Context) error
}

// Tool runs diagnostic SQL against a provisioned sandbox. Statements are
// serialized; the budget counts every individual statement executed in
// the session, across resets.
type Tool struct {
	manager       Sandbox
	db            adapter.Adapter
	maxStatements int
	logger        *slog.Logger

	mu       sync.Mutex
	executed int
}

// New creates a tool bound to a provisioned sandbox. maxStatements <= 0
// selects the default budget.
func New(manager Sandbox, db adapter.Adapter, maxStatements int, logger *slog.Logger) *Tool {
	if maxStatements <= 0 {
		maxStatements = DefaultMaxStatements
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tool{
		manager:       manager,
		db:            db,
		maxStatements: maxStatements,
		logger:        logger,
	}
}

// Remaining returns how many statements the budget still allows.
func (t *Tool) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxStatements - t.executed
}

// RunStatement rewrites the SQL to sandbox table names and executes it,
// one statement at a time. A spent budget refuses the call before
// anything executes. SQL-level failures come back in the result; only
// budget and lifecycle violations are returned as errors.
func (t *Tool) RunStatement(ctx context.Context, sqlText string) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.executed >= t.maxStatements {
		return nil, ErrBudgetExceeded
	}

	sess := t.manager.Session()
	if err := sess.Transition(sandbox.StateExecuting); err != nil {
		return nil, err
	}
	defer func() { _ = sess.Transition(sandbox.StateReady) }()

	result := &Result{Success: true}
	for _, stmt := range splitStatements(sqlText) {
		if t.executed >= t.maxStatements {
			result.Success = false
			result.ErrorKind = ErrorKindBudget
			result.ErrorMessage = fmt.Sprintf("statement budget of %d exhausted", t.maxStatements)
			break
		}
		t.executed++

		rewritten := t.manager.Mapper().Rewrite(stmt)
		sr, err := t.execute(ctx, rewritten)
		result.Statements = append(result.Statements, sr)

		t.logger.Info("diagnostic statement executed",
			"namespace", t.manager.Namespace(),
			"sql", rewritten,
			"rows", sr.RowCount,
			"duration_ms", sr.Duration.Milliseconds(),
			"budget_remaining", t.maxStatements-t.executed,
			"error", err != nil)

		if err != nil {
			result.Success = false
			result.ErrorKind = ErrorKindExecution
			result.ErrorMessage = err.Error()
			break
		}
	}
	return result, nil
}

// Reset restores the sandbox data to its freshly imported state. The
// statement budget is not refunded.
func (t *Tool) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logger.Info("resetting sandbox", "namespace", t.manager.Namespace())
	return t.manager.Reset(ctx)
}

// execute runs one rewritten statement, choosing Query or Exec by shape.
func (t *Tool) execute(ctx context.Context, stmt string) (StatementResult, error) {
	sr := StatementResult{SQL: stmt}
	start := time.Now()

	if returnsRows(stmt) {
		rows, err := t.db.Query(ctx, stmt)
		if err != nil {
			sr.Duration = time.Since(start)
			return sr, err
		}
		cols, scanned, err := collectRows(rows)
		sr.Duration = time.Since(start)
		if err != nil {
			return sr, err
		}
		sr.Columns = cols
		sr.Rows = scanned
		sr.RowCount = len(scanned)
		return sr, nil
	}

	err := t.db.Exec(ctx, stmt)
	sr.Duration = time.Since(start)
	return sr, err
}

// splitStatements breaks a SQL text on semicolons, dropping empties.
func splitStatements(sqlText string) []string {
	var out []string
	for _, part := range strings.Split(sqlText, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// returnsRows reports whether a statement produces a result set.
func returnsRows(stmt string) bool {
	head := strings.ToUpper(stmt)
	for _, kw := range []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "DESCRIBE", "PRAGMA", "VALUES"} {
		if strings.HasPrefix(head, kw) {
			return true
		}
	}
	return false
}

// collectRows drains a result set into memory.
func collectRows(rows *adapter.Rows) ([]string, [][]any, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return cols, out, nil
}
