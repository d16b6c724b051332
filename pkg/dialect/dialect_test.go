package dialect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDialectsRegistered(t *testing.T) {
	for _, name := range []string{"duckdb", "sqlite", "postgres", "mysql"} {
		d, ok := Get(name)
		require.True(t, ok, "dialect %q should be registered", name)
		assert.Equal(t, name, d.Name)
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	d, ok := Get("Postgres")
	require.True(t, ok)
	assert.Equal(t, "postgres", d.Name)
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		dialect string
		in      string
		want    string
	}{
		{"postgres", "orders", `"orders"`},
		{"postgres", `we"ird`, `"we""ird"`},
		{"mysql", "orders", "`orders`"},
		{"mysql", "we`ird", "`we``ird`"},
		{"duckdb", "sales", `"sales"`},
	}

	for _, tt := range tests {
		d, ok := Get(tt.dialect)
		require.True(t, ok)
		assert.Equal(t, tt.want, d.QuoteIdentifier(tt.in), "%s: QuoteIdentifier(%q)", tt.dialect, tt.in)
	}
}

func TestQualifyTable(t *testing.T) {
	pg, _ := Get("postgres")
	assert.Equal(t, `"sbx"."orders"`, pg.QualifyTable("sbx", "orders"))
	assert.Equal(t, `"orders"`, pg.QualifyTable("", "orders"))

	// sqlite has no schema support, qualification falls back to the bare name
	lite, _ := Get("sqlite")
	assert.Equal(t, `"orders"`, lite.QualifyTable("sbx", "orders"))
}

func TestFormatPlaceholder(t *testing.T) {
	pg, _ := Get("postgres")
	assert.Equal(t, "$1", pg.FormatPlaceholder(1))
	assert.Equal(t, "$7", pg.FormatPlaceholder(7))

	my, _ := Get("mysql")
	assert.Equal(t, "?", my.FormatPlaceholder(1))
	assert.Equal(t, "?", my.FormatPlaceholder(7))
}

func TestFormatTimestamp(t *testing.T) {
	my, _ := Get("mysql")
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "'2024-03-01 12:30:00'", my.FormatTimestamp(ts))
}

func TestRandomFunc(t *testing.T) {
	my, _ := Get("mysql")
	assert.Equal(t, "RAND()", my.RandomFunc)

	pg, _ := Get("postgres")
	assert.Equal(t, "RANDOM()", pg.RandomFunc)
}
