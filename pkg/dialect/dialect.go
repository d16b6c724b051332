// Package dialect provides SQL dialect configuration for sqldoctor.
//
// A dialect describes the syntax differences the sandbox engine must care
// about when it builds DDL and sampling queries for a backend: identifier
// quoting, parameter placeholders, timestamp literals, and the random
// ordering function. Concrete dialects are registered in builtin.go.
package dialect

import (
	"fmt"
	"strings"
	"time"
)

// PlaceholderStyle determines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite, MySQL).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, ... (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig describes how identifiers are quoted.
type IdentifierConfig struct {
	QuoteStart string // opening quote, e.g. `"` or "`"
	QuoteEnd   string // closing quote
	Escape     string // sequence that escapes QuoteEnd inside an identifier
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers IdentifierConfig

	// DefaultSchema is the schema used when none is given
	// ("main" for DuckDB/SQLite, "public" for Postgres).
	DefaultSchema string

	// Placeholder is the parameter placeholder style.
	Placeholder PlaceholderStyle

	// RandomFunc is the expression used for random ordering
	// ("RANDOM()" for most backends, "RAND()" for MySQL).
	RandomFunc string

	// TimestampLayout is the time.Format layout for timestamp literals.
	TimestampLayout string

	// SupportsSchemas is true when the backend can create named schemas.
	// Schema-less backends fall back to table-name suffixing for the
	// sandbox namespace.
	SupportsSchemas bool
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.QuoteStart + escaped + d.Identifiers.QuoteEnd
}

// QualifyTable returns a quoted, optionally schema-qualified table reference.
func (d *Dialect) QualifyTable(schema, name string) string {
	if schema == "" || !d.SupportsSchemas {
		return d.QuoteIdentifier(name)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(name)
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	if d.Placeholder == PlaceholderDollar {
		return fmt.Sprintf("$%d", index)
	}
	return "?"
}

// FormatTimestamp renders a timestamp literal for WHERE-clause comparisons.
func (d *Dialect) FormatTimestamp(t time.Time) string {
	return "'" + t.Format(d.TimestampLayout) + "'"
}
