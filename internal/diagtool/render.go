package diagtool

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// displayRowLimit caps how many result rows are rendered; full results
// stay available on the Result.
const displayRowLimit = 20

// Render writes a human-readable view of a result: one table per
// row-returning statement, timings for everything else, and the error
// when execution stopped early.
func Render(w io.Writer, res *Result) {
	for i, sr := range res.Statements {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "-- %s\n", sr.SQL)

		if sr.Columns != nil {
			renderRows(w, sr)
		}
		_, _ = fmt.Fprintf(w, "(%d rows, %s)\n", sr.RowCount, sr.Duration)
	}

	if !res.Success {
		_, _ = fmt.Fprintf(w, "error (%s): %s\n", res.ErrorKind, res.ErrorMessage)
	}
}

func renderRows(w io.Writer, sr StatementResult) {
	if len(sr.Rows) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(sr.Columns))
	for i, col := range sr.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	shown := sr.Rows
	if len(shown) > displayRowLimit {
		shown = shown[:displayRowLimit]
	}
	for _, values := range shown {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}
	t.Render()

	if hidden := len(sr.Rows) - displayRowLimit; hidden > 0 {
		_, _ = fmt.Fprintf(w, "... %d more rows not shown\n", hidden)
	}
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
