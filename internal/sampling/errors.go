package sampling

import "fmt"

// StrategyUnsupportedError is returned when a configured strategy cannot be
// applied to a table (e.g. time_based with no identifiable timestamp
// column). It is fatal for the table's materialization and aborts the
// session rather than silently defaulting.
type StrategyUnsupportedError struct {
	Table    string
	Strategy Strategy
	Reason   string
}

func (e *StrategyUnsupportedError) Error() string {
	return fmt.Sprintf("strategy %s unsupported for table %s: %s", e.Strategy, e.Table, e.Reason)
}
