package sandbox

import (
	"fmt"
	"strings"
)

// ImportError reports a failure while materializing one table during the
// import phase. The whole provisioning attempt is abandoned when one
// occurs.
type ImportError struct {
	Unit  string
	Table string
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed for table %s (unit %s): %v", e.Table, e.Unit, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// TeardownError aggregates failures encountered while dismantling a
// sandbox. Teardown keeps going past individual failures so it reports
// everything it could not remove.
type TeardownError struct {
	Namespace string
	Errs      []error
}

func (e *TeardownError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("teardown of sandbox %s left residue: %s", e.Namespace, strings.Join(msgs, "; "))
}
