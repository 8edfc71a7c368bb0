package reader

import (
	"errors"
	"fmt"
)

// ErrTooManyFailures terminates a lenient session whose input keeps
// failing: Options.FailureCap consecutive read attempts failed without
// a single produced row. The terminal error returned on the demand
// that hit the cap wraps both this sentinel and the last RowError.
var ErrTooManyFailures = errors.New("too many consecutive row failures")

// RowError is a row-level read or decode failure. Under the strict
// policy it surfaces on the failing demand; under the lenient policy it
// is reported through Options.OnRowError and the row is skipped.
type RowError struct {
	// Line is the first physical line of the offending record.
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row at line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
