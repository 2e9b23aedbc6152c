package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPeriods is returned when the requested horizon is below one.
	ErrInvalidPeriods = errors.New("periods must be at least 1")
	// ErrModelFault covers non-convergence, degenerate fits and undefined output.
	ErrModelFault = errors.New("forecast model fault")
	// ErrDependencyUnavailable is returned by the seasonal strategy when no
	// fitter is wired in.
	ErrDependencyUnavailable = errors.New("forecast dependency unavailable")
	// ErrUnknownMethod is returned by the registry for unregistered methods.
	ErrUnknownMethod = errors.New("unknown forecast method")
)

// RequestError reports structurally invalid input. Index is the offending
// history position, or -1 when the error is not tied to a record.
type RequestError struct {
	Field string
	Index int
	Err   error
}

func (e *RequestError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid forecast request: history[%d].%s: %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("invalid forecast request: %s: %v", e.Field, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsInvalidRequest reports whether err was caused by caller input, as
// opposed to an internal fault.
func IsInvalidRequest(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
