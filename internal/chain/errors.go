package chain

import (
	"errors"
	"fmt"
)

// Error kinds shared by every stage. Callers test for them with errors.Is;
// they stay reachable through an [ExecutionError].
var (
	// ErrInvalidArgument reports a bad caller-supplied value such as a
	// non-positive result limit or a template variable that is missing.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRemoteService reports an LLM transport failure or non-success response.
	ErrRemoteService = errors.New("remote service error")

	// ErrMalformedResponse reports an LLM response missing expected fields.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrIndexAccess reports an open, close, write, or search failure on the index.
	ErrIndexAccess = errors.New("index access error")

	// ErrHandleClosed reports use of an index handle after it was released.
	ErrHandleClosed = fmt.Errorf("%w: handle is closed", ErrIndexAccess)
)

// ExecutionError is returned by a [Stage] whose link failed. It names the
// failing stage and wraps the underlying cause.
type ExecutionError struct {
	// Stage is the name of the stage that failed.
	Stage string

	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("chain: stage %q failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// StageOf returns the name of the stage that produced err, or "" when err
// did not come from a stage.
func StageOf(err error) string {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Stage
	}
	return ""
}

// Invalidf returns an ErrInvalidArgument error with a formatted detail.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
