package download

import "errors"

var (
	// ErrEmptyResult is returned when the engine produced no metadata
	ErrEmptyResult = errors.New("engine returned no metadata")
	// ErrMalformedSample marks a progress sample that cannot be normalized.
	// Tasks absorb it; it never reaches the controller.
	ErrMalformedSample = errors.New("malformed progress sample")
	// ErrCancelled is returned by a task that observed a cancel request
	ErrCancelled = errors.New("task cancelled")
)

// ExtractionError wraps an engine failure that was not caused by cancellation.
// Message preserves the engine text verbatim.
type ExtractionError struct {
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func newExtractionError(err error) *ExtractionError {
	return &ExtractionError{Message: err.Error(), Err: err}
}
