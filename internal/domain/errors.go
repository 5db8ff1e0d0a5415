package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmissionNotFound is returned when a submission id is unknown.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrDirectoryNotFound is returned when a directory id is unknown.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrProductNotFound is returned when a saas product id is unknown.
	ErrProductNotFound = errors.New("saas product not found")

	// ErrExhaustedRetries is returned when a retry is requested for a
	// submission whose retry budget is already spent. The submission is
	// left unchanged.
	ErrExhaustedRetries = errors.New("retry budget exhausted")

	// ErrIllegalTransition marks a status transition the state machine
	// forbids, e.g. retrying a submission that is not failed.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrRetryNotDue is returned for an automatic retry attempted before
	// the configured delay has elapsed. Manual retries bypass the delay.
	ErrRetryNotDue = errors.New("retry delay has not elapsed")
)

// ValidationError rejects malformed input before any submission row is
// created.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Msg
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ProviderError wraps a failure from the form automation provider. It is
// recorded into the owning submission's error log and never aborts a
// batch.
type ProviderError struct {
	Op  string // detect, login, fill, submit
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a provider failure for the given operation.
func NewProviderError(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}
