package optimistic

import (
	"errors"
	"fmt"
)

var (
	ErrOperationNotFound = errors.New("operation not found in local state")
	ErrAreaNotFound      = errors.New("area not found in local state")
)

// RetryableError wraps a remote failure after its optimistic change was
// rolled back. There is no automatic retry; the user re-issues the gesture.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("mutation failed and was rolled back: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a rolled-back remote failure.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
