package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState occurs when an action violates a status workflow.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrConflict indicates a retryable concurrent-update conflict.
	ErrConflict = errors.New("concurrent update conflict")
)

// Retryable reports whether the caller may retry the failed operation.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// UserSafeMessage maps internal errors to messages safe to show callers.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Record not found"
	case errors.Is(err, ErrInvalidState):
		return "Action not allowed in the current status"
	case errors.Is(err, ErrConflict):
		return "The record was updated concurrently, please retry"
	default:
		return "Internal error, please contact the administrator"
	}
}
