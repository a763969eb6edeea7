package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Tally error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400 (field validation)
	ErrMalformedID    ErrorCode = "MALFORMED_ID"    // 400 (rejected before storage access)
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrNoPassword     ErrorCode = "NO_PASSWORD"     // 403 (poll is not editable)
	ErrWrongPassword  ErrorCode = "WRONG_PASSWORD"  // 403
	ErrConflict       ErrorCode = "CONFLICT"        // 409 (id already allocated)
	ErrIDExhausted    ErrorCode = "ID_EXHAUSTED"    // 503 (transient, caller may retry create)
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid input fields.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewMalformedID creates a 400 error for an id that fails the grammar check.
// Malformed ids are rejected before any storage lookup is attempted.
func NewMalformedID(id string) *Error {
	return &Error{
		Code:    ErrMalformedID,
		Status:  400,
		Message: "invalid poll id",
		Details: map[string]any{"id": id},
	}
}

// NewNotFound creates a 404 error for a well-formed id with no record.
func NewNotFound(id string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("poll not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNoPassword creates a 403 error for edit attempts on a poll without a password.
func NewNoPassword() *Error {
	return &Error{
		Code:    ErrNoPassword,
		Status:  403,
		Message: "poll has no password and cannot be edited",
	}
}

// NewWrongPassword creates a 403 error for a failed password verification.
// The message is deliberately generic.
func NewWrongPassword() *Error {
	return &Error{
		Code:    ErrWrongPassword,
		Status:  403,
		Message: "incorrect password",
	}
}

// NewConflict creates a 409 error for create collisions on an existing id.
func NewConflict(id string) *Error {
	return &Error{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("poll %q already exists", id),
		Details: map[string]any{"id": id},
	}
}

// NewIDExhausted creates a 503 error after id generation collided maxAttempts times.
func NewIDExhausted(attempts int) *Error {
	return &Error{
		Code:    ErrIDExhausted,
		Status:  503,
		Message: fmt.Sprintf("failed to allocate a unique poll id after %d attempts", attempts),
		Details: map[string]any{"attempts": attempts},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The user-facing message stays generic; the original error is kept in
// Details for logging.
func NewInternal(err error) *Error {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	var tErr *Error
	if stderrors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}
