// Package domainerrors defines the coded error type services return to callers.
//
// Stores return pkg/platform/sentinel errors; services translate those into coded
// errors so transport layers can map them to user-facing responses without
// inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for propagation policy decisions.
type Code string

const (
	// CodeValidation marks malformed or missing input. Recoverable by the
	// caller correcting the request.
	CodeValidation Code = "validation"
	// CodeInvalidState marks a lifecycle violation (e.g. approving an already
	// processed request). Terminal: the caller must not retry the same action.
	CodeInvalidState Code = "invalid_state"
	// CodePermissionDenied marks an actor lacking the required role or an
	// active session for the operation.
	CodePermissionDenied Code = "permission_denied"
	// CodeUnauthorized marks a failed or missing authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound marks an unknown entity id.
	CodeNotFound Code = "not_found"
	// CodeConflict marks uniqueness or concurrent-update conflicts.
	CodeConflict Code = "conflict"
	// CodePersistence marks a transactional failure. The atomic operation has
	// rolled back completely, so the caller may safely retry.
	CodePersistence Code = "persistence"
	// CodeNotification marks a best-effort notification failure. Never
	// propagated as an operation failure; surfaced only through logs.
	CodeNotification Code = "notification"
	// CodeInvariantViolation marks a domain invariant breach detected by a
	// model constructor or transition guard.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause remains
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// non-domain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the transport layer should use.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodePersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
