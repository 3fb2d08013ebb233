// Package apperr defines the error taxonomy shared by the storage, service
// and HTTP layers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// Internal covers unexpected faults; never shown verbatim to callers.
	Internal Kind = iota
	NotFound
	Conflict
	Unauthenticated
	Forbidden
	ValidationFailed
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case ValidationFailed:
		return "validation_failed"
	default:
		return "internal"
	}
}

// Error is a tagged failure carrying a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	// Operational marks expected domain failures that are safe to surface.
	Operational bool
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an operational error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Operational: kind != Internal}
}

// Wrap tags err with a kind while keeping it reachable through errors.Is/As.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Operational: kind != Internal, Err: err}
}

// Validation is shorthand for a ValidationFailed error.
func Validation(message string) *Error {
	return New(ValidationFailed, message)
}

// KindOf reports the kind of err. Untagged errors are Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// IsOperational reports whether err is an expected domain failure.
func IsOperational(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Operational
	}
	return false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-safe message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Operational {
		return appErr.Message
	}
	return "internal server error"
}

// HTTPStatus maps err to the response status used by the API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case Conflict, ValidationFailed:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
