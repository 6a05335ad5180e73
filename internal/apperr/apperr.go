// Package apperr defines the stable error taxonomy shared by every service.
//
// Every service boundary (application layer, HTTP handler, event consumer)
// classifies failures into one of a small set of kinds so that transport
// layers can map them to the status codes in spec.md §7 without string
// sniffing.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind labels the stable error category surfaced to callers.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindUnauthenticated       Kind = "unauthenticated"
	KindForbidden             Kind = "forbidden"
	KindNotFound              Kind = "not_found"
	KindConflict              Kind = "conflict"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindInternal              Kind = "internal"
)

// HTTPStatus maps a Kind to the status code mandated by spec.md §7.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed error carrying a stable Kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound is a convenience constructor for the common not-found case.
func NotFound(resource string) *Error {
	return New(KindNotFound, resource+" not found")
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err is
// not an *Error (or does not wrap one).
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}
	return KindInternal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ValidationError aggregates field-level validation failures, generalized
// from the teacher's application.ValidationError to carry a top-level
// message alongside the per-field detail map.
type ValidationError struct {
	Message     string
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || v.Message == "" {
		return "validation failed"
	}
	return v.Message
}

// HasErrors reports whether any field-level issue was recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field-level validation error, allocating the map lazily.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// NewValidation constructs an empty *ValidationError with the given summary.
func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}
