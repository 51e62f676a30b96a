// Package apierror defines the error taxonomy shared by handlers, services,
// and the access control layer. Every error that reaches the HTTP boundary
// is rendered from its Kind; anything that is not an *Error is Internal.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for rendering.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindNoClinicAccess
	KindAmbiguousClinicContext
	KindForbidden
	KindNotFound
	KindValidationFailed
	KindConflict
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNoClinicAccess:
		return "no_clinic_access"
	case KindAmbiguousClinicContext:
		return "ambiguous_clinic_context"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidationFailed:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind. Conflict renders as 422
// because business-rule blocks are reported alongside validation failures.
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNoClinicAccess, KindAmbiguousClinicContext, KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed, KindConflict:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified API error.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field validation messages (ValidationFailed only).
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so that errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated        = &Error{Kind: KindUnauthenticated, Message: "Unauthenticated"}
	ErrNoClinicAccess         = &Error{Kind: KindNoClinicAccess, Message: "No clinic access"}
	ErrAmbiguousClinicContext = &Error{Kind: KindAmbiguousClinicContext, Message: "No clinic access"}
	ErrForbidden              = &Error{Kind: KindForbidden, Message: "Forbidden"}
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "Not found"}
	ErrValidation             = &Error{Kind: KindValidationFailed, Message: "Validation failed"}
	ErrConflict               = &Error{Kind: KindConflict, Message: "Conflict"}
)

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NoAccessTo builds the uniform record-level denial, e.g. "No access to this patient".
func NoAccessTo(resource string) *Error {
	return &Error{Kind: KindForbidden, Message: "No access to this " + resource}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Validation builds a ValidationFailed error with per-field messages.
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidationFailed, Message: "The given data was invalid.", Fields: fields}
}

// Field is shorthand for a single-field validation error.
func Field(name, msg string) *Error {
	return Validation(map[string][]string{name: {msg}})
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf returns the Kind of err, or KindInternal when err is not classified.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// IsForbidden reports whether err denies access (including clinic context failures).
func IsForbidden(err error) bool {
	switch KindOf(err) {
	case KindForbidden, KindNoClinicAccess, KindAmbiguousClinicContext:
		return true
	}
	return false
}
