// Package apperr provides typed domain errors shared by all modules.
// Services return these errors and the HTTP layer maps them to status codes,
// so handlers never inspect raw repository errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes a domain error.
type Kind int

const (
	// KindUnknown is the default when no kind was assigned.
	KindUnknown Kind = iota
	// KindNotFound indicates the entity is absent or belongs to another tenant.
	KindNotFound
	// KindValidation indicates malformed caller input rejected before any mutation.
	KindValidation
	// KindConflict indicates the request clashes with existing state
	// (illegal transition, duplicate active negotiation, delete of an active deal).
	KindConflict
	// KindUnauthorized indicates a missing or invalid credential.
	KindUnauthorized
	// KindBadRequest indicates a malformed request outside body validation.
	KindBadRequest
	// KindDependency indicates an upstream collaborator (property, broker or
	// lead store) failed; the surrounding unit of work stays uncommitted.
	KindDependency
	// KindInternal indicates an unexpected failure.
	KindInternal
)

// Error is a domain error with a Kind used for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string // operation that failed, optional
	Err     error  // underlying cause, optional
	Details any    // extra payload for the response, optional
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindDependency:
		return http.StatusBadGateway
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// New creates a domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a domain error around an existing one.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the failing operation.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails attaches response details.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// NotFound creates a not-found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// BadRequest creates a bad-request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Dependency creates a dependency error wrapping the upstream failure.
func Dependency(message string, err error) *Error {
	return Wrap(KindDependency, message, err)
}

// Internal creates an internal error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind extracts the Kind from err, unwrapping as needed.
// Returns KindUnknown for non-domain errors.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is a domain error of the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
