package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredential
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindDependency
)

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a client-facing message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an underlying error, keeping it in the chain
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf extracts the client-facing message from an error chain.
// Unclassified errors get a generic message so internals never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps a kind to its response status code
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict, KindInvalidCredential:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDependency:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Label returns the short error label used in JSON responses
func (k Kind) Label() string {
	switch k {
	case KindValidation:
		return "Validation failed"
	case KindConflict:
		return "Conflict"
	case KindInvalidCredential:
		return "Invalid credentials"
	case KindUnauthenticated:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "Not found"
	case KindDependency:
		return "Dependency failure"
	default:
		return "Internal server error"
	}
}
