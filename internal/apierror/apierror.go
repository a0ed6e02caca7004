// Package apierror provides the domain error taxonomy and the standardized
// error response structures for the API. All errors returned to clients go
// through this package to ensure consistency and to prevent leaking internal
// details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies a domain error for HTTP mapping and for callers that need
// to branch on the failure class.
type Kind int

const (
	// KindConflict: a second open attempt while a shift is already open, or a
	// lost race on a concurrent close.
	KindConflict Kind = iota + 1
	// KindNotFound: the shift/movement does not exist or belongs to another tenant.
	KindNotFound
	// KindInvalidState: posting/reversing/closing against a closed shift.
	KindInvalidState
	// KindValidation: malformed amounts, unknown denominations, negative counts.
	KindValidation
)

// DomainError is the error type raised by the service layer. It is always
// detected synchronously inside the owning transaction, before any partial
// write occurs.
type DomainError struct {
	Kind Kind
	Msg  string
}

func (e *DomainError) Error() string { return e.Msg }

func Conflict(msg string) error     { return &DomainError{Kind: KindConflict, Msg: msg} }
func NotFound(msg string) error     { return &DomainError{Kind: KindNotFound, Msg: msg} }
func InvalidState(msg string) error { return &DomainError{Kind: KindInvalidState, Msg: msg} }
func Validation(msg string) error   { return &DomainError{Kind: KindValidation, Msg: msg} }

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, k Kind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == k
}

// Status maps a domain error to its HTTP status. Unknown errors map to 500;
// the handler layer logs them and returns a generic message.
func Status(err error) int {
	var de *DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Kind {
	case KindConflict, KindInvalidState:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors from request binding.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}
