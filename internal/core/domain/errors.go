package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the core wraps exactly one of them so
// the transport layer can map it with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("access forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

var (
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrOrderNotFound      = newError(ErrNotFound, "order not found")
	ErrUserExists         = newError(ErrConflict, "username or email already exists")
	ErrDuplicateOrder     = newError(ErrConflict, "order number already exists")
	ErrInvalidTransition  = newError(ErrConflict, "invalid status transition")
	ErrConcurrentUpdate   = newError(ErrConflict, "order was modified concurrently")
	ErrIdempotencyPending = newError(ErrConflict, "a request with this idempotency key is still in progress")
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid username or password")
	ErrInvalidToken       = newError(ErrUnauthorized, "invalid token")
	ErrExpiredToken       = newError(ErrUnauthorized, "token expired")
	ErrMissingClaims      = newError(ErrUnauthorized, "authentication required")
	ErrAdminRequired      = newError(ErrForbidden, "admin role required")
	ErrOrderAccessDenied  = newError(ErrForbidden, "you don't have permission to access this order")
)

// kindError is an error message bound to one of the error kinds.
type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// Conflictf builds a Conflict error with a formatted message.
func Conflictf(format string, args ...any) error {
	return newError(ErrConflict, fmt.Sprintf(format, args...))
}

// Forbiddenf builds a Forbidden error with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return newError(ErrForbidden, fmt.Sprintf(format, args...))
}

// FieldError is a single per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends a field message.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field failed, so callers can write
// `return verr.OrNil()` after collecting.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Details returns the field messages in "field: message" form.
func (e *ValidationError) Details() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.String()
	}
	return out
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details(), "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
