package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the domain wraps exactly one of these.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers field-level rule violations.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientStock indicates a decrease larger than the stock it draws from.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrCrossBrandMismatch indicates entities from different brands were joined.
	ErrCrossBrandMismatch = errors.New("cross brand mismatch")
	// ErrCrossBrandActor indicates an actor acting on another brand's stock.
	ErrCrossBrandActor = errors.New("actor brand mismatch")
	// ErrOverReservation indicates reserved quantity above on-hand quantity.
	ErrOverReservation = errors.New("reserved exceeds on hand")
	// ErrPermissionDenied is returned when the brand scope policy denies access.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrConcurrencyConflict indicates lock or serialization contention.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrMissingParameter indicates a required query parameter was omitted.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrImmutable is returned when writing to a write-once record.
	ErrImmutable = errors.New("immutable resource")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrUnauthenticated indicates the request carries no usable session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// FieldError is the structured {field, code, message} triple rendered to clients.
type FieldError struct {
	Kind    error
	Field   string
	Code    string
	Message string
}

// NewFieldError builds a FieldError wrapping the given kind.
func NewFieldError(kind error, field, code, message string) *FieldError {
	return &FieldError{Kind: kind, Field: field, Code: code, Message: message}
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Field, e.Code, e.Message)
}

// Unwrap exposes the kind for errors.Is.
func (e *FieldError) Unwrap() error {
	return e.Kind
}

// AsFieldError extracts a FieldError from err when one is present.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Common error codes shared across modules.
const (
	CodeNotFound            = "NOT_FOUND"
	CodePermissionDenied    = "PERMISSION_DENIED"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeMissingParameter    = "MISSING_PARAMETER"
	CodeDuplicate           = "DUPLICATE"
	CodeRequired            = "REQUIRED"
	CodeInvalid             = "INVALID"
)

// NotFound builds a NotFound field error for the named entity.
func NotFound(field, entity string) *FieldError {
	return NewFieldError(ErrNotFound, field, CodeNotFound, entity+" not found")
}

// Duplicate builds a Duplicate field error.
func Duplicate(field, message string) *FieldError {
	return NewFieldError(ErrDuplicate, field, CodeDuplicate, message)
}

// Required builds a validation error for a missing field.
func Required(field string) *FieldError {
	return NewFieldError(ErrValidation, field, CodeRequired, field+" is required")
}
