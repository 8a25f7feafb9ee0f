package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrEmailExists = errors.New("email already registered")
)

// ValidationError carries a human message for a rejected input field.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

var ErrValidation = errors.New("validation failed")

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
