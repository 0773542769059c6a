package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create a duplicate entity.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrForbidden is returned when an entity exists but belongs to a
	// different business than the caller's.
	ErrForbidden = errors.New("entity belongs to another business")

	// ErrNoStages is returned when a business has no stages to bootstrap into.
	ErrNoStages = errors.New("business has no stages")

	// ErrResourceExhausted is returned when the connection pool (or another
	// bounded resource) cannot be acquired in time.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// ValidationError wraps field-specific validation errors.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
