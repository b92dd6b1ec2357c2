package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity id is absent from
	// the catalog. Single-entity operations fail with it; bulk operations
	// skip the missing id instead.
	ErrNotFound = errors.New("entity not found")

	// ErrBlocked is returned when a master-value edit targets a blocked
	// segment or script. Blocked entities never accept master mutations.
	ErrBlocked = errors.New("entity is blocked")
)

// ValidationError is rejected input: a negative value, a missing required
// field, a password mismatch. It never reaches the store layer.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid constructs a ValidationError for a field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
