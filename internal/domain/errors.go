package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidQuestionType is returned when a question type is not one of
	// choice, blank or solution.
	ErrInvalidQuestionType = errors.New("invalid question type")

	// ErrInvalidStatus is returned when a question status is not valid.
	ErrInvalidStatus = errors.New("invalid question status")

	// ErrInvalidDifficulty is returned when a difficulty is outside 1..5.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)

// ValidationError describes a single invalid field. It unwraps to the
// sentinel passed at construction so callers can use errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
