package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/store"
	"github.com/phrazzld/qforge/internal/task"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in QuestionServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrFeedbackRequired indicates a reject without feedback.
	// API layer should map this to HTTP 400 Bad Request.
	ErrFeedbackRequired = errors.New("human feedback is required to reject a question")

	// ErrInvalidRange indicates an unknown statistics range.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidRange = errors.New("invalid statistics range")
)

// QuestionServiceError wraps errors from the question service with context.
type QuestionServiceError struct {
	// Operation is the operation that failed (e.g., "submit", "confirm")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for QuestionServiceError.
func (e *QuestionServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("question service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("question service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *QuestionServiceError) Unwrap() error {
	return e.Err
}

// NewQuestionServiceError creates a new QuestionServiceError.
// Expected conditions (not found, conflicts, validation, a full queue) are
// returned unchanged.
func NewQuestionServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, ErrFeedbackRequired),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, store.ErrNotFound),
		store.IsConflictError(err),
		errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed),
		errors.As(err, &validationErr):
		return err
	}

	return &QuestionServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
