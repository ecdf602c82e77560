package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second raw question for one request id).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrAlreadyConfirmed is returned when a confirm or reject targets a raw
	// question that a human already confirmed.
	ErrAlreadyConfirmed = errors.New("question already confirmed")

	// ErrAlreadyRejected is returned when a confirm or reject targets a raw
	// question that a human already rejected.
	ErrAlreadyRejected = errors.New("question already rejected")

	// ErrStaleTransition is returned when a guarded update found the row in a
	// state that no longer permits it, e.g. a late review after a confirm.
	ErrStaleTransition = errors.New("stale state transition")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrRawQuestionNotFound indicates that the requested raw question does not exist.
	ErrRawQuestionNotFound = fmt.Errorf("%w: raw question", ErrNotFound)

	// ErrQuestionNotFound indicates that the requested promoted question does not exist.
	ErrQuestionNotFound = fmt.Errorf("%w: question", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError reports whether err is a state conflict a caller may
// surface as 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrAlreadyRejected) ||
		errors.Is(err, ErrStaleTransition) ||
		errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "raw_question", "api_log")
	Operation string // The operation that failed (e.g., "create", "confirm")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
