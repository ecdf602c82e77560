package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/qforge/internal/api/shared"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/service"
	"github.com/phrazzld/qforge/internal/store"
	"github.com/phrazzld/qforge/internal/task"
)

// ErrInvalidRequest marks a malformed request (bad JSON, bad path or query
// parameter) detected by a handler.
var ErrInvalidRequest = errors.New("invalid request")

// Machine readable error codes sent in the code field of error responses.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyConfirmed = "ALREADY_CONFIRMED"
	CodeAlreadyRejected  = "ALREADY_REJECTED"
	CodeConflict         = "CONFLICT"
	CodeFeedbackRequired = "FEEDBACK_REQUIRED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeServiceBusy      = "SERVICE_BUSY"
	CodeInternal         = "INTERNAL_ERROR"
)

func isValidationError(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidQuestionType) ||
		errors.Is(err, domain.ErrInvalidDifficulty) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, store.ErrInvalidEntity) ||
		errors.Is(err, service.ErrInvalidRange)
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrAlreadyConfirmed),
		errors.Is(err, store.ErrAlreadyRejected),
		errors.Is(err, store.ErrStaleTransition),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrFeedbackRequired),
		errors.Is(err, ErrInvalidRequest),
		isValidationError(err):
		return http.StatusBadRequest

	// The runner cannot take more work
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine readable code for err.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, store.ErrAlreadyConfirmed):
		return CodeAlreadyConfirmed
	case errors.Is(err, store.ErrAlreadyRejected):
		return CodeAlreadyRejected
	case errors.Is(err, store.ErrStaleTransition),
		errors.Is(err, store.ErrDuplicate):
		return CodeConflict
	case errors.Is(err, service.ErrFeedbackRequired):
		return CodeFeedbackRequired
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case isValidationError(err):
		return CodeValidation
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return CodeServiceBusy
	default:
		return CodeInternal
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var ve *domain.ValidationError
	switch {
	case errors.Is(err, store.ErrRawQuestionNotFound):
		return "Raw question not found"
	case errors.Is(err, store.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrAlreadyConfirmed):
		return "Question has already been confirmed"
	case errors.Is(err, store.ErrAlreadyRejected):
		return "Question has already been rejected"
	case errors.Is(err, store.ErrStaleTransition),
		errors.Is(err, store.ErrDuplicate):
		return "Question was modified concurrently"

	case errors.Is(err, service.ErrFeedbackRequired):
		return "Human feedback is required to reject a question"
	case errors.Is(err, service.ErrInvalidRange):
		return "Invalid range: must be one of 1h, 24h, 7d, 30d"
	case errors.As(err, &ve):
		return fmt.Sprintf("Invalid %s: %s", ve.Field, ve.Message)
	case errors.Is(err, ErrInvalidRequest):
		return "Invalid request"
	case isValidationError(err):
		return "Validation error"

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Service is busy, please try again later"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. defaultMsg replaces the
// generic message of unexpected (500) errors when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusServiceUnavailable {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, ErrorCode(err), message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validator errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'GenerateRequest.Difficulty' Error:Field validation for 'Difficulty' failed on the 'max' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
