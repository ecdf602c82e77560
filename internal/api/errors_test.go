package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/qforge/internal/api/shared"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/service"
	"github.com/phrazzld/qforge/internal/store"
	"github.com/phrazzld/qforge/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"raw question not found", store.ErrRawQuestionNotFound, http.StatusNotFound, CodeNotFound},
		{"wrapped not found", fmt.Errorf("confirm: %w", store.ErrRawQuestionNotFound), http.StatusNotFound, CodeNotFound},
		{"already confirmed", store.ErrAlreadyConfirmed, http.StatusConflict, CodeAlreadyConfirmed},
		{"already rejected", store.ErrAlreadyRejected, http.StatusConflict, CodeAlreadyRejected},
		{"stale transition", store.ErrStaleTransition, http.StatusConflict, CodeConflict},
		{"duplicate", store.ErrDuplicate, http.StatusConflict, CodeConflict},
		{"feedback required", service.ErrFeedbackRequired, http.StatusBadRequest, CodeFeedbackRequired},
		{"invalid range", fmt.Errorf("%w: 1y", service.ErrInvalidRange), http.StatusBadRequest, CodeValidation},
		{"validation error", domain.NewValidationError("difficulty", "must be between 1 and 5", domain.ErrInvalidDifficulty), http.StatusBadRequest, CodeValidation},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest, CodeValidation},
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest},
		{"queue full", task.ErrQueueFull, http.StatusServiceUnavailable, CodeServiceBusy},
		{"queue closed", fmt.Errorf("failed to submit task: %w", task.ErrQueueClosed), http.StatusServiceUnavailable, CodeServiceBusy},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expectedCode, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.expectedErr, ErrorCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"raw question", store.ErrRawQuestionNotFound, "Raw question not found"},
		{"question", store.ErrQuestionNotFound, "Question not found"},
		{"generic not found", store.ErrNotFound, "Resource not found"},
		{"already confirmed", store.ErrAlreadyConfirmed, "Question has already been confirmed"},
		{"feedback", service.ErrFeedbackRequired, "Human feedback is required to reject a question"},
		{"validation", domain.NewValidationError("humanFeedback", "must be at most 1000 characters", domain.ErrValidation), "Invalid humanFeedback: must be at most 1000 characters"},
		{"busy", task.ErrQueueFull, "Service is busy, please try again later"},
		{"internal", errors.New("dial tcp 10.0.0.3:5432: secret=hunter2"), "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := validator.New().Struct(GenerateQuestionRequest{Type: "choice", KnowledgePoint: "x", Difficulty: 9})
	require.Error(t, err)
	assert.Equal(t, "Invalid Difficulty: too large", SanitizeValidationError(err))

	err = validator.New().Struct(GenerateQuestionRequest{Type: "essay", KnowledgePoint: "x", Difficulty: 1})
	require.Error(t, err)
	assert.Equal(t, "Invalid Type: invalid value", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}

func TestHandleAPIError(t *testing.T) {
	t.Parallel()

	t.Run("default message replaces internal errors", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		req = req.WithContext(shared.SetTraceID(req.Context()))
		rr := httptest.NewRecorder()

		HandleAPIError(rr, req, errors.New("relation \"questions\" does not exist"), "Failed to list questions")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "Failed to list questions", resp.Error)
		assert.Equal(t, CodeInternal, resp.Code)
		assert.Equal(t, shared.GetTraceID(req.Context()), resp.TraceID)
		assert.NotContains(t, rr.Body.String(), "relation")
	})

	t.Run("default message does not hide client errors", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		HandleAPIError(rr, httptest.NewRequest(http.MethodPost, "/x", nil), store.ErrAlreadyRejected, "Failed to confirm")

		assert.Equal(t, http.StatusConflict, rr.Code)
		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "Question has already been rejected", resp.Error)
	})
}
