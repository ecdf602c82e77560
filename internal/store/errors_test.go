package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewStoreError("raw_question", "confirm", "failed to lock row", cause)

	assert.Equal(t, "confirm operation on raw_question failed: failed to lock row: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	noCause := NewStoreError("api_log", "record", "bad payload", nil)
	assert.Equal(t, "record operation on api_log failed: bad payload", noCause.Error())
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(ErrRawQuestionNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("get: %w", ErrQuestionNotFound)))
	assert.False(t, IsNotFoundError(ErrDuplicate))

	for _, err := range []error{ErrAlreadyConfirmed, ErrAlreadyRejected, ErrStaleTransition, ErrDuplicate} {
		assert.True(t, IsConflictError(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
	assert.False(t, IsConflictError(ErrNotFound))
}
