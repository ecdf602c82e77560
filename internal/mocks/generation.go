package mocks

import (
	"context"
	"sync/atomic"

	"github.com/phrazzld/qforge/internal/generation"
)

// MockQuestionGenerator implements generation.QuestionGenerator for testing.
type MockQuestionGenerator struct {
	GenerateFn func(ctx context.Context, req generation.GenerationRequest) (*generation.GenerationResult, error)

	// Default return values
	Result *generation.GenerationResult
	Err    error

	calls atomic.Int32
}

var _ generation.QuestionGenerator = (*MockQuestionGenerator)(nil)

// Generate implements generation.QuestionGenerator.
func (m *MockQuestionGenerator) Generate(ctx context.Context, req generation.GenerationRequest) (*generation.GenerationResult, error) {
	m.calls.Add(1)
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req)
	}
	return m.Result, m.Err
}

// Calls returns the number of Generate calls.
func (m *MockQuestionGenerator) Calls() int {
	return int(m.calls.Load())
}

// MockQuestionReviewer implements generation.QuestionReviewer for testing.
// The default ReviewBatch calls Review for each item in order.
type MockQuestionReviewer struct {
	ReviewFn      func(ctx context.Context, req generation.ReviewRequest) (*generation.ReviewResult, error)
	ReviewBatchFn func(ctx context.Context, reqs []generation.ReviewRequest) []generation.BatchReviewResult

	// Default return values
	Result *generation.ReviewResult
	Err    error

	calls atomic.Int32
}

var _ generation.QuestionReviewer = (*MockQuestionReviewer)(nil)

// Review implements generation.QuestionReviewer.
func (m *MockQuestionReviewer) Review(ctx context.Context, req generation.ReviewRequest) (*generation.ReviewResult, error) {
	m.calls.Add(1)
	if m.ReviewFn != nil {
		return m.ReviewFn(ctx, req)
	}
	return m.Result, m.Err
}

// ReviewBatch implements generation.QuestionReviewer.
func (m *MockQuestionReviewer) ReviewBatch(ctx context.Context, reqs []generation.ReviewRequest) []generation.BatchReviewResult {
	if m.ReviewBatchFn != nil {
		return m.ReviewBatchFn(ctx, reqs)
	}
	out := make([]generation.BatchReviewResult, len(reqs))
	for i, req := range reqs {
		res, err := m.Review(ctx, req)
		out[i] = generation.BatchReviewResult{RequestID: req.RequestID, Result: res, Err: err}
	}
	return out
}

// Calls returns the number of Review calls.
func (m *MockQuestionReviewer) Calls() int {
	return int(m.calls.Load())
}
