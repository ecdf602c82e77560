package service

import (
	"context"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/generation"
	"github.com/phrazzld/qforge/internal/redact"
	"github.com/phrazzld/qforge/internal/task"
)

// Bounds on one review-pending sweep.
const (
	DefaultReviewPendingLimit = 20
	MaxReviewPendingLimit     = 100
)

// ReviewPendingResult counts the outcomes of a review-pending sweep.
type ReviewPendingResult struct {
	Selected int `json:"selected"`
	Passed   int `json:"passed"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`

	// Skipped questions were decided by a human while under review.
	Skipped int `json:"skipped"`
}

// ReviewPending reviews up to limit auto_pass questions that have no verdict,
// oldest first, and stores each verdict with the same write-once guard the
// pipeline uses. Individual failures are recorded on the question and
// counted, never returned.
func (s *questionServiceImpl) ReviewPending(ctx context.Context, limit int) (*ReviewPendingResult, error) {
	if limit <= 0 {
		limit = DefaultReviewPendingLimit
	}
	limit = min(limit, MaxReviewPendingLimit)

	pending, err := s.rawStore.ListPendingReview(ctx, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list questions pending review", "error", err)
		return nil, NewQuestionServiceError("review_pending", "failed to list pending questions", err)
	}

	result := &ReviewPendingResult{Selected: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	reqs := make([]generation.ReviewRequest, len(pending))
	for i, raw := range pending {
		reqs[i] = generation.ReviewRequest{
			RequestID: raw.RequestID,
			Type:      raw.Type,
			Content:   raw.Content,
		}
	}

	s.logger.InfoContext(ctx, "reviewing pending questions", "count", len(pending))
	for i, res := range s.reviewer.ReviewBatch(ctx, reqs) {
		raw := pending[i]
		if res.Err != nil {
			result.Failed++
			reason := redact.Error(res.Err)
			if err := s.rawStore.MarkReviewFailed(ctx, raw.ID, reason); err != nil {
				s.logger.ErrorContext(ctx, "failed to record review failure",
					"raw_question_id", raw.ID,
					"error", err)
			}
			continue
		}

		updated, err := task.RecordVerdict(ctx, s.rawStore, raw, res.Result, s.logger)
		switch {
		case err != nil:
			result.Failed++
		case updated.Verdict == nil || updated.Status.IsTerminal():
			result.Skipped++
		case updated.Status == domain.StatusAIReject:
			result.Rejected++
		default:
			result.Passed++
		}
	}

	s.logger.InfoContext(ctx, "pending review sweep finished",
		"selected", result.Selected,
		"passed", result.Passed,
		"rejected", result.Rejected,
		"failed", result.Failed,
		"skipped", result.Skipped)
	return result, nil
}
