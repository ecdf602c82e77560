package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/redact"
	"golang.org/x/sync/errgroup"
)

// ReviewerConfig tunes the review adapter.
type ReviewerConfig struct {
	MaxTokens        int
	Temperature      float64
	Retry            RetryPolicy
	Pricing          Pricing
	BatchConcurrency int
	BatchDelay       time.Duration
}

// DefaultReviewerConfig returns the production defaults.
func DefaultReviewerConfig() ReviewerConfig {
	return ReviewerConfig{
		MaxTokens:        1024,
		Temperature:      0.3,
		Retry:            DefaultRetryPolicy,
		Pricing:          DefaultPricing,
		BatchConcurrency: 3,
		BatchDelay:       time.Second,
	}
}

// Reviewer produces verdicts for generated questions from a ChatModel.
type Reviewer struct {
	model  ChatModel
	audit  AuditLogger
	config ReviewerConfig
	logger *slog.Logger
	sleep  sleepFunc
}

var _ QuestionReviewer = (*Reviewer)(nil)

// NewReviewer creates a Reviewer. A nil logger falls back to slog.Default.
func NewReviewer(model ChatModel, audit AuditLogger, config ReviewerConfig, logger *slog.Logger) (*Reviewer, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: chat model cannot be nil", ErrInvalidConfig)
	}
	if audit == nil {
		return nil, fmt.Errorf("%w: audit logger cannot be nil", ErrInvalidConfig)
	}
	if config.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reviewer{
		model:  model,
		audit:  audit,
		config: config,
		logger: logger.With("component", "reviewer", "provider", model.Provider()),
		sleep:  sleepContext,
	}, nil
}

// Review asks the model for a verdict on req.Content, retrying failed
// attempts per the configured policy.
func (r *Reviewer) Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	prompt, err := RenderReviewPrompt(req)
	if err != nil {
		return nil, err
	}
	chatReq := ChatRequest{
		System:      reviewSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   r.config.MaxTokens,
		Temperature: r.config.Temperature,
	}

	log := r.logger.With("request_id", req.RequestID)
	attempts := r.config.Retry.Attempts()
	var lastErr error
	made := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := r.config.Retry.Backoff(attempt - 1)
			log.InfoContext(ctx, "retrying question review",
				"attempt", attempt,
				"delay", delay)
			if err := r.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: cancelled while waiting to retry: %w", ErrReviewFailed, err)
			}
		}

		made = attempt
		result, err := r.attempt(ctx, req, chatReq)
		if err == nil {
			result.Attempts = attempt
			log.InfoContext(ctx, "question reviewed",
				"attempt", attempt,
				"passed", result.Verdict.Passed,
				"overall_score", result.Verdict.OverallScore)
			return result, nil
		}

		lastErr = err
		log.WarnContext(ctx, "question review attempt failed",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", redact.Error(err))

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrReviewFailed, made, lastErr)
}

func (r *Reviewer) attempt(ctx context.Context, req ReviewRequest, chatReq ChatRequest) (*ReviewResult, error) {
	start := time.Now()
	resp, err := r.model.Complete(ctx, chatReq)
	latency := time.Since(start)

	var verdict *domain.Verdict
	if err == nil {
		if resp == nil || resp.Text == "" {
			err = ErrEmptyResponse
		} else {
			verdict, err = ParseVerdict(resp.Text)
		}
	}

	rec := attemptRecord{
		requestID: req.RequestID,
		model:     r.model,
		request:   chatReq,
		response:  resp,
		latency:   latency,
		pricing:   r.config.Pricing,
		err:       err,
	}
	if verdict != nil {
		rec.parsed = verdict
	}
	recordAttempt(ctx, r.audit, r.logger, rec)

	if err != nil {
		return nil, err
	}

	return &ReviewResult{
		Verdict: *verdict,
		Tokens:  resp.Tokens(),
		Cost:    r.config.Pricing.Cost(resp.PromptTokens, resp.CompletionTokens),
		Latency: latency,
	}, nil
}

// ReviewBatch reviews reqs in chunks of BatchConcurrency, waiting BatchDelay
// between chunks. Results are returned in input order and one failure never
// stops the rest of the batch.
func (r *Reviewer) ReviewBatch(ctx context.Context, reqs []ReviewRequest) []BatchReviewResult {
	results := make([]BatchReviewResult, len(reqs))
	for i, req := range reqs {
		results[i].RequestID = req.RequestID
	}

	size := r.config.BatchConcurrency
	for start := 0; start < len(reqs); start += size {
		if start > 0 {
			if err := r.sleep(ctx, r.config.BatchDelay); err != nil {
				for i := start; i < len(reqs); i++ {
					results[i].Err = fmt.Errorf("%w: %w", ErrReviewFailed, err)
				}
				break
			}
		}

		end := min(start+size, len(reqs))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := r.Review(ctx, reqs[i])
				results[i].Result = res
				results[i].Err = err
				return nil
			})
		}
		_ = g.Wait()

		r.logger.InfoContext(ctx, "review batch chunk finished",
			"from", start,
			"to", end,
			"total", len(reqs))
	}

	return results
}
