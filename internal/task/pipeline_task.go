package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/qforge/internal/cache"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/generation"
	"github.com/phrazzld/qforge/internal/platform/logger"
	"github.com/phrazzld/qforge/internal/redact"
	"github.com/phrazzld/qforge/internal/store"
)

// Common errors
var (
	ErrNilGenerator    = errors.New("generator cannot be nil")
	ErrNilReviewer     = errors.New("reviewer cannot be nil")
	ErrNilRawStore     = errors.New("raw question store cannot be nil")
	ErrNilCache        = errors.New("preview cache cannot be nil")
	ErrEmptyRequestID  = errors.New("request ID cannot be empty")
	ErrEmptyCacheKey   = errors.New("cache key cannot be empty")
	ErrInvalidPipeline = errors.New("invalid pipeline request")
)

// PreviewWriter stores the outcome of a pipeline run. Implementations must
// not fail the caller; *cache.PreviewCache logs and swallows errors.
type PreviewWriter interface {
	Put(ctx context.Context, key string, e *cache.Entry)
}

// PipelineRequest carries the inputs of one pipeline run.
type PipelineRequest struct {
	RequestID      string
	Type           domain.QuestionType
	KnowledgePoint string
	Difficulty     int
	CustomPrompt   string
	CacheKey       string
}

// QuestionPipelineTask generates a question, stores it as a raw question,
// reviews it and caches the outcome.
//
// Generation failure ends the task with an error and leaves nothing behind.
// Review failure keeps the question at auto_pass and records the reason.
// Every run that stored a question writes a cache entry.
type QuestionPipelineTask struct {
	id        uuid.UUID
	req       PipelineRequest
	generator generation.QuestionGenerator
	reviewer  generation.QuestionReviewer
	rawStore  store.RawQuestionStore
	cache     PreviewWriter
	onFinish  func()
	logger    *slog.Logger

	mu     sync.Mutex
	status TaskStatus
	raw    *domain.RawQuestion
}

// NewQuestionPipelineTask creates a pipeline task. onFinish, when non-nil, is
// called exactly once when Execute returns.
func NewQuestionPipelineTask(
	req PipelineRequest,
	generator generation.QuestionGenerator,
	reviewer generation.QuestionReviewer,
	rawStore store.RawQuestionStore,
	previews PreviewWriter,
	onFinish func(),
	logger *slog.Logger,
) (*QuestionPipelineTask, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if reviewer == nil {
		return nil, ErrNilReviewer
	}
	if rawStore == nil {
		return nil, ErrNilRawStore
	}
	if previews == nil {
		return nil, ErrNilCache
	}
	if req.RequestID == "" {
		return nil, ErrEmptyRequestID
	}
	if req.CacheKey == "" {
		return nil, ErrEmptyCacheKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QuestionPipelineTask{
		id:        uuid.New(),
		req:       req,
		generator: generator,
		reviewer:  reviewer,
		rawStore:  rawStore,
		cache:     previews,
		onFinish:  onFinish,
		logger: logger.With(
			"task_type", TaskTypeQuestionPipeline,
			"request_id", req.RequestID,
		),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *QuestionPipelineTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *QuestionPipelineTask) Type() string {
	return TaskTypeQuestionPipeline
}

// RequestID returns the client-visible request id of the run
func (t *QuestionPipelineTask) RequestID() string {
	return t.req.RequestID
}

// Status returns the current task status
func (t *QuestionPipelineTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// RawQuestion returns the stored question as of the end of the run, or nil
// if generation or persistence failed.
func (t *QuestionPipelineTask) RawQuestion() *domain.RawQuestion {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}

func (t *QuestionPipelineTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute runs generate, persist, review, persist and cache in order.
func (t *QuestionPipelineTask) Execute(ctx context.Context) error {
	if t.onFinish != nil {
		defer t.onFinish()
	}

	t.setStatus(TaskStatusProcessing)
	ctx = logger.WithLogger(ctx, t.logger)
	t.logger.InfoContext(ctx, "starting question pipeline",
		"type", t.req.Type,
		"difficulty", t.req.Difficulty)

	if err := ctx.Err(); err != nil {
		t.setStatus(TaskStatusFailed)
		t.logger.ErrorContext(ctx, "task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	// 1. Generate
	gen, err := t.generator.Generate(ctx, generation.GenerationRequest{
		RequestID:      t.req.RequestID,
		Type:           t.req.Type,
		KnowledgePoint: t.req.KnowledgePoint,
		Difficulty:     t.req.Difficulty,
		CustomPrompt:   t.req.CustomPrompt,
	})
	if err != nil {
		t.setStatus(TaskStatusFailed)
		t.logger.ErrorContext(ctx, "question generation failed", "error", redact.Error(err))
		return fmt.Errorf("failed to generate question: %w", err)
	}

	// 2. Persist at auto_pass
	raw, err := domain.NewRawQuestion(
		t.req.RequestID,
		t.req.Type,
		t.req.KnowledgePoint,
		t.req.Difficulty,
		t.req.CustomPrompt,
		gen.Content,
	)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		t.logger.ErrorContext(ctx, "generated question is invalid", "error", err)
		return fmt.Errorf("%w: %w", ErrInvalidPipeline, err)
	}
	raw.GenerationTokens = gen.Tokens
	raw.GenerationCost = gen.Cost

	if err := t.rawStore.Create(ctx, raw); err != nil {
		t.setStatus(TaskStatusFailed)
		t.logger.ErrorContext(ctx, "failed to store raw question", "error", redact.Error(err))
		return fmt.Errorf("failed to store raw question: %w", err)
	}
	t.logger.InfoContext(ctx, "raw question stored",
		"raw_question_id", raw.ID,
		"generation_tokens", gen.Tokens,
		"generation_attempts", gen.Attempts)

	// 3-5. Review and record the verdict
	raw, storeErr := t.review(ctx, raw)

	t.mu.Lock()
	t.raw = raw
	t.mu.Unlock()

	// 6. Cache the outcome whatever the review did
	t.cache.Put(ctx, t.req.CacheKey, cache.NewEntry(raw))

	if storeErr != nil {
		t.setStatus(TaskStatusFailed)
		return storeErr
	}

	t.setStatus(TaskStatusCompleted)
	t.logger.InfoContext(ctx, "question pipeline completed",
		"raw_question_id", raw.ID,
		"status", raw.Status)
	return nil
}

// review runs the reviewer and persists its outcome. It returns the question
// as it should be cached and any store error.
func (t *QuestionPipelineTask) review(ctx context.Context, raw *domain.RawQuestion) (*domain.RawQuestion, error) {
	res, err := t.reviewer.Review(ctx, generation.ReviewRequest{
		RequestID: raw.RequestID,
		Type:      raw.Type,
		Content:   raw.Content,
	})
	if err != nil {
		reason := redact.Error(err)
		t.logger.WarnContext(ctx, "question review failed, leaving for human attention",
			"raw_question_id", raw.ID,
			"error", reason)
		if markErr := t.rawStore.MarkReviewFailed(ctx, raw.ID, reason); markErr != nil {
			t.logger.ErrorContext(ctx, "failed to record review failure",
				"raw_question_id", raw.ID,
				"error", redact.Error(markErr))
			return raw, fmt.Errorf("failed to record review failure: %w", markErr)
		}
		raw.ReviewError = &reason
		return raw, nil
	}

	return RecordVerdict(ctx, t.rawStore, raw, res, t.logger)
}

// RecordVerdict stores a review result on raw with the write-once guard.
// A lost race against a human decision is not an error: the current row is
// re-read and returned instead.
func RecordVerdict(
	ctx context.Context,
	rawStore store.RawQuestionStore,
	raw *domain.RawQuestion,
	res *generation.ReviewResult,
	logger *slog.Logger,
) (*domain.RawQuestion, error) {
	status := domain.StatusForVerdict(&res.Verdict)
	err := rawStore.UpdateReview(ctx, raw.ID, store.ReviewUpdate{
		Verdict: res.Verdict,
		Tokens:  res.Tokens,
		Cost:    res.Cost,
		Status:  status,
	})
	switch {
	case err == nil:
		verdict := res.Verdict
		tokens, cost := res.Tokens, res.Cost
		raw.Verdict = &verdict
		raw.ReviewTokens = &tokens
		raw.ReviewCost = &cost
		raw.Status = status
		logger.InfoContext(ctx, "question reviewed",
			"raw_question_id", raw.ID,
			"passed", verdict.Passed,
			"overall_score", verdict.OverallScore,
			"status", status)
		return raw, nil

	case errors.Is(err, store.ErrStaleTransition):
		logger.WarnContext(ctx, "review result discarded, question already decided",
			"raw_question_id", raw.ID)
		current, getErr := rawStore.GetByID(ctx, raw.ID)
		if getErr != nil {
			logger.WarnContext(ctx, "failed to reload question after stale review",
				"raw_question_id", raw.ID,
				"error", redact.Error(getErr))
			return raw, nil
		}
		return current, nil

	default:
		logger.ErrorContext(ctx, "failed to store review",
			"raw_question_id", raw.ID,
			"error", redact.Error(err))
		return raw, fmt.Errorf("failed to store review: %w", err)
	}
}
