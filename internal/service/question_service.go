package service

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/phrazzld/qforge/internal/cache"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/generation"
	"github.com/phrazzld/qforge/internal/store"
	"github.com/phrazzld/qforge/internal/task"
)

// Input limits enforced before any store or model call.
const (
	MaxKnowledgePointRunes = 64
	MaxCustomPromptRunes   = 500
	MaxFeedbackRunes       = 1000
)

// StatusProcessing is reported for a request whose pipeline has not finished.
const StatusProcessing = "processing"

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue without blocking
	Submit(ctx context.Context, t task.Task) error
}

// PipelineTaskFactory creates question pipeline tasks
type PipelineTaskFactory interface {
	CreateTask(req task.PipelineRequest, onFinish func()) (*task.QuestionPipelineTask, error)
}

// PreviewReader looks up cached pipeline outcomes. A miss and an unreachable
// cache look the same.
type PreviewReader interface {
	Get(ctx context.Context, key string) (*cache.Entry, bool)
}

// QuestionService provides the question pipeline use cases
type QuestionService interface {
	// Submit serves a cached outcome or schedules a pipeline run
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)

	// GetStatus returns the progress view of a request
	GetStatus(ctx context.Context, requestID string) (*StatusView, error)

	// Confirm promotes a raw question and returns the new question ID
	Confirm(ctx context.Context, rawID int64, feedback *string) (int64, error)

	// Reject records a human rejection; feedback is mandatory
	Reject(ctx context.Context, rawID int64, feedback string) error

	// ListRaw pages through raw questions, newest first
	ListRaw(ctx context.Context, q RawQuestionQuery) (*Page[*domain.RawQuestion], error)

	// GetRaw returns one raw question
	GetRaw(ctx context.Context, rawID int64) (*domain.RawQuestion, error)

	// ListQuestions pages through promoted questions, newest first
	ListQuestions(ctx context.Context, q QuestionQuery) (*Page[*domain.Question], error)

	// Statistics summarizes question states and model usage
	Statistics(ctx context.Context, rangeName string) (*Statistics, error)

	// ReviewPending reviews stored questions that never got a verdict
	ReviewPending(ctx context.Context, limit int) (*ReviewPendingResult, error)
}

// SubmitRequest is a request to generate one question.
type SubmitRequest struct {
	Type           domain.QuestionType
	KnowledgePoint string
	Difficulty     int
	CustomPrompt   string
}

// Validate checks the request against the input limits.
func (r SubmitRequest) Validate() error {
	if !r.Type.Valid() {
		return domain.NewValidationError("type", "must be choice, blank or solution", domain.ErrInvalidQuestionType)
	}
	if strings.TrimSpace(r.KnowledgePoint) == "" || utf8.RuneCountInString(r.KnowledgePoint) > MaxKnowledgePointRunes {
		return domain.NewValidationError("knowledgePoint", "must be 1-64 characters", domain.ErrValidation)
	}
	if r.Difficulty < domain.MinDifficulty || r.Difficulty > domain.MaxDifficulty {
		return domain.NewValidationError("difficulty", "must be between 1 and 5", domain.ErrInvalidDifficulty)
	}
	if utf8.RuneCountInString(r.CustomPrompt) > MaxCustomPromptRunes {
		return domain.NewValidationError("customPrompt", "must be at most 500 characters", domain.ErrValidation)
	}
	return nil
}

// SubmitResult is the immediate answer to a submission. Preview is set only
// when Cached is true.
type SubmitResult struct {
	RequestID string
	Status    string
	Cached    bool
	Preview   *cache.Preview
}

// Dependencies groups the collaborators of the question service.
type Dependencies struct {
	RawQuestions store.RawQuestionStore
	Questions    store.QuestionStore
	Stats        store.StatsStore
	Reviewer     generation.QuestionReviewer
	Previews     PreviewReader
	TaskFactory  PipelineTaskFactory
	Runner       TaskRunner
}

type questionServiceImpl struct {
	rawStore  store.RawQuestionStore
	questions store.QuestionStore
	stats     store.StatsStore
	reviewer  generation.QuestionReviewer
	previews  PreviewReader
	factory   PipelineTaskFactory
	runner    TaskRunner
	logger    *slog.Logger
	now       func() time.Time

	// inFlight maps the cache key of each running pipeline to its request ID
	mu       sync.Mutex
	inFlight map[string]string
}

// NewQuestionService creates a new QuestionService
// It returns an error if any of the required dependencies are nil.
func NewQuestionService(deps Dependencies, logger *slog.Logger) (QuestionService, error) {
	required := []struct {
		name    string
		missing bool
	}{
		{"raw question store", deps.RawQuestions == nil},
		{"question store", deps.Questions == nil},
		{"stats store", deps.Stats == nil},
		{"reviewer", deps.Reviewer == nil},
		{"preview cache", deps.Previews == nil},
		{"task factory", deps.TaskFactory == nil},
		{"task runner", deps.Runner == nil},
	}
	for _, r := range required {
		if r.missing {
			return nil, &QuestionServiceError{
				Operation: "create_service",
				Message:   r.name + " cannot be nil",
			}
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &questionServiceImpl{
		rawStore:  deps.RawQuestions,
		questions: deps.Questions,
		stats:     deps.Stats,
		reviewer:  deps.Reviewer,
		previews:  deps.Previews,
		factory:   deps.TaskFactory,
		runner:    deps.Runner,
		logger:    logger.With("component", "question_service"),
		now:       time.Now,
		inFlight:  make(map[string]string),
	}, nil
}

// newRequestID returns a random 32 character lowercase hex ID.
func newRequestID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Submit serves a cached outcome when one exists, joins an identical run
// that is still in flight, and otherwise schedules a new pipeline run. It
// never waits for a model call.
func (s *questionServiceImpl) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key(req.Type, req.Difficulty, req.KnowledgePoint, req.CustomPrompt)
	if entry, ok := s.previews.Get(ctx, key); ok {
		s.logger.DebugContext(ctx, "serving cached question", "request_id", entry.RequestID)
		preview := entry.Preview
		return &SubmitResult{
			RequestID: entry.RequestID,
			Status:    string(entry.Status),
			Cached:    true,
			Preview:   &preview,
		}, nil
	}

	// Held across runner.Submit, which never blocks.
	s.mu.Lock()
	defer s.mu.Unlock()

	if requestID, ok := s.inFlight[key]; ok {
		s.logger.DebugContext(ctx, "joining in-flight pipeline", "request_id", requestID)
		return &SubmitResult{RequestID: requestID, Status: StatusProcessing}, nil
	}

	requestID := newRequestID()
	t, err := s.factory.CreateTask(task.PipelineRequest{
		RequestID:      requestID,
		Type:           req.Type,
		KnowledgePoint: req.KnowledgePoint,
		Difficulty:     req.Difficulty,
		CustomPrompt:   req.CustomPrompt,
		CacheKey:       key,
	}, func() { s.finish(key, requestID) })
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create pipeline task", "error", err)
		return nil, NewQuestionServiceError("submit", "failed to create pipeline task", err)
	}

	if err := s.runner.Submit(ctx, t); err != nil {
		s.logger.WarnContext(ctx, "failed to schedule pipeline", "request_id", requestID, "error", err)
		return nil, NewQuestionServiceError("submit", "failed to schedule pipeline", err)
	}
	s.inFlight[key] = requestID

	s.logger.InfoContext(ctx, "question pipeline scheduled",
		"request_id", requestID,
		"type", req.Type,
		"difficulty", req.Difficulty)
	return &SubmitResult{RequestID: requestID, Status: StatusProcessing}, nil
}

func (s *questionServiceImpl) finish(key, requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[key] == requestID {
		delete(s.inFlight, key)
	}
}

// GetStatus returns the progress view of a request. Until generation has
// stored a question the request is not found.
func (s *questionServiceImpl) GetStatus(ctx context.Context, requestID string) (*StatusView, error) {
	raw, err := s.rawStore.GetByRequestID(ctx, requestID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to load request status", "request_id", requestID, "error", err)
		}
		return nil, NewQuestionServiceError("get_status", "failed to load raw question", err)
	}
	return NewStatusView(raw), nil
}

func validateFeedback(feedback string) error {
	if utf8.RuneCountInString(feedback) > MaxFeedbackRunes {
		return domain.NewValidationError("humanFeedback", "must be at most 1000 characters", domain.ErrValidation)
	}
	return nil
}

// Confirm promotes a raw question into the question bank.
func (s *questionServiceImpl) Confirm(ctx context.Context, rawID int64, feedback *string) (int64, error) {
	if feedback != nil {
		if err := validateFeedback(*feedback); err != nil {
			return 0, err
		}
		if strings.TrimSpace(*feedback) == "" {
			feedback = nil
		}
	}

	questionID, err := s.rawStore.Confirm(ctx, rawID, feedback)
	if err != nil {
		s.logger.WarnContext(ctx, "confirm failed", "raw_question_id", rawID, "error", err)
		return 0, NewQuestionServiceError("confirm", "failed to confirm raw question", err)
	}

	s.logger.InfoContext(ctx, "raw question confirmed",
		"raw_question_id", rawID,
		"question_id", questionID)
	return questionID, nil
}

// Reject records a human rejection. Blank feedback is refused before the
// store is touched.
func (s *questionServiceImpl) Reject(ctx context.Context, rawID int64, feedback string) error {
	if strings.TrimSpace(feedback) == "" {
		return ErrFeedbackRequired
	}
	if err := validateFeedback(feedback); err != nil {
		return err
	}

	if err := s.rawStore.Reject(ctx, rawID, feedback); err != nil {
		s.logger.WarnContext(ctx, "reject failed", "raw_question_id", rawID, "error", err)
		return NewQuestionServiceError("reject", "failed to reject raw question", err)
	}

	s.logger.InfoContext(ctx, "raw question rejected", "raw_question_id", rawID)
	return nil
}
