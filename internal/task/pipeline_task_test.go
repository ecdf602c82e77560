package task_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/phrazzld/qforge/internal/cache"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/generation"
	"github.com/phrazzld/qforge/internal/mocks"
	"github.com/phrazzld/qforge/internal/platform/logger"
	"github.com/phrazzld/qforge/internal/store"
	"github.com/phrazzld/qforge/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
	puts    int
}

func (c *recordingCache) Put(ctx context.Context, key string, e *cache.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*cache.Entry)
	}
	c.entries[key] = e
	c.puts++
}

func (c *recordingCache) get(key string) *cache.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key]
}

type pipelineFixture struct {
	generator *mocks.MockQuestionGenerator
	reviewer  *mocks.MockQuestionReviewer
	rawStore  *mocks.MockRawQuestionStore
	cache     *recordingCache
	factory   *task.QuestionPipelineTaskFactory
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	log, _ := logger.NewTestLogger()

	f := &pipelineFixture{
		generator: &mocks.MockQuestionGenerator{
			Result: &generation.GenerationResult{
				Content: domain.QuestionContent{
					Question: "Which function is increasing on (0, +inf)?",
					Options:  domain.Options{"A": "-x", "B": "1/x", "C": "ln x", "D": "-x^2"},
					Answer:   "C",
					Solution: "ln x has derivative 1/x > 0 for x > 0.",
				},
				Tokens:   420,
				Cost:     0.006,
				Attempts: 1,
			},
		},
		reviewer: &mocks.MockQuestionReviewer{},
		rawStore: mocks.NewMockRawQuestionStore(),
		cache:    &recordingCache{},
	}
	f.factory = task.NewQuestionPipelineTaskFactory(f.generator, f.reviewer, f.rawStore, f.cache, log)
	return f
}

func pipelineRequest() task.PipelineRequest {
	return task.PipelineRequest{
		RequestID:      "5f0c1b2a3d4e5f60718293a4b5c6d7e8",
		Type:           domain.QuestionTypeChoice,
		KnowledgePoint: "functions",
		Difficulty:     3,
		CacheKey:       cache.Key(domain.QuestionTypeChoice, 3, "functions", ""),
	}
}

func verdictResult(passed bool, score int) *generation.ReviewResult {
	return &generation.ReviewResult{
		Verdict: domain.Verdict{Passed: passed, OverallScore: score, Issues: []domain.Issue{}},
		Tokens:  150,
		Cost:    0.002,
	}
}

func (f *pipelineFixture) run(t *testing.T) (*task.QuestionPipelineTask, error) {
	t.Helper()
	finished := 0
	tk, err := f.factory.CreateTask(pipelineRequest(), func() { finished++ })
	require.NoError(t, err)
	assert.Equal(t, task.TaskStatusPending, tk.Status())

	execErr := tk.Execute(context.Background())
	assert.Equal(t, 1, finished)
	return tk, execErr
}

func TestQuestionPipelineTask_PassingReview(t *testing.T) {
	t.Parallel()
	f := newPipelineFixture(t)
	f.reviewer.Result = verdictResult(true, 88)

	tk, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, task.TaskStatusCompleted, tk.Status())

	rows := f.rawStore.All()
	require.Len(t, rows, 1)
	raw := rows[0]
	assert.Equal(t, domain.StatusAutoPass, raw.Status)
	require.NotNil(t, raw.Verdict)
	assert.Equal(t, 88, raw.Verdict.OverallScore)
	assert.Equal(t, 420, raw.GenerationTokens)
	require.NotNil(t, raw.ReviewTokens)
	assert.Equal(t, 150, *raw.ReviewTokens)

	entry := f.cache.get(pipelineRequest().CacheKey)
	require.NotNil(t, entry)
	assert.Equal(t, pipelineRequest().RequestID, entry.RequestID)
	assert.Equal(t, domain.StatusAutoPass, entry.Status)
	require.NotNil(t, entry.Preview.ReviewScore)
	assert.Equal(t, 88, *entry.Preview.ReviewScore)
}

func TestQuestionPipelineTask_FailingReview(t *testing.T) {
	t.Parallel()
	f := newPipelineFixture(t)
	// The reviewer has already overridden a low passing score.
	f.reviewer.Result = verdictResult(false, 55)

	_, err := f.run(t)
	require.NoError(t, err)

	raw := f.rawStore.All()[0]
	assert.Equal(t, domain.StatusAIReject, raw.Status)
	assert.Equal(t, domain.StatusAIReject, f.cache.get(pipelineRequest().CacheKey).Status)
}

func TestQuestionPipelineTask_ReviewError(t *testing.T) {
	t.Parallel()
	f := newPipelineFixture(t)
	f.reviewer.Err = generation.ErrReviewFailed

	tk, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, task.TaskStatusCompleted, tk.Status())

	raw := f.rawStore.All()[0]
	assert.Equal(t, domain.StatusAutoPass, raw.Status)
	assert.Nil(t, raw.Verdict)
	require.NotNil(t, raw.ReviewError)
	assert.Contains(t, *raw.ReviewError, "review failed")

	entry := f.cache.get(pipelineRequest().CacheKey)
	require.NotNil(t, entry)
	assert.Equal(t, domain.StatusAutoPass, entry.Status)
	assert.Nil(t, entry.Preview.ReviewScore)
}

func TestQuestionPipelineTask_GenerationError(t *testing.T) {
	t.Parallel()
	f := newPipelineFixture(t)
	f.generator.Result = nil
	f.generator.Err = generation.ErrGenerationFailed

	tk, err := f.run(t)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
	assert.Equal(t, task.TaskStatusFailed, tk.Status())
	assert.Nil(t, tk.RawQuestion())

	assert.Empty(t, f.rawStore.All())
	assert.Zero(t, f.reviewer.Calls())
	assert.Zero(t, f.cache.puts)
}

func TestQuestionPipelineTask_HumanDecisionWinsRace(t *testing.T) {
	t.Parallel()
	f := newPipelineFixture(t)
	f.reviewer.ReviewFn = func(ctx context.Context, req generation.ReviewRequest) (*generation.ReviewResult, error) {
		// A reviewer rejects the question while the model is still thinking.
		raw, err := f.rawStore.GetByRequestID(ctx, req.RequestID)
		require.NoError(t, err)
		require.NoError(t, f.rawStore.Reject(ctx, raw.ID, "duplicate of an existing question"))
		return verdictResult(true, 95), nil
	}

	tk, err := f.run(t)
	require.NoError(t, err)

	raw := f.rawStore.All()[0]
	assert.Equal(t, domain.StatusHumanReject, raw.Status)
	assert.Nil(t, raw.Verdict)
	assert.Equal(t, domain.StatusHumanReject, tk.RawQuestion().Status)
	assert.Equal(t, domain.StatusHumanReject, f.cache.get(pipelineRequest().CacheKey).Status)
}

func TestQuestionPipelineTask_StoreErrors(t *testing.T) {
	t.Parallel()

	t.Run("create failure leaves no cache entry", func(t *testing.T) {
		t.Parallel()
		f := newPipelineFixture(t)
		f.rawStore.CreateFn = func(context.Context, *domain.RawQuestion) error {
			return errors.New("connection refused")
		}

		_, err := f.run(t)
		assert.Error(t, err)
		assert.Zero(t, f.reviewer.Calls())
		assert.Zero(t, f.cache.puts)
	})

	t.Run("verdict write failure still caches", func(t *testing.T) {
		t.Parallel()
		f := newPipelineFixture(t)
		f.reviewer.Result = verdictResult(true, 80)
		f.rawStore.UpdateReviewFn = func(context.Context, int64, store.ReviewUpdate) error {
			return errors.New("connection reset")
		}

		tk, err := f.run(t)
		assert.ErrorContains(t, err, "failed to store review")
		assert.Equal(t, task.TaskStatusFailed, tk.Status())
		assert.Equal(t, 1, f.cache.puts)
	})
}

func TestNewQuestionPipelineTask_Validation(t *testing.T) {
	t.Parallel()
	gen := &mocks.MockQuestionGenerator{}
	rev := &mocks.MockQuestionReviewer{}
	raws := mocks.NewMockRawQuestionStore()
	previews := &recordingCache{}

	tests := []struct {
		name    string
		build   func() error
		wantErr error
	}{
		{"nil generator", func() error {
			_, err := task.NewQuestionPipelineTask(pipelineRequest(), nil, rev, raws, previews, nil, nil)
			return err
		}, task.ErrNilGenerator},
		{"nil reviewer", func() error {
			_, err := task.NewQuestionPipelineTask(pipelineRequest(), gen, nil, raws, previews, nil, nil)
			return err
		}, task.ErrNilReviewer},
		{"nil store", func() error {
			_, err := task.NewQuestionPipelineTask(pipelineRequest(), gen, rev, nil, previews, nil, nil)
			return err
		}, task.ErrNilRawStore},
		{"nil cache", func() error {
			_, err := task.NewQuestionPipelineTask(pipelineRequest(), gen, rev, raws, nil, nil, nil)
			return err
		}, task.ErrNilCache},
		{"empty request id", func() error {
			req := pipelineRequest()
			req.RequestID = ""
			_, err := task.NewQuestionPipelineTask(req, gen, rev, raws, previews, nil, nil)
			return err
		}, task.ErrEmptyRequestID},
		{"empty cache key", func() error {
			req := pipelineRequest()
			req.CacheKey = ""
			_, err := task.NewQuestionPipelineTask(req, gen, rev, raws, previews, nil, nil)
			return err
		}, task.ErrEmptyCacheKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.build(), tt.wantErr)
		})
	}
}

func TestQuestionPipelineTask_ThroughRunner(t *testing.T) {
	t.Parallel()
	f := newPipelineFixture(t)
	f.reviewer.Result = verdictResult(true, 90)

	runner := task.NewTaskRunner(task.TaskRunnerConfig{WorkerCount: 2, QueueSize: 4}, nil)
	require.NoError(t, runner.Start())

	done := make(chan struct{})
	tk, err := f.factory.CreateTask(pipelineRequest(), func() { close(done) })
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), tk))
	<-done

	require.NoError(t, runner.Stop(context.Background()))
	assert.Equal(t, task.TaskStatusCompleted, tk.Status())
	assert.Len(t, f.rawStore.All(), 1)
}
