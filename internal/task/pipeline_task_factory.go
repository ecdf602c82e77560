package task

import (
	"log/slog"

	"github.com/phrazzld/qforge/internal/generation"
	"github.com/phrazzld/qforge/internal/store"
)

// QuestionPipelineTaskFactory creates pipeline tasks that share the same
// dependencies.
type QuestionPipelineTaskFactory struct {
	generator generation.QuestionGenerator
	reviewer  generation.QuestionReviewer
	rawStore  store.RawQuestionStore
	cache     PreviewWriter
	logger    *slog.Logger
}

// NewQuestionPipelineTaskFactory creates a new factory
func NewQuestionPipelineTaskFactory(
	generator generation.QuestionGenerator,
	reviewer generation.QuestionReviewer,
	rawStore store.RawQuestionStore,
	previews PreviewWriter,
	logger *slog.Logger,
) *QuestionPipelineTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionPipelineTaskFactory{
		generator: generator,
		reviewer:  reviewer,
		rawStore:  rawStore,
		cache:     previews,
		logger:    logger.With("component", "question_pipeline"),
	}
}

// CreateTask creates a pipeline task for req. onFinish runs once when the
// task's Execute returns.
func (f *QuestionPipelineTaskFactory) CreateTask(req PipelineRequest, onFinish func()) (*QuestionPipelineTask, error) {
	return NewQuestionPipelineTask(
		req,
		f.generator,
		f.reviewer,
		f.rawStore,
		f.cache,
		onFinish,
		f.logger,
	)
}
