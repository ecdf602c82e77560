package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/qforge/internal/cache"
	"github.com/phrazzld/qforge/internal/config"
	"github.com/phrazzld/qforge/internal/generation"
	"github.com/phrazzld/qforge/internal/platform/gemini"
	"github.com/phrazzld/qforge/internal/platform/openai"
	"github.com/phrazzld/qforge/internal/platform/postgres"
	"github.com/phrazzld/qforge/internal/platform/redis"
	"github.com/phrazzld/qforge/internal/redact"
	"github.com/phrazzld/qforge/internal/service"
	"github.com/phrazzld/qforge/internal/store"
	"github.com/phrazzld/qforge/internal/task"
)

// components are the externally backed collaborators of the application.
// Tests substitute in-memory versions.
type components struct {
	rawQuestions   store.RawQuestionStore
	questions      store.QuestionStore
	stats          store.StatsStore
	audit          generation.AuditLogger
	generatorModel generation.ChatModel
	reviewerModel  generation.ChatModel

	// cacheBackend may be nil, which disables the preview cache.
	cacheBackend cache.Backend
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// closers are released in order by cleanup
	closers []io.Closer

	previews        *cache.PreviewCache
	taskRunner      *task.TaskRunner
	questionService service.QuestionService
}

// newApplication creates a new application instance with all dependencies
// initialized from cfg and the open database.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	comps := components{
		rawQuestions: postgres.NewPostgresRawQuestionStore(db, logger),
		questions:    postgres.NewPostgresQuestionStore(db, logger),
		stats:        postgres.NewPostgresStatsStore(db, logger),
		audit:        postgres.NewPostgresAPILogStore(db, logger),
	}

	var err error
	comps.generatorModel, err = newChatModel(ctx, cfg.LLM.Generator)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation model: %w", err)
	}
	comps.reviewerModel, err = newChatModel(ctx, cfg.LLM.Reviewer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize review model: %w", err)
	}
	logger.Info("language models initialized",
		"generator", comps.generatorModel.Provider(),
		"reviewer", comps.reviewerModel.Provider())

	closers := []io.Closer{db}
	if cfg.Redis.URL != "" {
		backend, err := redis.New(redis.Config{
			URL:          cfg.Redis.URL,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure redis: %s", redact.Error(err))
		}
		// The cache fails open, so an unreachable Redis only costs cache hits.
		if err := backend.Ping(ctx); err != nil {
			logger.Warn("redis unreachable at startup, continuing without cache hits",
				"error", redact.Error(err))
		}
		comps.cacheBackend = backend
		closers = append([]io.Closer{backend}, closers...)
	} else {
		logger.Info("redis not configured, preview cache disabled")
	}

	app, err := buildApplication(cfg, logger, comps)
	if err != nil {
		return nil, err
	}
	app.closers = closers
	return app, nil
}

// newChatModel creates the chat model client selected by cfg.Provider.
func newChatModel(ctx context.Context, cfg config.ProviderConfig) (generation.ChatModel, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			Provider: cfg.Name,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		})
	case "gemini":
		return gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", generation.ErrInvalidConfig, cfg.Provider)
	}
}

// buildApplication wires the pipeline, the task runner and the service on
// top of comps. The runner is not started.
func buildApplication(cfg *config.Config, logger *slog.Logger, comps components) (*application, error) {
	pricing := generation.Pricing{
		InputPerToken:  cfg.Pipeline.InputTokenPrice,
		OutputPerToken: cfg.Pipeline.OutputTokenPrice,
	}
	retry := generation.RetryPolicy{
		MaxRetries: cfg.Pipeline.MaxRetries,
		BaseDelay:  cfg.Pipeline.RetryBaseDelay,
	}

	generator, err := generation.NewGenerator(comps.generatorModel, comps.audit, generation.GeneratorConfig{
		MaxTokens:   cfg.LLM.Generator.MaxTokens,
		Temperature: cfg.LLM.Generator.Temperature,
		Retry:       retry,
		Pricing:     pricing,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	reviewer, err := generation.NewReviewer(comps.reviewerModel, comps.audit, generation.ReviewerConfig{
		MaxTokens:        cfg.LLM.Reviewer.MaxTokens,
		Temperature:      cfg.LLM.Reviewer.Temperature,
		Retry:            retry,
		Pricing:          pricing,
		BatchConcurrency: cfg.Pipeline.BatchConcurrency,
		BatchDelay:       cfg.Pipeline.BatchDelay,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reviewer: %w", err)
	}

	previews := cache.NewPreviewCache(comps.cacheBackend, cfg.Pipeline.CacheTTL, logger)

	runnerConfig := task.DefaultTaskRunnerConfig()
	runnerConfig.WorkerCount = cfg.Pipeline.Workers
	runnerConfig.QueueSize = cfg.Pipeline.QueueSize
	taskRunner := task.NewTaskRunner(runnerConfig, logger)

	factory := task.NewQuestionPipelineTaskFactory(generator, reviewer, comps.rawQuestions, previews, logger)

	questionService, err := service.NewQuestionService(service.Dependencies{
		RawQuestions: comps.rawQuestions,
		Questions:    comps.questions,
		Stats:        comps.stats,
		Reviewer:     reviewer,
		Previews:     previews,
		TaskFactory:  factory,
		Runner:       taskRunner,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create question service: %w", err)
	}

	logger.Info("application initialized",
		"workers", runnerConfig.WorkerCount,
		"queue_size", runnerConfig.QueueSize)
	return &application{
		config:          cfg,
		logger:          logger,
		previews:        previews,
		taskRunner:      taskRunner,
		questionService: questionService,
	}, nil
}

// Run starts the task runner and serves HTTP until ctx is cancelled, then
// shuts everything down.
func (app *application) Run(ctx context.Context) error {
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	err := app.startHTTPServer(ctx, app.setupRouter())
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup drains in-flight pipelines and releases external resources.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout())
	defer cancel()

	if err := app.taskRunner.Stop(ctx); err != nil {
		app.logger.Error("task runner did not drain before shutdown timeout",
			"error", err,
			"pending", app.taskRunner.Pending())
	}

	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Error("error closing resource", "error", redact.Error(err))
		}
	}

	app.logger.Info("application shutdown completed")
}

func (app *application) shutdownTimeout() time.Duration {
	if app.config.Server.ShutdownTimeout > 0 {
		return app.config.Server.ShutdownTimeout
	}
	return 30 * time.Second
}
