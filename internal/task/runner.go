package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// TaskTimeout bounds each task execution. Zero disables the bound.
	TaskTimeout time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 4,
		QueueSize:   100,
		TaskTimeout: 10 * time.Minute,
	}
}

// TaskRunner manages background task processing. Tasks live only in memory:
// a process restart loses whatever was queued.
type TaskRunner struct {
	queue  *TaskQueue
	pool   *WorkerPool
	logger *slog.Logger
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "task_runner")

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{
		WorkerCount: config.WorkerCount,
		TaskTimeout: config.TaskTimeout,
	}, logger)

	r := &TaskRunner{
		queue:  queue,
		pool:   pool,
		logger: logger,
	}
	pool.SetErrorHandler(r.defaultErrorHandler)
	return r
}

func (r *TaskRunner) defaultErrorHandler(task Task, err error) {
	r.logger.Error("task execution failed",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"error", err)
}

// SetErrorHandler allows setting a custom error handler function.
// It must be called before Start.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Submit adds a new task to the queue. It never blocks: a full queue yields
// ErrQueueFull and a stopped runner ErrQueueClosed.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.queue.Enqueue(task); err != nil {
		r.logger.WarnContext(ctx, "task rejected",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
		return fmt.Errorf("failed to submit task: %w", err)
	}
	return nil
}

// Start begins processing tasks
func (r *TaskRunner) Start() error {
	r.pool.Start()
	return nil
}

// Stop stops accepting tasks and waits for queued and running tasks to
// finish. If ctx ends first, running tasks are cancelled and ctx's error is
// returned.
func (r *TaskRunner) Stop(ctx context.Context) error {
	r.logger.Info("stopping task runner", "queued", r.queue.Len())
	r.queue.Close()
	return r.pool.Wait(ctx)
}

// Pending returns the number of queued tasks not yet picked up by a worker
func (r *TaskRunner) Pending() int {
	return r.queue.Len()
}
