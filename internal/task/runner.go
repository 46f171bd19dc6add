package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/scry-mcq/internal/redact"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many tasks execute at once.
	// If zero or negative, defaults to 1.
	WorkerCount int

	// QueueSize is the number of submitted tasks that may wait for a worker.
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// TaskRunner executes submitted tasks on a fixed set of workers and keeps
// their records current in a TaskStore.
type TaskRunner struct {
	store      TaskStore
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "task_runner")

	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {},
	}
}

// SetErrorHandler sets a function called after a task fails.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit records the task as pending and queues it without blocking.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRunnerStopped
	}
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.taskChan <- task:
		r.logger.Debug("task submitted",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"queue_len", len(r.taskChan))
		return nil
	default:
		err := fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(r.taskChan))
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			r.logger.Error("failed to mark rejected task", "task_id", task.ID(), "error", updateErr)
		}
		return err
	}
}

// Start launches the workers. Calling Start more than once has no effect.
func (r *TaskRunner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true

	r.logger.Info("starting task runner",
		"worker_count", r.config.WorkerCount,
		"queue_size", r.config.QueueSize)
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Stop cancels running tasks, waits for the workers to exit and marks
// every task still queued as failed.
func (r *TaskRunner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.cancelFunc()
	r.wg.Wait()

	for {
		select {
		case task := <-r.taskChan:
			if err := r.store.UpdateTaskStatus(context.Background(), task.ID(), TaskStatusFailed, ErrRunnerStopped.Error()); err != nil {
				r.logger.Error("failed to mark abandoned task", "task_id", task.ID(), "error", err)
			}
		default:
			r.logger.Info("task runner stopped")
			return
		}
	}
}

func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)
	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return
		case task := <-r.taskChan:
			r.processTask(task, id)
		}
	}
}

func (r *TaskRunner) processTask(task Task, workerID int) {
	ctx := r.ctx
	log := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if ctx.Err() != nil {
		if err := r.store.UpdateTaskStatus(context.Background(), task.ID(), TaskStatusFailed, ErrRunnerStopped.Error()); err != nil {
			log.Error("failed to mark abandoned task", "error", err)
		}
		return
	}

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to update task status to processing", "error", err)
		return
	}

	log.Info("processing task")
	if err := task.Execute(ctx); err != nil {
		msg := redact.Error(err)
		log.Error("task execution failed", "error", msg)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, msg); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)
		return
	}

	if rr, ok := task.(ResultReporter); ok {
		if err := r.store.SetResult(ctx, task.ID(), rr.ResultID()); err != nil {
			log.Error("failed to record task result", "error", err)
		}
	}
	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); err != nil {
		log.Error("failed to update task status to completed", "error", err)
	}
	log.Info("task completed successfully")
}
