package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/platform/logger"
	"github.com/phrazzld/scry-mcq/internal/store"
	"github.com/phrazzld/scry-mcq/internal/task"
)

// TaskTypeGeneration is the task type of an asynchronous generation run.
const TaskTypeGeneration = "generation_run"

// Pipeline runs one generation request to completion.
type Pipeline interface {
	Run(ctx context.Context, req domain.GenerationRequest) (*domain.RunResult, error)
}

// TaskRunner accepts background tasks.
type TaskRunner interface {
	Submit(ctx context.Context, task task.Task) error
}

// GenerationService runs generation requests and keeps their results.
type GenerationService interface {
	// Generate runs the pipeline for in, stores the result and returns it.
	// Returns an error wrapping domain.ErrValidation for an invalid request.
	Generate(ctx context.Context, in GenerateInput) (*domain.RunResult, error)

	// Submit validates in and queues it as a background job.
	// Returns ErrAsyncUnavailable if no runner is configured.
	Submit(ctx context.Context, in GenerateInput) (task.Record, error)

	// GetRun returns a stored run, or ErrRunNotFound.
	GetRun(ctx context.Context, id uuid.UUID) (*domain.RunResult, error)

	// GetJob returns the record of a background job, or ErrJobNotFound.
	GetJob(ctx context.Context, id uuid.UUID) (task.Record, error)
}

// Option configures optional collaborators of the service.
type Option func(*generationServiceImpl)

// WithDB makes the service save runs inside a transaction on db.
func WithDB(db *sql.DB) Option {
	return func(s *generationServiceImpl) {
		s.db = db
	}
}

// WithTaskRunner enables Submit. jobs must be the store the runner updates.
func WithTaskRunner(runner TaskRunner, jobs task.TaskStore) Option {
	return func(s *generationServiceImpl) {
		s.runner = runner
		s.jobs = jobs
	}
}

type generationServiceImpl struct {
	pipeline Pipeline
	runs     store.RunStore
	defaults Defaults
	db       *sql.DB
	runner   TaskRunner
	jobs     task.TaskStore
	logger   *slog.Logger
}

var _ GenerationService = (*generationServiceImpl)(nil)

// NewGenerationService creates a GenerationService.
// It returns an error if any of the required dependencies are nil.
func NewGenerationService(
	pipeline Pipeline,
	runs store.RunStore,
	defaults Defaults,
	logger *slog.Logger,
	opts ...Option,
) (GenerationService, error) {
	if pipeline == nil {
		return nil, ErrNilPipeline
	}
	if runs == nil {
		return nil, ErrNilRunStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	s := &generationServiceImpl{
		pipeline: pipeline,
		runs:     runs,
		defaults: defaults,
		logger:   logger.With("component", "generation_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner != nil && s.jobs == nil {
		return nil, errors.New("task store cannot be nil when a task runner is set")
	}
	return s, nil
}

// Generate implements GenerationService.
func (s *generationServiceImpl) Generate(ctx context.Context, in GenerateInput) (*domain.RunResult, error) {
	req := s.defaults.Request(in)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, req)
}

func (s *generationServiceImpl) run(ctx context.Context, req domain.GenerationRequest) (*domain.RunResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.pipeline.Run(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		log.Error("generation run aborted", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if err := s.save(ctx, result); err != nil {
		log.Error("failed to store generation run",
			"run_id", result.ID,
			"error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	forcedContexts, forcedQuestions := result.ForcedCount()
	log.Info("generation run stored",
		"run_id", result.ID,
		"contexts", len(result.Contexts),
		"questions", len(result.Questions),
		"failed_questions", len(result.FailedQuestions()),
		"forced_contexts", forcedContexts,
		"forced_questions", forcedQuestions)
	return result, nil
}

func (s *generationServiceImpl) save(ctx context.Context, result *domain.RunResult) error {
	if s.db == nil {
		return s.runs.SaveRun(ctx, result)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.runs.WithTx(tx).SaveRun(ctx, result)
	})
}

// Submit implements GenerationService.
func (s *generationServiceImpl) Submit(ctx context.Context, in GenerateInput) (task.Record, error) {
	if s.runner == nil {
		return task.Record{}, ErrAsyncUnavailable
	}
	req := s.defaults.Request(in)
	if err := req.Validate(); err != nil {
		return task.Record{}, err
	}

	t := &generationTask{id: uuid.New(), req: req, service: s}
	if err := s.runner.Submit(ctx, t); err != nil {
		return task.Record{}, NewGenerationServiceError("submit", "failed to queue generation job", err)
	}

	rec, err := s.jobs.GetTask(ctx, t.id)
	if err != nil {
		return task.Record{}, NewGenerationServiceError("submit", "failed to read job record", err)
	}
	s.logger.Info("generation job queued", "job_id", t.id)
	return rec, nil
}

// GetRun implements GenerationService.
func (s *generationServiceImpl) GetRun(ctx context.Context, id uuid.UUID) (*domain.RunResult, error) {
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, NewGenerationServiceError("get_run", "failed to load generation run", err)
	}
	return run, nil
}

// GetJob implements GenerationService.
func (s *generationServiceImpl) GetJob(ctx context.Context, id uuid.UUID) (task.Record, error) {
	if s.jobs == nil {
		return task.Record{}, ErrJobNotFound
	}
	rec, err := s.jobs.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			return task.Record{}, ErrJobNotFound
		}
		return task.Record{}, NewGenerationServiceError("get_job", "failed to load job record", err)
	}
	return rec, nil
}

// generationTask runs one validated request in the background.
type generationTask struct {
	id       uuid.UUID
	req      domain.GenerationRequest
	service  *generationServiceImpl
	resultID uuid.UUID
}

var (
	_ task.Task           = (*generationTask)(nil)
	_ task.ResultReporter = (*generationTask)(nil)
)

func (t *generationTask) ID() uuid.UUID {
	return t.id
}

func (t *generationTask) Type() string {
	return TaskTypeGeneration
}

func (t *generationTask) Execute(ctx context.Context) error {
	ctx = logger.WithLogger(ctx, t.service.logger.With("job_id", t.id))
	result, err := t.service.run(ctx, t.req)
	if err != nil {
		return err
	}
	t.resultID = result.ID
	return nil
}

// ResultID returns the ID of the stored run once Execute has succeeded.
func (t *generationTask) ResultID() uuid.UUID {
	return t.resultID
}
