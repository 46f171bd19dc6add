package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-mcq/internal/api"
	"github.com/phrazzld/scry-mcq/internal/config"
	"github.com/phrazzld/scry-mcq/internal/events"
	"github.com/phrazzld/scry-mcq/internal/generation"
	"github.com/phrazzld/scry-mcq/internal/pipeline"
	"github.com/phrazzld/scry-mcq/internal/platform/gemini"
	"github.com/phrazzld/scry-mcq/internal/platform/postgres"
	"github.com/phrazzld/scry-mcq/internal/service"
	"github.com/phrazzld/scry-mcq/internal/store"
	"github.com/phrazzld/scry-mcq/internal/task"
)

// application holds the wired dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when no database is configured.
	db          *sql.DB
	runStore    store.RunStore
	persistence string

	emitter      *events.InMemoryEventEmitter
	orchestrator *pipeline.Orchestrator
	taskRunner   *task.TaskRunner
	service      service.GenerationService
}

// newApplication wires the server. The Gemini client is built from cfg.LLM.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	client, err := gemini.NewClient(ctx, logger.With("component", "gemini_client"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	return newApplicationWithClient(ctx, cfg, logger, client)
}

// newApplicationWithClient wires the server around an existing generation client.
func newApplicationWithClient(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	client generation.Client,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if err := app.setupStore(ctx); err != nil {
		return nil, err
	}

	engine, err := generation.NewEngine(client, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create generation engine: %w", err)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(events.NewLoggingHandler(logger))

	app.orchestrator, err = pipeline.NewOrchestrator(engine, engine, logger, pipeline.WithEmitter(app.emitter))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	jobs := task.NewMemoryTaskStore()
	app.taskRunner = task.NewTaskRunner(jobs, task.TaskRunnerConfig{
		WorkerCount: cfg.Jobs.WorkerCount,
		QueueSize:   cfg.Jobs.QueueSize,
	}, logger)

	opts := []service.Option{service.WithTaskRunner(app.taskRunner, jobs)}
	if app.db != nil {
		opts = append(opts, service.WithDB(app.db))
	}
	app.service, err = service.NewGenerationService(
		app.orchestrator,
		app.runStore,
		service.DefaultsFromConfig(cfg.LLM, cfg.Pipeline),
		logger,
		opts...,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	app.taskRunner.Start()
	logger.Info("application initialized", "persistence", app.persistence)
	return app, nil
}

// setupStore selects the run store: PostgreSQL when a database is
// configured, in-memory otherwise.
func (app *application) setupStore(ctx context.Context) error {
	if !app.config.Database.Enabled() {
		app.runStore = store.NewMemoryRunStore()
		app.persistence = "memory"
		app.logger.Warn("no database configured, generation runs are kept in memory")
		return nil
	}

	db, err := setupAppDatabase(ctx, app.config, app.logger)
	if err != nil {
		return err
	}
	if app.config.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, "up", app.logger); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app.db = db
	app.runStore = postgres.NewPostgresRunStore(db, app.logger)
	app.persistence = "postgres"
	return nil
}

// router builds the HTTP handler for the application.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Generations: api.NewGenerationHandler(app.service),
		Persistence: app.persistence,
		Logger:      app.logger,
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.router()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work and closes the database.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
