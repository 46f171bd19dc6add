package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/platform/logger"
	"github.com/phrazzld/scry-mcq/internal/store"
)

const (
	insertRunQuery = `
		INSERT INTO generation_runs (
			id, request, final_stage, total_context_iterations,
			total_question_iterations, started_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	insertContextQuery = `
		INSERT INTO generation_contexts (
			run_id, position, content, review_feedback, suggestions,
			approved, forced, iteration_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	insertQuestionQuery = `
		INSERT INTO generation_questions (
			run_id, position, source_context_index, question, review_feedback,
			suggestions, approved, forced, iteration_count, generation_error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	selectRunQuery = `
		SELECT id, request, final_stage, total_context_iterations,
			total_question_iterations, started_at, completed_at
		FROM generation_runs
		WHERE id = $1
	`

	selectContextsQuery = `
		SELECT content, review_feedback, suggestions, approved, forced, iteration_count
		FROM generation_contexts
		WHERE run_id = $1
		ORDER BY position
	`

	selectQuestionsQuery = `
		SELECT source_context_index, question, review_feedback, suggestions,
			approved, forced, iteration_count, generation_error
		FROM generation_questions
		WHERE run_id = $1
		ORDER BY position
	`
)

// PostgresRunStore implements store.RunStore on PostgreSQL.
type PostgresRunStore struct {
	db     store.DBTX
	sqlDB  *sql.DB
	logger *slog.Logger
}

var _ store.RunStore = (*PostgresRunStore)(nil)

// NewPostgresRunStore creates a run store on db, which may be a *sql.DB or
// a *sql.Tx. When db is a *sql.DB, SaveRun opens its own transaction.
// If logger is nil, a default logger will be used.
func NewPostgresRunStore(db store.DBTX, logger *slog.Logger) *PostgresRunStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	sqlDB, _ := db.(*sql.DB)
	return &PostgresRunStore{
		db:     db,
		sqlDB:  sqlDB,
		logger: logger.With(slog.String("component", "run_store")),
	}
}

// WithTx implements store.RunStore.
func (s *PostgresRunStore) WithTx(tx *sql.Tx) store.RunStore {
	return &PostgresRunStore{db: tx, logger: s.logger}
}

// SaveRun implements store.RunStore. The run row and every item row are
// written atomically.
func (s *PostgresRunStore) SaveRun(ctx context.Context, run *domain.RunResult) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("%w: run must have an id", store.ErrInvalidEntity)
	}

	if s.sqlDB != nil {
		return store.RunInTransaction(ctx, s.sqlDB, func(ctx context.Context, tx *sql.Tx) error {
			return s.insertRun(ctx, tx, run)
		})
	}
	return s.insertRun(ctx, s.db, run)
}

func (s *PostgresRunStore) insertRun(ctx context.Context, db store.DBTX, run *domain.RunResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("run_id", run.ID.String()))

	request, err := json.Marshal(run.Request)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %v", store.ErrInvalidEntity, err)
	}

	_, err = db.ExecContext(ctx, insertRunQuery,
		run.ID,
		request,
		string(run.FinalStage),
		run.TotalContextIterations,
		run.TotalQuestionIterations,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("generation run already stored")
		} else {
			log.Error("failed to insert generation run", slog.String("error", err.Error()))
		}
		return MapError(err)
	}

	for i, c := range run.Contexts {
		suggestions, err := encodeSuggestions(c.Suggestions)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx, insertContextQuery,
			run.ID, i, c.Content, c.ReviewFeedback, suggestions,
			c.Approved, c.Forced, c.IterationCount,
		)
		if err != nil {
			log.Error("failed to insert generation context",
				slog.Int("position", i),
				slog.String("error", err.Error()))
			return MapError(err)
		}
	}

	for i, q := range run.Questions {
		suggestions, err := encodeSuggestions(q.Suggestions)
		if err != nil {
			return err
		}
		var question any
		if q.HasPayload() {
			b, err := json.Marshal(q.Question)
			if err != nil {
				return fmt.Errorf("%w: failed to encode question %d: %v", store.ErrInvalidEntity, i, err)
			}
			question = b
		}
		_, err = db.ExecContext(ctx, insertQuestionQuery,
			run.ID, i, q.SourceContextIndex, question, q.ReviewFeedback,
			suggestions, q.Approved, q.Forced, q.IterationCount, q.GenerationError,
		)
		if err != nil {
			log.Error("failed to insert generation question",
				slog.Int("position", i),
				slog.String("error", err.Error()))
			return MapError(err)
		}
	}

	log.Info("generation run stored",
		slog.Int("contexts", len(run.Contexts)),
		slog.Int("questions", len(run.Questions)))
	return nil
}

// GetRun implements store.RunStore.
func (s *PostgresRunStore) GetRun(ctx context.Context, id uuid.UUID) (*domain.RunResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("run_id", id.String()))

	var (
		run     domain.RunResult
		request []byte
		stage   string
	)
	err := s.db.QueryRowContext(ctx, selectRunQuery, id).Scan(
		&run.ID,
		&request,
		&stage,
		&run.TotalContextIterations,
		&run.TotalQuestionIterations,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("generation run not found")
			return nil, store.ErrRunNotFound
		}
		log.Error("failed to load generation run", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	run.FinalStage = domain.Stage(stage)
	if err := json.Unmarshal(request, &run.Request); err != nil {
		return nil, fmt.Errorf("failed to decode stored request: %w", err)
	}

	if run.Contexts, err = s.loadContexts(ctx, id); err != nil {
		log.Error("failed to load generation contexts", slog.String("error", err.Error()))
		return nil, err
	}
	if run.Questions, err = s.loadQuestions(ctx, id); err != nil {
		log.Error("failed to load generation questions", slog.String("error", err.Error()))
		return nil, err
	}
	return &run, nil
}

func (s *PostgresRunStore) loadContexts(ctx context.Context, id uuid.UUID) ([]domain.ContextItem, error) {
	rows, err := s.db.QueryContext(ctx, selectContextsQuery, id)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.ContextItem{}
	for rows.Next() {
		var (
			c           domain.ContextItem
			suggestions []byte
		)
		if err := rows.Scan(&c.Content, &c.ReviewFeedback, &suggestions,
			&c.Approved, &c.Forced, &c.IterationCount); err != nil {
			return nil, MapError(err)
		}
		if c.Suggestions, err = decodeSuggestions(suggestions); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

func (s *PostgresRunStore) loadQuestions(ctx context.Context, id uuid.UUID) ([]domain.QuestionItem, error) {
	rows, err := s.db.QueryContext(ctx, selectQuestionsQuery, id)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.QuestionItem{}
	for rows.Next() {
		var (
			q           domain.QuestionItem
			question    []byte
			suggestions []byte
		)
		if err := rows.Scan(&q.SourceContextIndex, &question, &q.ReviewFeedback, &suggestions,
			&q.Approved, &q.Forced, &q.IterationCount, &q.GenerationError); err != nil {
			return nil, MapError(err)
		}
		if len(question) > 0 {
			if err := json.Unmarshal(question, &q.Question); err != nil {
				return nil, fmt.Errorf("failed to decode stored question: %w", err)
			}
		}
		if q.Suggestions, err = decodeSuggestions(suggestions); err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

func encodeSuggestions(s []string) ([]byte, error) {
	if s == nil {
		s = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode suggestions: %v", store.ErrInvalidEntity, err)
	}
	return b, nil
}

func decodeSuggestions(b []byte) ([]string, error) {
	out := []string{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode stored suggestions: %w", err)
	}
	return out, nil
}
