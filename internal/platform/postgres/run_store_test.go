package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nullArg matches a SQL NULL argument.
type nullArg struct{}

func (nullArg) Match(v driver.Value) bool { return v == nil }

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func sampleRun() *domain.RunResult {
	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	mcq := domain.MCQ{
		Stem: "What is 2+2?",
		Options: []domain.Option{
			{ID: "A", Text: "4", IsCorrect: true},
			{ID: "B", Text: "5"},
		},
		CorrectAnswerID: "A",
	}
	return &domain.RunResult{
		ID: uuid.New(),
		Request: domain.GenerationRequest{
			SourceText:     "arithmetic",
			BloomLevel:     domain.BloomRemember,
			ItemCount:      2,
			Model:          "gemini-2.0-flash",
			MaxIterations:  2,
			MaxConcurrency: 1,
		},
		Contexts: []domain.ContextItem{
			{Content: "ctx 0", Suggestions: []string{}, Approved: true},
			{Content: "ctx 1", Suggestions: []string{}, Approved: true, Forced: true, IterationCount: 2},
		},
		Questions: []domain.QuestionItem{
			domain.NewQuestionItem(0, mcq).ForceApproved(),
			domain.FailedQuestionItem(1, "generation failed: timeout"),
		},
		FinalStage:              domain.StageComplete,
		TotalContextIterations:  2,
		TotalQuestionIterations: 1,
		StartedAt:               started,
		CompletedAt:             started.Add(time.Minute),
	}
}

func expectInserts(mock sqlmock.Sqlmock, run *domain.RunResult) {
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_runs")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "complete", 2, 1, run.StartedAt, run.CompletedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i, c := range run.Contexts {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_contexts")).
			WithArgs(sqlmock.AnyArg(), i, c.Content, c.ReviewFeedback, []byte("[]"), c.Approved, c.Forced, c.IterationCount).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_questions")).
		WithArgs(sqlmock.AnyArg(), 0, 0, sqlmock.AnyArg(), "", []byte("[]"), true, true, 0, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_questions")).
		WithArgs(sqlmock.AnyArg(), 1, 1, nullArg{}, "", []byte("[]"), false, false, 0, "generation failed: timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestNewPostgresRunStore(t *testing.T) {
	assert.Panics(t, func() { NewPostgresRunStore(nil, nil) })

	db, _ := newMock(t)
	s := NewPostgresRunStore(db, nil)
	assert.NotNil(t, s.logger)
	assert.Same(t, db, s.sqlDB)
}

func TestPostgresRunStore_SaveRun(t *testing.T) {
	t.Run("writes run and items in one transaction", func(t *testing.T) {
		db, mock := newMock(t)
		run := sampleRun()

		mock.ExpectBegin()
		expectInserts(mock, run)
		mock.ExpectCommit()

		err := NewPostgresRunStore(db, nil).SaveRun(context.Background(), run)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("uses the caller transaction", func(t *testing.T) {
		db, mock := newMock(t)
		run := sampleRun()

		mock.ExpectBegin()
		expectInserts(mock, run)
		mock.ExpectCommit()

		tx, err := db.Begin()
		require.NoError(t, err)
		require.NoError(t, NewPostgresRunStore(db, nil).WithTx(tx).SaveRun(context.Background(), run))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		run := sampleRun()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_runs")).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
		mock.ExpectRollback()

		err := NewPostgresRunStore(db, nil).SaveRun(context.Background(), run)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("item failure rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		run := sampleRun()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_runs")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_contexts")).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := NewPostgresRunStore(db, nil).SaveRun(context.Background(), run)
		assert.EqualError(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a run without id", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostgresRunStore(db, nil)

		assert.ErrorIs(t, s.SaveRun(context.Background(), nil), store.ErrInvalidEntity)
		assert.ErrorIs(t, s.SaveRun(context.Background(), &domain.RunResult{}), store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRunStore_GetRun(t *testing.T) {
	t.Run("loads run and items in order", func(t *testing.T) {
		db, mock := newMock(t)
		run := sampleRun()
		request, err := json.Marshal(run.Request)
		require.NoError(t, err)
		question, err := json.Marshal(run.Questions[0].Question)
		require.NoError(t, err)

		mock.ExpectQuery(regexp.QuoteMeta("FROM generation_runs")).
			WithArgs(run.ID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "request", "final_stage", "total_context_iterations",
				"total_question_iterations", "started_at", "completed_at",
			}).AddRow(run.ID.String(), request, "complete", 2, 1, run.StartedAt, run.CompletedAt))
		mock.ExpectQuery(regexp.QuoteMeta("FROM generation_contexts")).
			WithArgs(run.ID).
			WillReturnRows(sqlmock.NewRows([]string{
				"content", "review_feedback", "suggestions", "approved", "forced", "iteration_count",
			}).
				AddRow("ctx 0", "", []byte("[]"), true, false, 0).
				AddRow("ctx 1", "", []byte(`["tighten"]`), true, true, 2))
		mock.ExpectQuery(regexp.QuoteMeta("FROM generation_questions")).
			WithArgs(run.ID).
			WillReturnRows(sqlmock.NewRows([]string{
				"source_context_index", "question", "review_feedback", "suggestions",
				"approved", "forced", "iteration_count", "generation_error",
			}).
				AddRow(0, question, "", []byte("[]"), true, true, 0, "").
				AddRow(1, nil, "", []byte("[]"), false, false, 0, "generation failed: timeout"))

		got, err := NewPostgresRunStore(db, nil).GetRun(context.Background(), run.ID)
		require.NoError(t, err)

		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, run.Request, got.Request)
		assert.Equal(t, domain.StageComplete, got.FinalStage)
		require.Len(t, got.Contexts, 2)
		assert.Equal(t, "ctx 1", got.Contexts[1].Content)
		assert.Equal(t, []string{"tighten"}, got.Contexts[1].Suggestions)
		require.Len(t, got.Questions, 2)
		assert.Equal(t, run.Questions[0].Question, got.Questions[0].Question)
		assert.True(t, got.Questions[0].HasPayload())
		assert.False(t, got.Questions[1].HasPayload())
		assert.Equal(t, []int{1}, got.FailedQuestions())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMock(t)
		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("FROM generation_runs")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		got, err := NewPostgresRunStore(db, nil).GetRun(context.Background(), id)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, store.ErrRunNotFound)
		assert.True(t, store.IsNotFoundError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
