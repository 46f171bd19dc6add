package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-mcq/internal/api/shared"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/service"
	"github.com/phrazzld/scry-mcq/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerationService implements service.GenerationService with
// overridable functions.
type fakeGenerationService struct {
	GenerateFn func(ctx context.Context, in service.GenerateInput) (*domain.RunResult, error)
	SubmitFn   func(ctx context.Context, in service.GenerateInput) (task.Record, error)
	GetRunFn   func(ctx context.Context, id uuid.UUID) (*domain.RunResult, error)
	GetJobFn   func(ctx context.Context, id uuid.UUID) (task.Record, error)
}

var _ service.GenerationService = (*fakeGenerationService)(nil)

func (f *fakeGenerationService) Generate(ctx context.Context, in service.GenerateInput) (*domain.RunResult, error) {
	return f.GenerateFn(ctx, in)
}

func (f *fakeGenerationService) Submit(ctx context.Context, in service.GenerateInput) (task.Record, error) {
	return f.SubmitFn(ctx, in)
}

func (f *fakeGenerationService) GetRun(ctx context.Context, id uuid.UUID) (*domain.RunResult, error) {
	return f.GetRunFn(ctx, id)
}

func (f *fakeGenerationService) GetJob(ctx context.Context, id uuid.UUID) (task.Record, error) {
	return f.GetJobFn(ctx, id)
}

func newTestRouter(svc service.GenerationService) http.Handler {
	return NewRouter(RouterConfig{
		Generations: NewGenerationHandler(svc),
		Persistence: "memory",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func completedRun() *domain.RunResult {
	state := domain.NewRunState(domain.GenerationRequest{SourceText: "cells", ItemCount: 1})
	state.Stage = domain.StageComplete
	return state.Result()
}

func TestHealth(t *testing.T) {
	rr := doRequest(t, newTestRouter(&fakeGenerationService{}), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Persistence)
	assert.NotEmpty(t, rr.Header().Get("X-Trace-ID"))
}

func TestCreateGeneration(t *testing.T) {
	t.Run("synchronous run", func(t *testing.T) {
		run := completedRun()
		var seen service.GenerateInput
		svc := &fakeGenerationService{
			GenerateFn: func(ctx context.Context, in service.GenerateInput) (*domain.RunResult, error) {
				seen = in
				return run, nil
			},
		}

		rr := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/generations",
			`{"source_text":"cells","bloom_level":"apply","item_count":4,"max_iterations":0,"request_delay_ms":250}`)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, "/api/generations/"+run.ID.String(), rr.Header().Get("Location"))
		assert.Equal(t, domain.BloomApply, seen.BloomLevel)
		require.NotNil(t, seen.ItemCount)
		assert.Equal(t, 4, *seen.ItemCount)
		require.NotNil(t, seen.MaxIterations)
		assert.Equal(t, 0, *seen.MaxIterations)
		assert.Nil(t, seen.MaxRounds)
		require.NotNil(t, seen.RequestDelay)
		assert.Equal(t, 250*time.Millisecond, *seen.RequestDelay)

		var got domain.RunResult
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, run.ID, got.ID)
	})

	t.Run("asynchronous run", func(t *testing.T) {
		now := time.Now().UTC()
		rec := task.Record{
			ID:        uuid.New(),
			Type:      service.TaskTypeGeneration,
			Status:    task.TaskStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		svc := &fakeGenerationService{
			SubmitFn: func(ctx context.Context, in service.GenerateInput) (task.Record, error) {
				return rec, nil
			},
		}

		rr := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/generations?async=true",
			`{"source_text":"cells"}`)

		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, "/api/generations/jobs/"+rec.ID.String(), rr.Header().Get("Location"))
		var got JobResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, rec.ID.String(), got.ID)
		assert.Equal(t, "pending", got.Status)
		assert.Empty(t, got.RunID)
	})

	t.Run("missing source text", func(t *testing.T) {
		rr := doRequest(t, newTestRouter(&fakeGenerationService{}), http.MethodPost, "/api/generations",
			`{"subject":"biology"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr)
		assert.Equal(t, "Invalid SourceText: required field", resp.Error)
		assert.NotEmpty(t, resp.TraceID)
	})

	t.Run("unknown field", func(t *testing.T) {
		rr := doRequest(t, newTestRouter(&fakeGenerationService{}), http.MethodPost, "/api/generations",
			`{"source_text":"cells","temperature":0.2}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid request format", decodeError(t, rr).Error)
	})

	t.Run("service errors map to status codes", func(t *testing.T) {
		tests := []struct {
			name    string
			err     error
			status  int
			message string
		}{
			{"validation", fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidBloomLevel), http.StatusBadRequest, "Invalid BloomLevel: invalid value"},
			{"generation", fmt.Errorf("%w: boom", service.ErrGenerationFailed), http.StatusBadGateway, "Question generation failed"},
			{"persistence", fmt.Errorf("%w: boom", service.ErrPersistenceFailed), http.StatusInternalServerError, "Failed to store generation run"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := &fakeGenerationService{
					GenerateFn: func(ctx context.Context, in service.GenerateInput) (*domain.RunResult, error) {
						return nil, tt.err
					},
				}
				rr := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/generations", `{"source_text":"x"}`)
				assert.Equal(t, tt.status, rr.Code)
				assert.Equal(t, tt.message, decodeError(t, rr).Error)
			})
		}
	})

	t.Run("async without a runner", func(t *testing.T) {
		svc := &fakeGenerationService{
			SubmitFn: func(ctx context.Context, in service.GenerateInput) (task.Record, error) {
				return task.Record{}, service.ErrAsyncUnavailable
			},
		}
		rr := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/generations?async=1", `{"source_text":"x"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestGetGeneration(t *testing.T) {
	run := completedRun()
	svc := &fakeGenerationService{
		GetRunFn: func(ctx context.Context, id uuid.UUID) (*domain.RunResult, error) {
			if id == run.ID {
				return run, nil
			}
			return nil, service.ErrRunNotFound
		},
	}
	router := newTestRouter(svc)

	rr := doRequest(t, router, http.MethodGet, "/api/generations/"+run.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.RunResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, run.ID, got.ID)

	rr = doRequest(t, router, http.MethodGet, "/api/generations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Generation run not found", decodeError(t, rr).Error)

	rr = doRequest(t, router, http.MethodGet, "/api/generations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetJob(t *testing.T) {
	rec := task.Record{
		ID:       uuid.New(),
		Type:     service.TaskTypeGeneration,
		Status:   task.TaskStatusCompleted,
		ResultID: uuid.New(),
	}
	svc := &fakeGenerationService{
		GetJobFn: func(ctx context.Context, id uuid.UUID) (task.Record, error) {
			if id == rec.ID {
				return rec, nil
			}
			return task.Record{}, service.ErrJobNotFound
		},
	}
	router := newTestRouter(svc)

	rr := doRequest(t, router, http.MethodGet, "/api/generations/jobs/"+rec.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got JobResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, rec.ResultID.String(), got.RunID)

	rr = doRequest(t, router, http.MethodGet, "/api/generations/jobs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Generation job not found", decodeError(t, rr).Error)
}
