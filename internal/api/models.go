package api

import (
	"time"

	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/service"
	"github.com/phrazzld/scry-mcq/internal/task"
)

// GenerateRequest is the body of POST /api/generations. Omitted optional
// fields take the server's configured defaults.
type GenerateRequest struct {
	SourceText string `json:"source_text" validate:"required"`
	Subject    string `json:"subject"`
	Topic      string `json:"topic"`
	KeyPoints  string `json:"key_points"`
	Exercises  string `json:"exercises"`
	BloomLevel string `json:"bloom_level"`
	Model      string `json:"model"`

	ItemCount      *int `json:"item_count,omitempty"`
	MaxIterations  *int `json:"max_iterations,omitempty"`
	MaxRounds      *int `json:"max_rounds,omitempty"`
	MaxConcurrency *int `json:"max_concurrency,omitempty"`
	RequestDelayMS *int `json:"request_delay_ms,omitempty"`
}

// toInput converts the request to service input.
func (r GenerateRequest) toInput() service.GenerateInput {
	in := service.GenerateInput{
		SourceText:     r.SourceText,
		Subject:        r.Subject,
		Topic:          r.Topic,
		KeyPoints:      r.KeyPoints,
		Exercises:      r.Exercises,
		BloomLevel:     domain.BloomLevel(r.BloomLevel),
		Model:          r.Model,
		ItemCount:      r.ItemCount,
		MaxIterations:  r.MaxIterations,
		MaxRounds:      r.MaxRounds,
		MaxConcurrency: r.MaxConcurrency,
	}
	if r.RequestDelayMS != nil {
		d := time.Duration(*r.RequestDelayMS) * time.Millisecond
		in.RequestDelay = &d
	}
	return in
}

// JobResponse is the body returned for an asynchronous generation job.
type JobResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func jobToResponse(rec task.Record) JobResponse {
	resp := JobResponse{
		ID:        rec.ID.String(),
		Status:    string(rec.Status),
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Status == task.TaskStatusCompleted {
		resp.RunID = rec.ResultID.String()
	}
	return resp
}
