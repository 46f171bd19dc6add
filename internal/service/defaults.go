package service

import (
	"time"

	"github.com/phrazzld/scry-mcq/internal/config"
	"github.com/phrazzld/scry-mcq/internal/domain"
)

// GenerateInput is the caller-supplied part of a generation request.
// Nil or empty fields take the configured defaults; an explicit zero for
// MaxIterations or MaxRounds is kept.
type GenerateInput struct {
	SourceText string
	Subject    string
	Topic      string
	KeyPoints  string
	Exercises  string
	BloomLevel domain.BloomLevel
	Model      string

	ItemCount      *int
	MaxIterations  *int
	MaxRounds      *int
	MaxConcurrency *int
	RequestDelay   *time.Duration
}

// Defaults are the request values used when the caller leaves a field unset.
type Defaults struct {
	Model          string
	ItemCount      int
	BloomLevel     domain.BloomLevel
	MaxIterations  int
	MaxRounds      int
	MaxConcurrency int
	RequestDelay   time.Duration
}

// DefaultsFromConfig builds Defaults from the llm and pipeline sections.
func DefaultsFromConfig(llm config.LLMConfig, p config.PipelineConfig) Defaults {
	return Defaults{
		Model:          llm.ModelName,
		ItemCount:      p.ItemCount,
		BloomLevel:     domain.BloomLevel(p.BloomLevel),
		MaxIterations:  p.MaxIterations,
		MaxRounds:      p.MaxRounds,
		MaxConcurrency: p.MaxConcurrency,
		RequestDelay:   p.RequestDelay,
	}
}

// Request merges in with the defaults. The result is not validated.
func (d Defaults) Request(in GenerateInput) domain.GenerationRequest {
	req := domain.GenerationRequest{
		SourceText:     in.SourceText,
		Subject:        in.Subject,
		Topic:          in.Topic,
		KeyPoints:      in.KeyPoints,
		Exercises:      in.Exercises,
		BloomLevel:     in.BloomLevel,
		Model:          in.Model,
		ItemCount:      orDefault(in.ItemCount, d.ItemCount),
		MaxIterations:  orDefault(in.MaxIterations, d.MaxIterations),
		MaxRounds:      orDefault(in.MaxRounds, d.MaxRounds),
		MaxConcurrency: orDefault(in.MaxConcurrency, d.MaxConcurrency),
		RequestDelay:   orDefault(in.RequestDelay, d.RequestDelay),
	}
	if req.BloomLevel == "" {
		req.BloomLevel = d.BloomLevel
	}
	if req.Model == "" {
		req.Model = d.Model
	}
	return req
}

func orDefault[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
