package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// GenerationRequest is the immutable input of one pipeline run.
// It is created once by the caller and never mutated by the pipeline.
type GenerationRequest struct {
	// SourceText is the raw material contexts are derived from.
	SourceText string `json:"source_text" validate:"required"`

	Subject   string `json:"subject"`
	Topic     string `json:"topic"`
	KeyPoints string `json:"key_points"`
	Exercises string `json:"exercises"`

	// BloomLevel is the taxonomy level targeted by every generated item.
	BloomLevel BloomLevel `json:"bloom_level"`

	// ItemCount is the number of contexts, and therefore questions, to produce.
	ItemCount int `json:"item_count" validate:"gt=0,lte=100"`

	// Model identifies the generative model to call.
	Model string `json:"model" validate:"required"`

	// MaxIterations caps how many times a single item may be refined.
	MaxIterations int `json:"max_iterations" validate:"gte=0,lte=20"`

	// MaxRounds caps the refine rounds of a stage. Zero means MaxIterations.
	MaxRounds int `json:"max_rounds" validate:"gte=0,lte=20"`

	// MaxConcurrency is the admission gate's concurrency ceiling.
	MaxConcurrency int `json:"max_concurrency" validate:"gt=0,lte=64"`

	// RequestDelay is the minimum spacing between two admissions.
	RequestDelay time.Duration `json:"request_delay"`
}

// Validate checks the request before any stage runs.
// Every returned error wraps ErrValidation.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.SourceText) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptySourceText)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !r.BloomLevel.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidBloomLevel, r.BloomLevel)
	}
	if r.RequestDelay < 0 {
		return fmt.Errorf("%w: request delay cannot be negative", ErrValidation)
	}
	return nil
}

// Rounds returns the effective refine-round budget of a stage.
func (r GenerationRequest) Rounds() int {
	if r.MaxRounds > 0 {
		return r.MaxRounds
	}
	return r.MaxIterations
}
