package service

import (
	"testing"
	"time"

	"github.com/phrazzld/scry-mcq/internal/config"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsFromConfig(t *testing.T) {
	d := DefaultsFromConfig(
		config.LLMConfig{ModelName: "gemini-2.0-flash"},
		config.PipelineConfig{
			ItemCount:      5,
			BloomLevel:     "apply",
			MaxIterations:  2,
			MaxRounds:      4,
			MaxConcurrency: 3,
			RequestDelay:   5 * time.Second,
		},
	)

	assert.Equal(t, Defaults{
		Model:          "gemini-2.0-flash",
		ItemCount:      5,
		BloomLevel:     domain.BloomApply,
		MaxIterations:  2,
		MaxRounds:      4,
		MaxConcurrency: 3,
		RequestDelay:   5 * time.Second,
	}, d)
}

func TestDefaultsRequest(t *testing.T) {
	d := Defaults{
		Model:          "default-model",
		ItemCount:      5,
		BloomLevel:     domain.BloomRemember,
		MaxIterations:  2,
		MaxRounds:      3,
		MaxConcurrency: 3,
		RequestDelay:   time.Second,
	}

	t.Run("unset fields take defaults", func(t *testing.T) {
		req := d.Request(GenerateInput{SourceText: "src", Topic: "cells"})

		assert.Equal(t, "src", req.SourceText)
		assert.Equal(t, "cells", req.Topic)
		assert.Equal(t, "default-model", req.Model)
		assert.Equal(t, domain.BloomRemember, req.BloomLevel)
		assert.Equal(t, 5, req.ItemCount)
		assert.Equal(t, 2, req.MaxIterations)
		assert.Equal(t, 3, req.MaxRounds)
		assert.Equal(t, 3, req.MaxConcurrency)
		assert.Equal(t, time.Second, req.RequestDelay)
	})

	t.Run("explicit values win, including zero", func(t *testing.T) {
		zero, one := 0, 1
		delay := time.Duration(0)
		req := d.Request(GenerateInput{
			SourceText:     "src",
			Model:          "other",
			BloomLevel:     domain.BloomCreate,
			ItemCount:      &one,
			MaxIterations:  &zero,
			MaxRounds:      &zero,
			MaxConcurrency: &one,
			RequestDelay:   &delay,
		})

		assert.Equal(t, "other", req.Model)
		assert.Equal(t, domain.BloomCreate, req.BloomLevel)
		assert.Equal(t, 1, req.ItemCount)
		assert.Equal(t, 0, req.MaxIterations)
		assert.Equal(t, 0, req.MaxRounds)
		assert.Equal(t, 1, req.MaxConcurrency)
		assert.Equal(t, time.Duration(0), req.RequestDelay)
	})
}
