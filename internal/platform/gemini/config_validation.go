package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-mcq/internal/config"
	"github.com/phrazzld/scry-mcq/internal/generation"
)

// validateConfig checks the settings needed to reach the API.
// Out-of-range retry settings are not fatal; the client falls back to
// defaults for them.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		logger.ErrorContext(ctx, "missing Gemini API key")
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		logger.ErrorContext(ctx, "missing default model name")
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.MaxRetries < 0 {
		logger.WarnContext(ctx, "invalid max retries value, using default",
			"value", cfg.MaxRetries,
			"default", defaultMaxRetries)
	}

	if cfg.RetryDelaySeconds < 1 {
		logger.WarnContext(ctx, "invalid retry delay value, using default",
			"value", cfg.RetryDelaySeconds,
			"default", defaultRetryDelay)
	}

	return nil
}
