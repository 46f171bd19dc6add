package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"

	"github.com/phrazzld/scry-mcq/internal/config"
	"github.com/phrazzld/scry-mcq/internal/generation"
	"github.com/phrazzld/scry-mcq/internal/redact"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 // seconds
	jitterPercent     = 50
)

// ErrNilLogger is returned when a client is created without a logger.
var ErrNilLogger = errors.New("logger cannot be nil")

// contentGenerator is the part of genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client implements generation.Client using the Gemini API. It is safe for
// concurrent use.
type Client struct {
	models       contentGenerator
	defaultModel string
	maxRetries   uint64
	retryBase    time.Duration
	logger       *slog.Logger
}

// NewClient validates cfg and connects to the Gemini API.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %s",
			generation.ErrInvalidConfig, redact.Error(err))
	}

	logger.InfoContext(ctx, "gemini client initialized", "model", cfg.ModelName)
	return newClient(client.Models, logger, cfg), nil
}

func newClient(models contentGenerator, logger *slog.Logger, cfg config.LLMConfig) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	delay := cfg.RetryDelaySeconds
	if delay < 1 {
		delay = defaultRetryDelay
	}
	return &Client{
		models:       models,
		defaultModel: cfg.ModelName,
		maxRetries:   uint64(maxRetries),
		retryBase:    time.Duration(delay) * time.Second,
		logger:       logger.With("component", "gemini_client"),
	}
}

// Generate implements generation.Client. Transient failures and
// undecodable responses are retried; safety blocks are not.
func (c *Client) Generate(ctx context.Context, req generation.Request, out any) error {
	schema, err := schemaFor(req.Shape)
	if err != nil {
		return err
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	contentConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	backoff := retry.WithMaxRetries(c.maxRetries,
		retry.WithJitterPercent(jitterPercent, retry.NewExponential(c.retryBase)))

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c.logger.DebugContext(ctx, "calling gemini",
			"model", model,
			"shape", req.Shape,
			"attempt", attempt)

		err := c.generateOnce(ctx, model, req.Instruction, contentConfig, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, generation.ErrContentBlocked) {
			return err
		}

		c.logger.WarnContext(ctx, "gemini call failed, will retry if attempts remain",
			"model", model,
			"shape", req.Shape,
			"attempt", attempt,
			"max_attempts", c.maxRetries+1,
			"error", redact.Error(err))
		return retry.RetryableError(err)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", generation.ErrTransientFailure, ctxErr)
		}
		return err
	}

	c.logger.DebugContext(ctx, "gemini call succeeded",
		"shape", req.Shape,
		"attempts", attempt)
	return nil
}

func (c *Client) generateOnce(
	ctx context.Context,
	model string,
	instruction string,
	contentConfig *genai.GenerateContentConfig,
	out any,
) error {
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(instruction), contentConfig)
	if err != nil {
		return fmt.Errorf("%w: %s", generation.ErrTransientFailure, redact.Error(err))
	}
	return decodeResponse(resp, out)
}
