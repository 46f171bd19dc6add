package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// Persistence is disabled when URL is empty.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`

	// AutoMigrate applies the embedded migrations on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}

// PipelineConfig holds the defaults applied to generation requests that
// leave a field unset.
type PipelineConfig struct {
	ItemCount      int           `mapstructure:"item_count" validate:"gt=0,lte=100"`
	BloomLevel     string        `mapstructure:"bloom_level" validate:"required"`
	MaxIterations  int           `mapstructure:"max_iterations" validate:"gte=0,lte=20"`
	MaxRounds      int           `mapstructure:"max_rounds" validate:"gte=0,lte=20"`
	MaxConcurrency int           `mapstructure:"max_concurrency" validate:"gt=0,lte=64"`
	RequestDelay   time.Duration `mapstructure:"request_delay" validate:"gte=0"`
}

// JobsConfig sizes the background runner used for asynchronous runs.
type JobsConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0,lte=32"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=0"`
}
