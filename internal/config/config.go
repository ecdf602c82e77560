package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// RedisConfig configures the preview cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string        `mapstructure:"url" validate:"omitempty,url"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" validate:"gte=0"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
}

// LLMConfig configures the two pipeline stages.
type LLMConfig struct {
	Generator ProviderConfig `mapstructure:"generator" validate:"required"`
	Reviewer  ProviderConfig `mapstructure:"reviewer" validate:"required"`
}

// ProviderConfig configures one chat model. Provider selects the client
// protocol; Name is the label recorded in the audit log.
type ProviderConfig struct {
	Provider    string        `mapstructure:"provider" validate:"required,oneof=openai gemini"`
	Name        string        `mapstructure:"name" validate:"required"`
	APIKey      string        `mapstructure:"api_key" validate:"required"`
	BaseURL     string        `mapstructure:"base_url" validate:"required_if=Provider openai"`
	Model       string        `mapstructure:"model" validate:"required"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gt=0"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// PipelineConfig tunes the generate/review pipeline and its task runner.
type PipelineConfig struct {
	MaxRetries       int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay" validate:"gte=0"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	Workers          int           `mapstructure:"workers" validate:"gt=0"`
	QueueSize        int           `mapstructure:"queue_size" validate:"gt=0"`
	BatchConcurrency int           `mapstructure:"batch_concurrency" validate:"gt=0"`
	BatchDelay       time.Duration `mapstructure:"batch_delay" validate:"gte=0"`
	InputTokenPrice  float64       `mapstructure:"input_token_price" validate:"gte=0"`
	OutputTokenPrice float64       `mapstructure:"output_token_price" validate:"gte=0"`
}

// RateLimitConfig sets per-client-IP request limits. Zero disables a limit.
type RateLimitConfig struct {
	GeneralPerMinute  int `mapstructure:"general_per_minute" validate:"gte=0"`
	GeneratePerMinute int `mapstructure:"generate_per_minute" validate:"gte=0"`
}
