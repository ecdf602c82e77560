package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "QFORGE"

// ConfigPathEnv names an explicit config file to read.
const ConfigPathEnv = "QFORGE_CONFIG"

// defaults lists every key Load knows about. Viper only maps environment
// variables onto keys it has seen, so keys without a meaningful default are
// still registered here with a zero value.
var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.shutdown_timeout": "30s",

	"database.url":               "",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    25,
	"database.conn_max_lifetime": "5m",

	"redis.url":           "",
	"redis.dial_timeout":  "500ms",
	"redis.read_timeout":  "300ms",
	"redis.write_timeout": "300ms",

	"llm.generator.provider":    "openai",
	"llm.generator.name":        "deepseek",
	"llm.generator.api_key":     "",
	"llm.generator.base_url":    "https://api.deepseek.com",
	"llm.generator.model":       "deepseek-reasoner",
	"llm.generator.max_tokens":  4096,
	"llm.generator.temperature": 0.7,
	"llm.generator.timeout":     "30s",

	"llm.reviewer.provider":    "openai",
	"llm.reviewer.name":        "kimi",
	"llm.reviewer.api_key":     "",
	"llm.reviewer.base_url":    "https://api.moonshot.cn/v1",
	"llm.reviewer.model":       "kimi-thinking-preview",
	"llm.reviewer.max_tokens":  1024,
	"llm.reviewer.temperature": 0.3,
	"llm.reviewer.timeout":     "30s",

	"pipeline.max_retries":        2,
	"pipeline.retry_base_delay":   "1s",
	"pipeline.cache_ttl":          "300s",
	"pipeline.workers":            4,
	"pipeline.queue_size":         100,
	"pipeline.batch_concurrency":  3,
	"pipeline.batch_delay":        "1s",
	"pipeline.input_token_price":  0.00001,
	"pipeline.output_token_price": 0.00002,

	"rate_limit.general_per_minute":  30,
	"rate_limit.generate_per_minute": 3,
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the file. The file
// is QFORGE_CONFIG when set, otherwise config.yaml in the working directory
// if present.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv(ConfigPathEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
