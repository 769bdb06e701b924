// Package config provides configuration management for the paper-scout service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the paper-scout service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Ingestion contains ingestion scheduler settings.
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	// Scoring contains scoring engine settings.
	Scoring ScoringConfig `mapstructure:"scoring"`
	// ArXiv contains arXiv fetch source settings.
	ArXiv ArXivConfig `mapstructure:"arxiv"`
	// LLM contains completion service settings for viability scoring.
	LLM LLMConfig `mapstructure:"llm"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8000).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum duration to keep idle connections open.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// StaticDir is the directory serving the bundled web UI.
	StaticDir string `mapstructure:"static_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// IngestionConfig holds ingestion scheduler settings.
type IngestionConfig struct {
	// Categories is the list of top-level arXiv categories to fetch.
	Categories []string `mapstructure:"categories"`
	// MaxLookbackDays bounds the fetch window when the watermark is stale or missing.
	MaxLookbackDays int `mapstructure:"max_lookback_days"`
	// ResultsDir is the directory holding snapshot files.
	ResultsDir string `mapstructure:"results_dir"`
	// WatermarkFile is the path of the last-update watermark file.
	WatermarkFile string `mapstructure:"watermark_file"`
	// Timeout is the wall-clock ceiling for a full ingestion run.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScoringConfig holds scoring engine settings.
type ScoringConfig struct {
	// DefaultLimit is the batch size used when the caller does not supply one.
	DefaultLimit int `mapstructure:"default_limit"`
	// RequestDelay is the fixed delay between completion calls.
	RequestDelay time.Duration `mapstructure:"request_delay"`
	// Timeout is the wall-clock ceiling for a full scoring run.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ArXivConfig holds arXiv fetch source settings.
type ArXivConfig struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// PageSize is the number of entries requested per API page.
	PageSize int `mapstructure:"page_size"`
	// MaxResults caps the entries fetched per category per run.
	MaxResults int `mapstructure:"max_results"`
}

// LLMConfig holds completion service settings.
type LLMConfig struct {
	// APIKey is the OpenAI API key (loaded from PAPERSCOUT_LLM_OPENAI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the model identifier used for scoring.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens limits the completion length.
	MaxTokens int `mapstructure:"max_tokens"`
	// Timeout is the timeout for completion calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for transient failures.
	MaxRetries int `mapstructure:"max_retries"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("PAPERSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paper-scout")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets are loaded exclusively from environment variables.
	// The field uses mapstructure:"-" to prevent loading from config files.
	cfg.LLM.APIKey = os.Getenv("PAPERSCOUT_LLM_OPENAI_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.static_dir", "static")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Ingestion defaults
	v.SetDefault("ingestion.categories", []string{"cs", "eess", "stat"})
	v.SetDefault("ingestion.max_lookback_days", 7)
	v.SetDefault("ingestion.results_dir", "results")
	v.SetDefault("ingestion.watermark_file", "last_update.txt")
	v.SetDefault("ingestion.timeout", "10m")

	// Scoring defaults
	v.SetDefault("scoring.default_limit", 5)
	v.SetDefault("scoring.request_delay", "500ms")
	v.SetDefault("scoring.timeout", "60m")

	// arXiv source defaults
	v.SetDefault("arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("arxiv.timeout", "30s")
	v.SetDefault("arxiv.rate_limit", 3.0) // arXiv recommends max 3 req/sec
	v.SetDefault("arxiv.burst_size", 3)
	v.SetDefault("arxiv.page_size", 100)
	v.SetDefault("arxiv.max_results", 2000)

	// LLM defaults
	// The API key is loaded exclusively from the environment (see Load).
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.max_tokens", 150)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if len(c.Ingestion.Categories) == 0 {
		return fmt.Errorf("at least one ingestion category is required")
	}
	if c.Ingestion.MaxLookbackDays <= 0 {
		return fmt.Errorf("ingestion max_lookback_days must be positive")
	}
	if c.Ingestion.ResultsDir == "" {
		return fmt.Errorf("ingestion results_dir is required")
	}
	if c.Ingestion.WatermarkFile == "" {
		return fmt.Errorf("ingestion watermark_file is required")
	}

	if c.Scoring.DefaultLimit <= 0 {
		return fmt.Errorf("scoring default_limit must be positive")
	}
	if c.Scoring.RequestDelay < 0 {
		return fmt.Errorf("scoring request_delay must not be negative")
	}

	if c.ArXiv.BaseURL == "" {
		return fmt.Errorf("arxiv base_url is required")
	}
	if c.ArXiv.RateLimit <= 0 {
		return fmt.Errorf("arxiv rate_limit must be positive")
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2")
	}

	return nil
}
