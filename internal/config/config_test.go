package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // ensure no config.yaml is picked up

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.HTTPAddress())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, []string{"cs", "eess", "stat"}, cfg.Ingestion.Categories)
	assert.Equal(t, 7, cfg.Ingestion.MaxLookbackDays)
	assert.Equal(t, "results", cfg.Ingestion.ResultsDir)
	assert.Equal(t, "last_update.txt", cfg.Ingestion.WatermarkFile)
	assert.Equal(t, 10*time.Minute, cfg.Ingestion.Timeout)

	assert.Equal(t, 5, cfg.Scoring.DefaultLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Scoring.RequestDelay)
	assert.Equal(t, time.Hour, cfg.Scoring.Timeout)

	assert.Equal(t, "https://export.arxiv.org/api", cfg.ArXiv.BaseURL)
	assert.InDelta(t, 3.0, cfg.ArXiv.RateLimit, 0.001)

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.5, cfg.LLM.Temperature, 0.001)
	assert.Equal(t, 150, cfg.LLM.MaxTokens)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAPERSCOUT_SERVER_HTTP_PORT", "9001")
	t.Setenv("PAPERSCOUT_LOGGING_LEVEL", "debug")
	t.Setenv("PAPERSCOUT_LLM_OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{HTTPPort: 8000},
			Logging: LoggingConfig{Level: "info"},
			Ingestion: IngestionConfig{
				Categories:      []string{"cs"},
				MaxLookbackDays: 7,
				ResultsDir:      "results",
				WatermarkFile:   "last_update.txt",
			},
			Scoring: ScoringConfig{DefaultLimit: 5},
			ArXiv:   ArXivConfig{BaseURL: "https://export.arxiv.org/api", RateLimit: 3},
			LLM:     LLMConfig{Model: "gpt-4o", Temperature: 0.5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid HTTP port"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"no categories", func(c *Config) { c.Ingestion.Categories = nil }, "category"},
		{"zero lookback", func(c *Config) { c.Ingestion.MaxLookbackDays = 0 }, "max_lookback_days"},
		{"no model", func(c *Config) { c.LLM.Model = "" }, "model"},
		{"bad temperature", func(c *Config) { c.LLM.Temperature = 3 }, "temperature"},
		{"bad rate limit", func(c *Config) { c.ArXiv.RateLimit = 0 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
