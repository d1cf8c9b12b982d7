package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("ALERT_SOURCE", "file")

	cfg := Load()

	assert.Equal(t, "llama3.2", cfg.Ai.LLMModel)
	assert.Equal(t, 7000, cfg.Ai.MaxHistoryTokens)
	assert.Equal(t, 30*time.Second, cfg.Assistant.SilenceTimeout)
	assert.Equal(t, 50*time.Second, cfg.Assistant.CheckupTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Assistant.PollInterval)
	assert.Equal(t, "data/driver_alert.json", cfg.Alert.FilePath)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SILENCE_TIMEOUT_MS", "1500")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("WAKE_WORD", "hello car")

	cfg := Load()

	assert.Equal(t, 1500*time.Millisecond, cfg.Assistant.SilenceTimeout)
	assert.True(t, cfg.App.OtelEnabled)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "hello car", cfg.Assistant.WakeWord)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SILENCE_TIMEOUT_MS", "soon")
	t.Setenv("BROWSER_HEADLESS", "maybe")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.Assistant.SilenceTimeout)
	assert.False(t, cfg.Browser.Headless)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"groq without key", func(c *Config) { c.Ai.LLMProvider = "groq"; c.Keys.Groq = "" }, "GROQ_API_KEY"},
		{"gemini without key", func(c *Config) { c.Ai.LLMProvider = "gemini"; c.Keys.GoogleGemini = "" }, "GOOGLE_GEMINI_API_KEY"},
		{"unknown provider", func(c *Config) { c.Ai.LLMProvider = "gpt" }, "unknown LLM_PROVIDER"},
		{"http without url", func(c *Config) { c.Alert.Source = "http"; c.Alert.URL = "" }, "ALERT_URL"},
		{"nats without url", func(c *Config) { c.Alert.Source = "nats"; c.App.NatsURL = "" }, "NATS_URL"},
		{"zero history budget", func(c *Config) { c.Ai.MaxHistoryTokens = 0 }, "MAX_HISTORY_TOKENS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			cfg.Ai.LLMProvider = "ollama"
			cfg.Alert.Source = "file"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
