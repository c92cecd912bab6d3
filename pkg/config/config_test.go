package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.OllamaBaseURL)
	assert.Equal(t, "llama3.1:70b", cfg.OllamaModel)
	assert.Equal(t, 20, cfg.NewCardsPerDay)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, cfg.PiperModelPath+".json", cfg.PiperConfigPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://127.0.0.1:9999/")
	t.Setenv("OLLAMA_MODEL", "llama3.1:8b")
	t.Setenv("NEW_CARDS_PER_DAY", "5")
	t.Setenv("APP_PORT", "8123")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	// Trailing slash is trimmed so URL joining stays predictable.
	assert.Equal(t, "http://127.0.0.1:9999", cfg.OllamaBaseURL)
	assert.Equal(t, "llama3.1:8b", cfg.OllamaModel)
	assert.Equal(t, 5, cfg.NewCardsPerDay)
	assert.Equal(t, 8123, cfg.AppPort)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadRejectsNegativeCap(t *testing.T) {
	t.Setenv("NEW_CARDS_PER_DAY", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	assert.Error(t, err)
}
