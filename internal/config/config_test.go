package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/arbor/internal/core/observability/log"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, log.LevelInfo, cfg.Level())
	assert.Equal(t, 1<<20, cfg.Limits().MaxTokens)
	assert.Equal(t, 32, cfg.Limits().MaxIterations)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARBOR_ADDR", "127.0.0.1:9000")
	t.Setenv("ARBOR_LOG_LEVEL", "debug")
	t.Setenv("ARBOR_MAX_TOKENS", "5000")
	t.Setenv("ARBOR_PRESET_DIR", "/srv/presets")
	t.Setenv("ARBOR_SHUTDOWN_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, log.LevelDebug, cfg.Level())
	assert.Equal(t, 5000, cfg.MaxTokens)
	assert.Equal(t, "/srv/presets", cfg.PresetDir)
	assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ARBOR_LOG_LEVEL", "chatty")
	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadRejectsUnparsable(t *testing.T) {
	t.Setenv("ARBOR_MAX_TOKENS", "lots")
	_, err := Load()
	assert.Error(t, err)
}
