package log

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal} {
		got, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	got, err := ParseLevel(" WARNING ")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, got)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core), LevelInfo)

	l.Debug("hidden")
	l.With(String("preset", "shrub")).Info("generated",
		Int("vertices", 12),
		Uint64("hash", 7),
		Strings("tokens", []string{"Continue", "Leaf"}),
		Error(errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "shrub", ctx["preset"])
	assert.Equal(t, int64(12), ctx["vertices"])
	assert.Equal(t, uint64(7), ctx["hash"])
	assert.Equal(t, "boom", ctx["error"])

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())
	l.Debug("visible")
	assert.Equal(t, 2, logs.Len())
}

func TestWithContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core), LevelInfo)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	l.WithContext(ctx).Info("hello")
	l.WithContext(context.Background()).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestProvideFallsBackToNop(t *testing.T) {
	assert.NotNil(t, Provide())
	NewNop().Info("discarded")
}
