package log

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return New(level, Options{Core: core}), logs
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, logs := observed(LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown")
	assert.Equal(t, 2, logs.Len())

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())
	logger.Debug("now shown")
	assert.Equal(t, 3, logs.Len())
}

func TestLogger_Fields(t *testing.T) {
	logger, logs := observed(LevelDebug)

	logger.Info("decoded",
		String("type", "i64"),
		Int("bytes", 3),
		Hex("payload", []byte{0xFE, 0xE8, 0x03}),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "i64", ctx["type"])
	assert.Equal(t, int64(3), ctx["bytes"])
	assert.Equal(t, "fee803", ctx["payload"])
	assert.Equal(t, 1500*time.Millisecond, ctx["took"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLogger_WithContext(t *testing.T) {
	logger, logs := observed(LevelDebug)

	ctx := ContextWithFields(context.Background(), String("conn_id", "abc"))
	logger.WithContext(ctx).Info("message")
	logger.WithContext(context.Background()).Info("plain")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["conn_id"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "conn_id")
}

func TestLogger_WithSharesLevel(t *testing.T) {
	logger, logs := observed(LevelError)
	child := logger.With(String("component", "ws"))

	child.Info("hidden")
	logger.SetLevel(LevelInfo)
	child.Info("shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ws", logs.All()[0].ContextMap()["component"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug,
		"":      LevelInfo,
		"INFO":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("dropped", String("k", "v"))
	})
}
