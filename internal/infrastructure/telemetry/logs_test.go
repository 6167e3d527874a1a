package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	t.Run("telemetry off", func(t *testing.T) {
		provider, err := NewLoggerProvider(ctx, Config{LogsEnabled: true}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, provider.IsEnabled())
		assert.NoError(t, provider.ForceFlush(ctx))
		assert.NoError(t, provider.Shutdown(ctx))
	})

	t.Run("logs off", func(t *testing.T) {
		provider, err := NewLoggerProvider(ctx, Config{Enabled: true, CollectorEndpoint: "localhost:14317"}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, provider.IsEnabled())
	})
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	var nilProvider *LoggerProvider
	assert.False(t, NewZapOTELCore(nilProvider, "pdv", zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))

	provider, err := NewLoggerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, NewZapOTELCore(provider, "pdv", zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
}

func TestBridgeLogger(t *testing.T) {
	baseCore, baseLogs := observer.New(zapcore.InfoLevel)
	otelCore, otelLogs := observer.New(zapcore.WarnLevel)

	logger := BridgeLogger(zap.New(baseCore), otelCore)
	logger.Info("sale committed", zap.String("payment_method", "Pix"))
	logger.Warn("sale failed")
	logger.Debug("dropped")

	assert.Equal(t, 2, baseLogs.Len())
	require.Equal(t, 1, otelLogs.Len())
	assert.Equal(t, "sale failed", otelLogs.All()[0].Message)
}

func TestLevelFilterCore(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: observedCore, minLevel: zapcore.WarnLevel}

	assert.True(t, filtered.Enabled(zapcore.WarnLevel))
	assert.True(t, filtered.Enabled(zapcore.ErrorLevel))
	assert.False(t, filtered.Enabled(zapcore.InfoLevel))

	logger := zap.New(filtered)
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	logs := observedLogs.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "warn", logs[0].Message)
	assert.Equal(t, "error", logs[1].Message)
}

func TestLevelFilterCore_With(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: observedCore, minLevel: zapcore.WarnLevel}

	child := filtered.With([]zapcore.Field{zap.String("store_id", "42")})
	lf, ok := child.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, lf.minLevel)

	zap.New(child).Warn("backend unavailable")

	logs := observedLogs.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Context, zap.String("store_id", "42"))
}
