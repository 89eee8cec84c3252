package zaplog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesFieldsAndChildFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := Wrap(zap.New(core))

	child := logger.With(observability.String("request.id", "abc"))
	child.Warn(context.Background(), "receive failed",
		observability.Int("status", 502),
		observability.Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "receive failed", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "abc", ctx["request.id"])
	assert.EqualValues(t, 502, ctx["status"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(observability.LogLevelWarn, observability.LogFormatJSON, &buf)

	logger.Info(context.Background(), "hidden")
	logger.Error(context.Background(), "shown", observability.Duration("elapsed", 1500*time.Microsecond))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &decoded))
	assert.Equal(t, "shown", decoded["msg"])
	assert.Equal(t, "error", decoded["level"])
	assert.InDelta(t, 1.5, decoded["elapsed"], 0.0001)
}

func TestLevelMapping(t *testing.T) {
	tests := []struct {
		in   observability.LogLevel
		want zapcore.Level
	}{
		{observability.LogLevelDebug, zapcore.DebugLevel},
		{observability.LogLevelInfo, zapcore.InfoLevel},
		{observability.LogLevelWarn, zapcore.WarnLevel},
		{observability.LogLevelError, zapcore.ErrorLevel},
		{observability.LogLevel("verbose"), zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, Level(tt.in))
		})
	}
}

func TestProviderUsesNoopTracing(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewProvider(Wrap(zap.New(core)))

	ctx, span := p.Tracer().Start(context.Background(), "op")
	span.End()
	p.Metrics().Counter("c", "", "1").Increment(ctx)
	p.Logger().Info(ctx, "hello")

	assert.Equal(t, 1, logs.Len())
	assert.Empty(t, span.Context().TraceID())
}
