// Package zaplog adapts go.uber.org/zap to observability.Logger.
package zaplog

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"github.com/JailtonJunior94/httpsengine/pkg/observability/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes observability log entries through a zap.Logger.
type Logger struct {
	z *zap.Logger
}

// New builds a zap logger writing to w with the given level and format.
func New(level observability.LogLevel, format observability.LogFormat, w io.Writer) *Logger {
	var encoder zapcore.Encoder
	if format == observability.LogFormatText {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "time"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), Level(level))
	return &Logger{z: zap.New(core)}
}

// Wrap adapts an existing zap logger.
func Wrap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.z.Debug(msg, withTrace(ctx, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.z.Info(msg, withTrace(ctx, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.z.Warn(msg, withTrace(ctx, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.z.Error(msg, withTrace(ctx, fields)...)
}

func (l *Logger) With(fields ...observability.Field) observability.Logger {
	return &Logger{z: l.z.With(Fields(fields)...)}
}

func withTrace(ctx context.Context, fields []observability.Field) []zap.Field {
	out := Fields(fields)
	if ctx == nil {
		return out
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out = append(out,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return out
}

// Fields converts observability fields to zap fields.
func Fields(fields []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)
	for _, f := range fields {
		out = append(out, Field(f))
	}
	return out
}

// Field converts a single observability field.
func Field(f observability.Field) zap.Field {
	switch v := f.Value.(type) {
	case string:
		return zap.String(f.Key, v)
	case int:
		return zap.Int(f.Key, v)
	case int64:
		return zap.Int64(f.Key, v)
	case uint64:
		return zap.Uint64(f.Key, v)
	case float64:
		return zap.Float64(f.Key, v)
	case bool:
		return zap.Bool(f.Key, v)
	case time.Duration:
		return zap.Duration(f.Key, v)
	case error:
		return zap.String(f.Key, v.Error())
	case fmt.Stringer:
		return zap.Stringer(f.Key, v)
	default:
		return zap.Any(f.Key, v)
	}
}

// Level maps an observability level to a zap level.
func Level(level observability.LogLevel) zapcore.Level {
	switch level {
	case observability.LogLevelDebug:
		return zapcore.DebugLevel
	case observability.LogLevelWarn:
		return zapcore.WarnLevel
	case observability.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Provider pairs a zap logger with no-op tracing and metrics, for processes without a collector.
type Provider struct {
	logger *Logger
	noop   *noop.Provider
}

// NewProvider creates a logging-only provider.
func NewProvider(logger *Logger) *Provider {
	return &Provider{logger: logger, noop: noop.NewProvider()}
}

func (p *Provider) Tracer() observability.Tracer   { return p.noop.Tracer() }
func (p *Provider) Logger() observability.Logger   { return p.logger }
func (p *Provider) Metrics() observability.Metrics { return p.noop.Metrics() }
