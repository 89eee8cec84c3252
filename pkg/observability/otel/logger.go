package otel

import (
	"context"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"github.com/JailtonJunior94/httpsengine/pkg/observability/zaplog"
	otellog "go.opentelemetry.io/otel/log"
)

// logger writes every entry to the console through zap and emits it as an OTLP log record.
type logger struct {
	console observability.Logger
	emitter otellog.Logger
	level   observability.LogLevel
	fields  []observability.Field
}

func newLogger(console *zaplog.Logger, emitter otellog.Logger, level observability.LogLevel, serviceName string) *logger {
	return &logger{
		console: console.With(observability.String("service", serviceName)),
		emitter: emitter,
		level:   level,
		fields:  []observability.Field{observability.String("service", serviceName)},
	}
}

func (l *logger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.console.Debug(ctx, msg, fields...)
	l.emit(ctx, observability.LogLevelDebug, msg, fields)
}

func (l *logger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.console.Info(ctx, msg, fields...)
	l.emit(ctx, observability.LogLevelInfo, msg, fields)
}

func (l *logger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.console.Warn(ctx, msg, fields...)
	l.emit(ctx, observability.LogLevelWarn, msg, fields)
}

func (l *logger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.console.Error(ctx, msg, fields...)
	l.emit(ctx, observability.LogLevelError, msg, fields)
}

func (l *logger) With(fields ...observability.Field) observability.Logger {
	merged := make([]observability.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &logger{
		console: l.console.With(fields...),
		emitter: l.emitter,
		level:   l.level,
		fields:  merged,
	}
}

// emit drops entries below the configured level. Trace correlation is taken from ctx by the SDK.
func (l *logger) emit(ctx context.Context, level observability.LogLevel, msg string, fields []observability.Field) {
	if severity(level) < severity(l.level) {
		return
	}

	var record otellog.Record
	record.SetTimestamp(time.Now())
	record.SetBody(otellog.StringValue(msg))
	record.SetSeverity(severity(level))
	record.SetSeverityText(string(level))

	attrs := make([]otellog.KeyValue, 0, len(l.fields)+len(fields))
	for _, f := range l.fields {
		attrs = append(attrs, toLogKeyValue(f))
	}
	for _, f := range fields {
		attrs = append(attrs, toLogKeyValue(f))
	}
	record.AddAttributes(attrs...)

	l.emitter.Emit(ctx, record)
}

func severity(level observability.LogLevel) otellog.Severity {
	switch level {
	case observability.LogLevelDebug:
		return otellog.SeverityDebug
	case observability.LogLevelWarn:
		return otellog.SeverityWarn
	case observability.LogLevelError:
		return otellog.SeverityError
	default:
		return otellog.SeverityInfo
	}
}
