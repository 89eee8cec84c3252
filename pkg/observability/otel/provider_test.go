package otel

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type harness struct {
	provider *Provider
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
	console  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	console := &bytes.Buffer{}

	cfg := DefaultConfig("httpsengine-test")
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	lp := sdklog.NewLoggerProvider()

	p := newProvider(cfg, tp, mp, lp, console)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	return &harness{provider: p, spans: spans, reader: reader, console: console}
}

func TestTracerRecordsClientSpan(t *testing.T) {
	h := newHarness(t)

	ctx, span := h.provider.Tracer().Start(context.Background(), "https.client.request",
		observability.WithSpanKind(observability.SpanKindClient),
		observability.WithAttributes(observability.String("server.address", "example.com")),
	)
	span.AddEvent("step", observability.String("step", "resolve"))
	span.RecordError(errors.New("refused"))
	span.SetStatus(observability.StatusCodeError, "refused")
	span.End()

	assert.Equal(t, span.Context().TraceID(), h.provider.Tracer().SpanFromContext(ctx).Context().TraceID())

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "https.client.request", got.Name())
	assert.Equal(t, oteltrace.SpanKindClient, got.SpanKind())
	assert.Equal(t, codes.Error, got.Status().Code)
	require.Len(t, got.Attributes(), 1)
	assert.Equal(t, "example.com", got.Attributes()[0].Value.AsString())

	var names []string
	for _, e := range got.Events() {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "step")
	assert.Contains(t, names, "exception")
}

func TestMetricsExportCounterAndHistogram(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	m := h.provider.Metrics()
	m.Counter("https.client.request.count", "requests", "{request}").Increment(ctx, observability.String("outcome", "ok"))
	m.Histogram("https.client.request.duration", "latency", "ms").Record(ctx, 12.5)
	m.UpDownCounter("https.client.sessions.active", "sessions", "{session}").Add(ctx, 1)

	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	found := map[string]bool{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		found[metric.Name] = true
	}
	assert.True(t, found["https.client.request.count"])
	assert.True(t, found["https.client.request.duration"])
	assert.True(t, found["https.client.sessions.active"])
}

func TestLoggerWritesConsoleWithChildFields(t *testing.T) {
	h := newHarness(t)

	h.provider.Logger().With(observability.String("request.id", "r-1")).
		Info(context.Background(), "request complete", observability.Int("status", 200))

	out := h.console.String()
	assert.Contains(t, out, "request complete")
	assert.Contains(t, out, `"request.id":"r-1"`)
	assert.Contains(t, out, `"service":"httpsengine-test"`)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig("svc")
	cfg.Protocol = "http/protobuf"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)

	cfg = DefaultConfig("svc")
	cfg.Insecure = true
	cfg.Environment = "Production"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig("")
	assert.Error(t, cfg.Validate())
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1.5).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
