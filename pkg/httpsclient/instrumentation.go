package httpsclient

import (
	"context"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
)

// instrumentation holds the tracer and the metrics shared by every request.
// Metrics are created once per executor and are safe for concurrent use.
type instrumentation struct {
	tracer observability.Tracer

	requestCounter   observability.Counter
	errorCounter     observability.Counter
	latencyHistogram observability.Histogram
	bytesHistogram   observability.Histogram
	activeSessions   observability.UpDownCounter
}

// newInstrumentation creates the engine metrics:
//   - https.client.request.count: requests executed
//   - https.client.request.errors: failed requests, by error.kind
//   - https.client.request.duration: request duration in milliseconds
//   - https.client.response.bytes: body bytes received
//   - https.client.sessions.active: TLS session slots held
func newInstrumentation(tracer observability.Tracer, metrics observability.Metrics) *instrumentation {
	return &instrumentation{
		tracer: tracer,

		requestCounter: metrics.Counter(
			"https.client.request.count",
			"Total number of HTTPS requests",
			"{request}",
		),

		errorCounter: metrics.Counter(
			"https.client.request.errors",
			"Total number of failed HTTPS requests",
			"{error}",
		),

		latencyHistogram: metrics.Histogram(
			"https.client.request.duration",
			"Duration of HTTPS requests",
			"ms",
		),

		bytesHistogram: metrics.Histogram(
			"https.client.response.bytes",
			"Response body bytes received",
			"By",
		),

		activeSessions: metrics.UpDownCounter(
			"https.client.sessions.active",
			"TLS session slots currently held",
			"{session}",
		),
	}
}

// record closes the span and records metrics for one finished request.
// Metrics use context.Background() so canceled requests are still counted.
func (i *instrumentation) record(span observability.Span, req Request, resp *Response, err error, start time.Time) {
	metricsCtx := context.Background()
	attrs := []observability.Field{
		observability.String("http.method", req.Method()),
		observability.String("http.host", req.Host),
	}

	if resp != nil && resp.StatusCode != 0 {
		span.SetAttributes(observability.Int("http.status_code", resp.StatusCode))
		attrs = append(attrs, observability.Int("http.status_code", resp.StatusCode))
	}
	span.SetAttributes(observability.Int("http.response.bytes", resp.Len()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusCodeError, err.Error())

		errorAttrs := append(attrs,
			observability.String("error.kind", kindName(err)),
			observability.String("error.type", classifyError(err)),
		)
		i.errorCounter.Increment(metricsCtx, errorAttrs...)
	} else {
		span.SetStatus(observability.StatusCodeOK, "")
	}

	i.requestCounter.Increment(metricsCtx, attrs...)
	i.latencyHistogram.Record(metricsCtx, float64(time.Since(start).Milliseconds()), attrs...)
	if resp != nil {
		i.bytesHistogram.Record(metricsCtx, float64(resp.Len()), attrs...)
	}
}
