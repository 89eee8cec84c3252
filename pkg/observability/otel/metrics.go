package otel

import (
	"context"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type metrics struct {
	meter metric.Meter
}

// Counter falls back to a no-op instrument when the meter rejects the definition.
func (m *metrics) Counter(name, description, unit string) observability.Counter {
	c, err := m.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		c = noop.Int64Counter{}
	}
	return &counter{c: c}
}

func (m *metrics) Histogram(name, description, unit string) observability.Histogram {
	h, err := m.meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		h = noop.Float64Histogram{}
	}
	return &histogram{h: h}
}

func (m *metrics) UpDownCounter(name, description, unit string) observability.UpDownCounter {
	u, err := m.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		u = noop.Int64UpDownCounter{}
	}
	return &upDownCounter{u: u}
}

func (m *metrics) Gauge(name, description, unit string, callback observability.GaugeCallback) error {
	_, err := m.meter.Float64ObservableGauge(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			o.Observe(callback(ctx))
			return nil
		}),
	)
	return err
}

func measurementOptions(fields []observability.Field) []metric.AddOption {
	if attrs := toAttributes(fields); attrs != nil {
		return []metric.AddOption{metric.WithAttributes(attrs...)}
	}
	return nil
}

type counter struct {
	c metric.Int64Counter
}

func (c *counter) Add(ctx context.Context, value int64, fields ...observability.Field) {
	c.c.Add(ctx, value, measurementOptions(fields)...)
}

func (c *counter) Increment(ctx context.Context, fields ...observability.Field) {
	c.Add(ctx, 1, fields...)
}

type histogram struct {
	h metric.Float64Histogram
}

func (h *histogram) Record(ctx context.Context, value float64, fields ...observability.Field) {
	if attrs := toAttributes(fields); attrs != nil {
		h.h.Record(ctx, value, metric.WithAttributes(attrs...))
		return
	}
	h.h.Record(ctx, value)
}

type upDownCounter struct {
	u metric.Int64UpDownCounter
}

func (u *upDownCounter) Add(ctx context.Context, value int64, fields ...observability.Field) {
	u.u.Add(ctx, value, measurementOptions(fields)...)
}
