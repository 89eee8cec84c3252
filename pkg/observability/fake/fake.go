// Package fake provides an observability provider that records everything for test assertions.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
)

// Provider captures spans, log entries and metric values.
type Provider struct {
	tracer  *FakeTracer
	logger  *FakeLogger
	metrics *FakeMetrics
}

// NewProvider creates a recording provider.
func NewProvider() *Provider {
	return &Provider{
		tracer:  newTracer(),
		logger:  newLogger(),
		metrics: newMetrics(),
	}
}

func (p *Provider) Tracer() observability.Tracer {
	return p.tracer
}

func (p *Provider) Logger() observability.Logger {
	return p.logger
}

func (p *Provider) Metrics() observability.Metrics {
	return p.metrics
}

// FakeTracer records every started span.
type FakeTracer struct {
	mu    sync.RWMutex
	spans []*FakeSpan
}

func newTracer() *FakeTracer {
	return &FakeTracer{}
}

// Start records a new span.
func (t *FakeTracer) Start(ctx context.Context, spanName string, opts ...observability.SpanOption) (context.Context, observability.Span) {
	cfg := observability.NewSpanConfig(opts)
	span := &FakeSpan{
		Name:       spanName,
		Kind:       cfg.Kind(),
		StartTime:  time.Now(),
		Attributes: append([]observability.Field(nil), cfg.Attributes()...),
	}

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()

	return ctx, span
}

// SpanFromContext returns a detached span.
func (t *FakeTracer) SpanFromContext(ctx context.Context) observability.Span {
	return &FakeSpan{}
}

// ContextWithSpan returns ctx unchanged.
func (t *FakeTracer) ContextWithSpan(ctx context.Context, span observability.Span) context.Context {
	return ctx
}

// GetSpans returns a snapshot of the recorded spans.
func (t *FakeTracer) GetSpans() []*FakeSpan {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*FakeSpan(nil), t.spans...)
}

// FakeSpan records span operations.
type FakeSpan struct {
	mu          sync.RWMutex
	Name        string
	Kind        observability.SpanKind
	StartTime   time.Time
	EndTime     *time.Time
	Attributes  []observability.Field
	Events      []FakeEvent
	Status      observability.StatusCode
	StatusDesc  string
	RecordedErr error
}

// FakeEvent is a recorded span event.
type FakeEvent struct {
	Name   string
	Fields []observability.Field
}

func (s *FakeSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
}

func (s *FakeSpan) SetAttributes(fields ...observability.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Attributes = append(s.Attributes, fields...)
}

func (s *FakeSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = code
	s.StatusDesc = description
}

func (s *FakeSpan) RecordError(err error, fields ...observability.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecordedErr = err
	s.Attributes = append(s.Attributes, fields...)
}

func (s *FakeSpan) AddEvent(name string, fields ...observability.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, FakeEvent{Name: name, Fields: fields})
}

func (s *FakeSpan) Context() observability.SpanContext {
	return spanContext{}
}

// Attribute returns the last value recorded for key.
func (s *FakeSpan) Attribute(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.Attributes) - 1; i >= 0; i-- {
		if s.Attributes[i].Key == key {
			return s.Attributes[i].Value, true
		}
	}
	return nil, false
}

// EventNames returns the recorded event names in order.
func (s *FakeSpan) EventNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		names = append(names, e.Name)
	}
	return names
}

type spanContext struct{}

func (spanContext) TraceID() string { return "fake-trace-id" }
func (spanContext) SpanID() string  { return "fake-span-id" }
func (spanContext) IsSampled() bool { return true }

// LogEntry is a captured log entry.
type LogEntry struct {
	Level   observability.LogLevel
	Message string
	Fields  []observability.Field
}

// Field returns the value recorded for key.
func (e LogEntry) Field(key string) (any, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value, true
		}
	}
	return nil, false
}

// FakeLogger records log entries. Children created by With share the entry list.
type FakeLogger struct {
	mu      *sync.RWMutex
	entries *[]LogEntry
	fields  []observability.Field
}

func newLogger() *FakeLogger {
	entries := make([]LogEntry, 0)
	return &FakeLogger{mu: &sync.RWMutex{}, entries: &entries}
}

func (l *FakeLogger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelDebug, msg, fields)
}

func (l *FakeLogger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelInfo, msg, fields)
}

func (l *FakeLogger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelWarn, msg, fields)
}

func (l *FakeLogger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelError, msg, fields)
}

func (l *FakeLogger) record(level observability.LogLevel, msg string, fields []observability.Field) {
	all := make([]observability.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, LogEntry{Level: level, Message: msg, Fields: all})
}

// With returns a child logger sharing the same entry list.
func (l *FakeLogger) With(fields ...observability.Field) observability.Logger {
	child := make([]observability.Field, 0, len(l.fields)+len(fields))
	child = append(child, l.fields...)
	child = append(child, fields...)
	return &FakeLogger{mu: l.mu, entries: l.entries, fields: child}
}

func (l *FakeLogger) snapshot() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]LogEntry(nil), *l.entries...)
}

// EntriesAt returns the captured entries with the given level.
func (l *FakeLogger) EntriesAt(level observability.LogLevel) []LogEntry {
	var out []LogEntry
	for _, e := range l.snapshot() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// FakeMetrics records instrument values by name.
type FakeMetrics struct {
	mu         sync.RWMutex
	counters   map[string]*FakeCounter
	histograms map[string]*FakeHistogram
	upDowns    map[string]*FakeCounter
}

func newMetrics() *FakeMetrics {
	return &FakeMetrics{
		counters:   make(map[string]*FakeCounter),
		histograms: make(map[string]*FakeHistogram),
		upDowns:    make(map[string]*FakeCounter),
	}
}

func (m *FakeMetrics) Counter(name, description, unit string) observability.Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}
	c := &FakeCounter{Name: name, Unit: unit}
	m.counters[name] = c
	return c
}

func (m *FakeMetrics) Histogram(name, description, unit string) observability.Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.histograms[name]; ok {
		return h
	}
	h := &FakeHistogram{Name: name, Unit: unit}
	m.histograms[name] = h
	return h
}

func (m *FakeMetrics) UpDownCounter(name, description, unit string) observability.UpDownCounter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.upDowns[name]; ok {
		return u
	}
	u := &FakeCounter{Name: name, Unit: unit}
	m.upDowns[name] = u
	return u
}

// Gauge is not recorded.
func (m *FakeMetrics) Gauge(name, description, unit string, callback observability.GaugeCallback) error {
	return nil
}

// GetCounter returns the counter registered under name, or nil.
func (m *FakeMetrics) GetCounter(name string) *FakeCounter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[name]
}

// GetHistogram returns the histogram registered under name, or nil.
func (m *FakeMetrics) GetHistogram(name string) *FakeHistogram {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.histograms[name]
}

// GetUpDownCounter returns the up-down counter registered under name, or nil.
func (m *FakeMetrics) GetUpDownCounter(name string) *FakeCounter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.upDowns[name]
}

// CounterValue is one recorded Add.
type CounterValue struct {
	Value  int64
	Fields []observability.Field
}

// FakeCounter records counter and up-down counter values.
type FakeCounter struct {
	mu     sync.RWMutex
	Name   string
	Unit   string
	values []CounterValue
}

func (c *FakeCounter) Add(ctx context.Context, value int64, fields ...observability.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, CounterValue{Value: value, Fields: fields})
}

func (c *FakeCounter) Increment(ctx context.Context, fields ...observability.Field) {
	c.Add(ctx, 1, fields...)
}

// GetValues returns a snapshot of the recorded values.
func (c *FakeCounter) GetValues() []CounterValue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]CounterValue(nil), c.values...)
}

// Sum adds up every recorded value.
func (c *FakeCounter) Sum() int64 {
	var total int64
	for _, v := range c.GetValues() {
		total += v.Value
	}
	return total
}

// FakeHistogram records histogram values.
type FakeHistogram struct {
	mu     sync.RWMutex
	Name   string
	Unit   string
	values []float64
}

func (h *FakeHistogram) Record(ctx context.Context, value float64, fields ...observability.Field) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, value)
}

// GetValues returns a snapshot of the recorded values.
func (h *FakeHistogram) GetValues() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]float64(nil), h.values...)
}
