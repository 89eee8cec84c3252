package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LogLevelDebug},
		{" DEBUG ", LogLevelDebug},
		{"warn", LogLevelWarn},
		{"Warning", LogLevelWarn},
		{"error", LogLevelError},
		{"info", LogLevelInfo},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.input), "input %q", tt.input)
	}
}

func TestFieldHelpers(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, Field{Key: "host", Value: "example.com"}, String("host", "example.com"))
	assert.Equal(t, Field{Key: "size", Value: 12}, Int("size", 12))
	assert.Equal(t, Field{Key: "elapsed", Value: 1500.0}, Duration("elapsed", 1500*time.Millisecond))
	assert.Equal(t, "error", Error(err).Key)
	assert.Equal(t, err, Error(err).Value)
}

func TestNewSpanConfig(t *testing.T) {
	cfg := NewSpanConfig(nil)
	assert.Equal(t, SpanKindInternal, cfg.Kind())
	assert.Empty(t, cfg.Attributes())

	cfg = NewSpanConfig([]SpanOption{
		WithSpanKind(SpanKindClient),
		WithAttributes(String("a", "1")),
		WithAttributes(Int("b", 2)),
	})
	assert.Equal(t, SpanKindClient, cfg.Kind())
	assert.Len(t, cfg.Attributes(), 2)
}
