package otel

import (
	"fmt"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
)

func toAttribute(f observability.Field) attribute.KeyValue {
	switch v := f.Value.(type) {
	case string:
		return attribute.String(f.Key, v)
	case int:
		return attribute.Int(f.Key, v)
	case int64:
		return attribute.Int64(f.Key, v)
	case float64:
		return attribute.Float64(f.Key, v)
	case bool:
		return attribute.Bool(f.Key, v)
	case time.Duration:
		return attribute.Float64(f.Key, float64(v)/float64(time.Millisecond))
	case error:
		return attribute.String(f.Key, v.Error())
	default:
		return attribute.String(f.Key, fmt.Sprint(v))
	}
}

// toAttributes returns nil for an empty slice so callers can skip the option.
func toAttributes(fields []observability.Field) []attribute.KeyValue {
	if len(fields) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, len(fields))
	for i, f := range fields {
		attrs[i] = toAttribute(f)
	}
	return attrs
}

func toLogKeyValue(f observability.Field) otellog.KeyValue {
	switch v := f.Value.(type) {
	case string:
		return otellog.String(f.Key, v)
	case int:
		return otellog.Int(f.Key, v)
	case int64:
		return otellog.Int64(f.Key, v)
	case float64:
		return otellog.Float64(f.Key, v)
	case bool:
		return otellog.Bool(f.Key, v)
	case error:
		return otellog.String(f.Key, v.Error())
	default:
		return otellog.String(f.Key, fmt.Sprint(v))
	}
}
