package otel

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
)

// Protocol selects the OTLP transport.
type Protocol string

const (
	// ProtocolGRPC exports over gRPC, usually on port 4317.
	ProtocolGRPC Protocol = "grpc"
	// ProtocolHTTP exports over HTTP/protobuf, usually on port 4318.
	ProtocolHTTP Protocol = "http"
)

// Config holds the settings of the OpenTelemetry provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	Endpoint string
	Protocol Protocol

	// Insecure disables TLS towards the collector. Rejected in production.
	Insecure  bool
	TLSConfig *tls.Config

	// SampleRate is clamped to [0, 1].
	SampleRate float64

	LogLevel  observability.LogLevel
	LogFormat observability.LogFormat

	ResourceAttributes map[string]string
}

// DefaultConfig returns a development configuration exporting to a local collector.
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName:    serviceName,
		ServiceVersion: "unknown",
		Environment:    "development",
		Endpoint:       "localhost:4317",
		Protocol:       ProtocolGRPC,
		SampleRate:     1.0,
		LogLevel:       observability.LogLevelInfo,
		LogFormat:      observability.LogFormatJSON,
	}
}

// ParseProtocol accepts "grpc", "http" and "http/protobuf". Anything else maps to gRPC.
func ParseProtocol(protocol string) Protocol {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return ProtocolHTTP
	default:
		return ProtocolGRPC
	}
}

func isProduction(env string) bool {
	env = strings.ToLower(env)
	return env == "production" || env == "prod"
}

// Validate checks the configuration and normalizes the protocol.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return errors.New("otel: service name is required")
	}
	if c.Endpoint == "" {
		return errors.New("otel: endpoint is required")
	}
	if c.Insecure && isProduction(c.Environment) {
		return fmt.Errorf("otel: insecure export is not allowed in %q", c.Environment)
	}
	if c.TLSConfig != nil && c.TLSConfig.MinVersion != 0 && c.TLSConfig.MinVersion < tls.VersionTLS12 {
		return errors.New("otel: collector TLS must be 1.2 or newer")
	}
	c.Protocol = ParseProtocol(string(c.Protocol))
	return nil
}
