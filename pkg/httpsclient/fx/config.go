package httpsclientfx

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/httpsclient"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds the engine configuration and the trust anchor files.
type Config struct {
	Engine httpsclient.Config

	// TrustAnchorPaths lists PEM or DER CA certificates. At least one is required.
	TrustAnchorPaths []string
}

// ConfigModule provides the config from the environment.
// A .env file in the working directory is loaded first when present.
// Environment variables:
//   - HTTPS_CONFIG_FILE: YAML file read over the defaults
//   - HTTPS_TRUST_ANCHORS: comma separated CA certificate paths
//   - HTTPS_RESPONSE_CAPACITY: response buffer size in bytes (default: 12000)
//   - HTTPS_MAX_RESPONSE_BUFFERS: unreleased responses allowed (default: 4)
//   - HTTPS_RESOLVE_TIMEOUT: resolution timeout in seconds (default: 5)
//   - HTTPS_PORT: server port (default: 443)
//   - HTTPS_MAX_SESSIONS: TLS session slots (default: 2)
//   - HTTPS_SEGMENT_SIZE: largest single write in bytes (default: 1536)
var ConfigModule = fx.Provide(ConfigFromEnv)

// ConfigFromEnv builds the config from HTTPS_* variables. Variables override the
// YAML file, which overrides the defaults.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	engine := httpsclient.DefaultConfig()
	if path := os.Getenv("HTTPS_CONFIG_FILE"); path != "" {
		loaded, err := httpsclient.LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		engine = loaded
	}

	engine.ResponseCapacity = getEnvInt("HTTPS_RESPONSE_CAPACITY", engine.ResponseCapacity)
	engine.MaxResponseBuffers = getEnvInt("HTTPS_MAX_RESPONSE_BUFFERS", engine.MaxResponseBuffers)
	engine.ResolveTimeout = getEnvDuration("HTTPS_RESOLVE_TIMEOUT", engine.ResolveTimeout)
	engine.Port = getEnvInt("HTTPS_PORT", engine.Port)
	engine.Session.MaxSessions = getEnvInt("HTTPS_MAX_SESSIONS", engine.Session.MaxSessions)
	engine.Network.SegmentSize = getEnvInt("HTTPS_SEGMENT_SIZE", engine.Network.SegmentSize)

	if err := engine.Validate(); err != nil {
		return Config{}, err
	}

	return Config{
		Engine:           engine,
		TrustAnchorPaths: splitList(os.Getenv("HTTPS_TRUST_ANCHORS")),
	}, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
