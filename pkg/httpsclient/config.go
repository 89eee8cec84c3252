package httpsclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/tlssession"
	"github.com/JailtonJunior94/httpsengine/pkg/transport"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultResponseCapacity is the size of a response buffer, terminator included.
	DefaultResponseCapacity = 12000

	// DefaultMaxResponseBuffers bounds the response buffers held by callers at once.
	DefaultMaxResponseBuffers = 4

	// DefaultResolveTimeout bounds name resolution.
	DefaultResolveTimeout = 5 * time.Second

	// DefaultPort is the HTTPS port.
	DefaultPort = 443

	// DefaultContentType is sent with every request body.
	DefaultContentType = "application/json"
)

// NetworkConfig sizes the transport endpoint.
type NetworkConfig struct {
	PacketCount   int           `yaml:"packet_count"`
	PacketSize    int           `yaml:"packet_size"`
	SegmentSize   int           `yaml:"segment_size"`
	ReadyAttempts int           `yaml:"ready_attempts"`
	ReadyInterval time.Duration `yaml:"ready_interval"`
}

// Config holds every recognised engine option.
type Config struct {
	ResponseCapacity   int               `yaml:"response_capacity"`
	MaxResponseBuffers int               `yaml:"max_response_buffers"`
	ResolveTimeout     time.Duration     `yaml:"resolve_timeout"`
	Port               int               `yaml:"port"`
	ContentType        string            `yaml:"content_type"`
	Network            NetworkConfig     `yaml:"network"`
	Session            tlssession.Config `yaml:"session"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		ResponseCapacity:   DefaultResponseCapacity,
		MaxResponseBuffers: DefaultMaxResponseBuffers,
		ResolveTimeout:     DefaultResolveTimeout,
		Port:               DefaultPort,
		ContentType:        DefaultContentType,
		Network: NetworkConfig{
			PacketCount:   transport.DefaultPacketCount,
			PacketSize:    transport.DefaultPacketSize,
			SegmentSize:   transport.DefaultSegmentSize,
			ReadyAttempts: transport.DefaultReadyAttempts,
			ReadyInterval: transport.DefaultReadyInterval,
		},
		Session: tlssession.DefaultConfig(),
	}
}

// Validate checks every option, including the session configuration.
func (c Config) Validate() error {
	var errs []error
	if c.ResponseCapacity < 2 {
		errs = append(errs, fmt.Errorf("response capacity must be at least 2, got %d", c.ResponseCapacity))
	}
	if c.MaxResponseBuffers <= 0 {
		errs = append(errs, errors.New("max response buffers must be positive"))
	}
	if c.ResolveTimeout <= 0 {
		errs = append(errs, errors.New("resolve timeout must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.ContentType == "" {
		errs = append(errs, errors.New("content type is required"))
	}
	if c.Network.PacketCount <= 0 || c.Network.PacketSize <= 0 || c.Network.SegmentSize <= 0 {
		errs = append(errs, errors.New("packet count, packet size and segment size must be positive"))
	}
	if err := c.Session.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("httpsclient: invalid config: %w", err)
	}
	return nil
}

// EndpointOptions returns the transport options matching the network settings.
func (c Config) EndpointOptions() []transport.Option {
	return []transport.Option{
		transport.WithPackets(c.Network.PacketCount, c.Network.PacketSize),
		transport.WithSegmentSize(c.Network.SegmentSize),
		transport.WithReadiness(c.Network.ReadyAttempts, c.Network.ReadyInterval),
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("httpsclient: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("httpsclient: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
