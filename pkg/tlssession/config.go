// Package tlssession configures TLS client sessions from a fixed pool of slots.
// Each slot owns the buffers one session needs: the resumption metadata store,
// the record read window and the peer certificate slots. The pool size bounds
// the number of concurrent secure sessions.
package tlssession

import (
	"crypto/tls"
	"errors"
	"fmt"
	"slices"
)

const (
	// DefaultRecordBufferSize holds one maximum-size TLS record plus framing.
	DefaultRecordBufferSize = 16500

	// DefaultMetadataSize is the resumption metadata budget of one slot.
	DefaultMetadataSize = 8928

	// DefaultRemoteCertificateSize bounds each stored peer certificate, in DER bytes.
	DefaultRemoteCertificateSize = 4096

	// DefaultMaxSessions is the number of slots in a pool.
	DefaultMaxSessions = 2

	minRecordBufferSize = 1024
)

// DefaultCipherSuites is the TLS 1.2 cipher table bound to every session.
// TLS 1.3 suites are fixed by crypto/tls.
var DefaultCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
}

var (
	// ErrInvalidConfig reports an unusable Config.
	ErrInvalidConfig = errors.New("tlssession: invalid config")

	// ErrNoTrustAnchors is returned when no root certificate was supplied.
	ErrNoTrustAnchors = errors.New("tlssession: at least one trust anchor is required")

	// ErrInvalidCertificate reports an anchor that is not a parseable certificate.
	ErrInvalidCertificate = errors.New("tlssession: invalid certificate")

	// ErrCertificateTooLarge fails the handshake when a peer certificate exceeds its slot.
	ErrCertificateTooLarge = errors.New("tlssession: peer certificate exceeds slot size")

	// ErrNoPeerCertificate fails the handshake when the server sent no certificate.
	ErrNoPeerCertificate = errors.New("tlssession: server sent no certificate")

	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("tlssession: pool is closed")

	// ErrSlotNotHeld is returned when configuring a slot that was released.
	ErrSlotNotHeld = errors.New("tlssession: slot is not held")
)

// Config sizes the per-slot buffers and fixes the negotiated parameters.
type Config struct {
	RecordBufferSize      int      `yaml:"record_buffer_size"`
	MetadataSize          int      `yaml:"metadata_size"`
	RemoteCertificateSize int      `yaml:"remote_certificate_size"`
	MaxSessions           int      `yaml:"max_sessions"`
	CipherSuites          []uint16 `yaml:"-"`
	MinVersion            uint16   `yaml:"-"`
}

// DefaultConfig returns the default slot sizing with TLS 1.2 as the floor.
func DefaultConfig() Config {
	return Config{
		RecordBufferSize:      DefaultRecordBufferSize,
		MetadataSize:          DefaultMetadataSize,
		RemoteCertificateSize: DefaultRemoteCertificateSize,
		MaxSessions:           DefaultMaxSessions,
		CipherSuites:          slices.Clone(DefaultCipherSuites),
		MinVersion:            tls.VersionTLS12,
	}
}

// Validate rejects sizes that cannot hold a session and cipher suites crypto/tls marks insecure.
func (c Config) Validate() error {
	if c.RecordBufferSize < minRecordBufferSize {
		return fmt.Errorf("%w: record buffer size %d is below %d", ErrInvalidConfig, c.RecordBufferSize, minRecordBufferSize)
	}
	if c.MetadataSize < 0 {
		return fmt.Errorf("%w: negative metadata size", ErrInvalidConfig)
	}
	if c.RemoteCertificateSize <= 0 {
		return fmt.Errorf("%w: remote certificate size must be positive", ErrInvalidConfig)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%w: max sessions must be positive", ErrInvalidConfig)
	}
	if c.MinVersion != 0 && c.MinVersion < tls.VersionTLS12 {
		return fmt.Errorf("%w: minimum version must be TLS 1.2 or newer", ErrInvalidConfig)
	}
	if len(c.CipherSuites) == 0 {
		return fmt.Errorf("%w: empty cipher table", ErrInvalidConfig)
	}
	for _, id := range c.CipherSuites {
		for _, insecure := range tls.InsecureCipherSuites() {
			if id == insecure.ID {
				return fmt.Errorf("%w: cipher suite %s is insecure", ErrInvalidConfig, insecure.Name)
			}
		}
	}
	return nil
}
