// Package transport provides the network endpoint and per-request client context
// used by the HTTPS request engine: name resolution, TCP dialing with a TLS
// handshake, request serialization and packet-sized body delivery.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"github.com/JailtonJunior94/httpsengine/pkg/observability/noop"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultSegmentSize caps a single write on the connection.
	DefaultSegmentSize = 1536

	// DefaultReadyAttempts bounds WaitReady probes.
	DefaultReadyAttempts = 10

	// DefaultReadyInterval is the first WaitReady retry delay.
	DefaultReadyInterval = 500 * time.Millisecond
)

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Dialer opens connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Endpoint is the process-wide network handle borrowed by each request.
type Endpoint struct {
	resolver      Resolver
	dialer        Dialer
	packets       *PacketPool
	ownsPackets   bool
	packetCount   int
	packetSize    int
	segmentSize   int
	readyAttempts int
	readyInterval time.Duration
	logger        observability.Logger
	closed        atomic.Bool
}

// Option configures an Endpoint.
type Option func(*Endpoint)

// WithResolver replaces net.DefaultResolver.
func WithResolver(r Resolver) Option {
	return func(e *Endpoint) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithDialer replaces the default net.Dialer.
func WithDialer(d Dialer) Option {
	return func(e *Endpoint) {
		if d != nil {
			e.dialer = d
		}
	}
}

// WithPacketPool shares an existing packet pool. The endpoint will not close it.
func WithPacketPool(p *PacketPool) Option {
	return func(e *Endpoint) {
		if p != nil {
			e.packets = p
		}
	}
}

// WithPackets sizes the packet pool created by the endpoint.
func WithPackets(count, size int) Option {
	return func(e *Endpoint) {
		e.packetCount = count
		e.packetSize = size
	}
}

// WithSegmentSize caps the size of a single connection write.
func WithSegmentSize(size int) Option {
	return func(e *Endpoint) {
		if size > 0 {
			e.segmentSize = size
		}
	}
}

// WithReadiness configures the WaitReady retry budget.
func WithReadiness(attempts int, interval time.Duration) Option {
	return func(e *Endpoint) {
		if attempts > 0 {
			e.readyAttempts = attempts
		}
		if interval > 0 {
			e.readyInterval = interval
		}
	}
}

// WithLogger sets the logger used for readiness probes and client diagnostics.
func WithLogger(l observability.Logger) Option {
	return func(e *Endpoint) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEndpoint builds an endpoint. Without options it resolves with net.DefaultResolver,
// dials with a net.Dialer and owns a DefaultPacketCount x DefaultPacketSize packet pool.
func NewEndpoint(opts ...Option) (*Endpoint, error) {
	e := &Endpoint{
		resolver:      net.DefaultResolver,
		dialer:        &net.Dialer{KeepAlive: -1},
		packetCount:   DefaultPacketCount,
		packetSize:    DefaultPacketSize,
		segmentSize:   DefaultSegmentSize,
		readyAttempts: DefaultReadyAttempts,
		readyInterval: DefaultReadyInterval,
		logger:        noop.NewProvider().Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.packets == nil {
		pool, err := NewPacketPool(e.packetCount, e.packetSize)
		if err != nil {
			return nil, err
		}
		e.packets = pool
		e.ownsPackets = true
	}
	return e, nil
}

// Packets returns the endpoint's packet pool.
func (e *Endpoint) Packets() *PacketPool {
	return e.packets
}

// SegmentSize returns the maximum size of a single connection write.
func (e *Endpoint) SegmentSize() int {
	return e.segmentSize
}

// NewClient creates a client context for one request.
func (e *Endpoint) NewClient(ctx context.Context) (*Client, error) {
	if e.closed.Load() {
		return nil, ErrEndpointClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, opError("client_create", "", err)
	}
	return &Client{endpoint: e}, nil
}

// WaitReady probes name resolution for host with exponential backoff until it
// succeeds, the attempt budget runs out or ctx is done.
func (e *Endpoint) WaitReady(ctx context.Context, host string) error {
	if e.closed.Load() {
		return ErrEndpointClosed
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.readyInterval
	policy.MaxInterval = 10 * e.readyInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	probe := func() error {
		attempt++
		addrs, err := e.resolver.LookupIPAddr(ctx, host)
		if err != nil {
			return err
		}
		if len(addrs) == 0 {
			return ErrNoAddress
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		e.logger.Warn(ctx, "network not ready",
			observability.String("host", host),
			observability.Int("attempt", attempt),
			observability.Duration("retry_in", wait),
			observability.Error(err),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(e.readyAttempts-1)), ctx)
	if err := backoff.RetryNotify(probe, b, notify); err != nil {
		return opError("wait_ready", host, fmt.Errorf("%w after %d attempts: %w", ErrNotReady, attempt, err))
	}

	e.logger.Debug(ctx, "network ready", observability.String("host", host), observability.Int("attempts", attempt))
	return nil
}

// Close rejects new clients and closes the packet pool if the endpoint created it.
func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if e.ownsPackets {
		e.packets.Close()
	}
	return nil
}
