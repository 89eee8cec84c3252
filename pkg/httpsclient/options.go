package httpsclient

import (
	"time"
)

// Option configures the Executor. Options are applied over DefaultConfig and the
// result is validated by NewExecutor.
type Option func(*Executor)

// WithConfig replaces the whole configuration, typically one returned by LoadConfig.
// Options after it still apply.
//
// Example:
//
//	cfg, err := httpsclient.LoadConfig("engine.yaml")
//	exec, err := httpsclient.NewExecutor(pool, obs, httpsclient.WithConfig(cfg))
func WithConfig(cfg Config) Option {
	return func(e *Executor) {
		e.cfg = cfg
	}
}

// WithResponseCapacity sets the response buffer size, terminator included.
// Bodies of capacity-1 bytes or more fail with ErrBufferOverflow.
// Default: 12000 (DefaultResponseCapacity).
func WithResponseCapacity(capacity int) Option {
	return func(e *Executor) {
		e.cfg.ResponseCapacity = capacity
	}
}

// WithMaxResponseBuffers bounds how many responses callers may hold unreleased.
// Default: 4 (DefaultMaxResponseBuffers).
func WithMaxResponseBuffers(max int) Option {
	return func(e *Executor) {
		e.cfg.MaxResponseBuffers = max
	}
}

// WithResolveTimeout bounds name resolution.
// Default: 5 seconds (DefaultResolveTimeout).
//
// Example:
//
//	exec, err := httpsclient.NewExecutor(pool, obs,
//	    httpsclient.WithResolveTimeout(2*time.Second),
//	)
func WithResolveTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.cfg.ResolveTimeout = timeout
	}
}

// WithPort sets the TCP port. Default: 443.
func WithPort(port int) Option {
	return func(e *Executor) {
		e.cfg.Port = port
	}
}

// WithContentType sets the Content-Type sent with request bodies.
// Default: application/json.
func WithContentType(contentType string) Option {
	return func(e *Executor) {
		e.cfg.ContentType = contentType
	}
}
