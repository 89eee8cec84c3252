package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEndpointClosed is returned when a client is requested from a closed endpoint.
	ErrEndpointClosed = errors.New("transport: endpoint is closed")

	// ErrClientClosed is returned by every operation on a closed client.
	ErrClientClosed = errors.New("transport: client is closed")

	// ErrNotConnected is returned when a request is prepared before SecureConnect.
	ErrNotConnected = errors.New("transport: client is not connected")

	// ErrInvalidRequest reports a malformed request head or header.
	ErrInvalidRequest = errors.New("transport: invalid request")

	// ErrPoolClosed is returned by Allocate after the packet pool is closed.
	ErrPoolClosed = errors.New("transport: packet pool is closed")

	// ErrNoAddress is returned when a host resolves to no usable address.
	ErrNoAddress = errors.New("transport: host has no address")

	// ErrNotReady is returned when WaitReady gives up.
	ErrNotReady = errors.New("transport: network not ready")
)

// OpError describes a failed transport operation.
type OpError struct {
	Op   string
	Addr string
	Err  error
}

func (e *OpError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// StatusError reports a response whose status code is outside 2xx.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

func opError(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Addr: addr, Err: err}
}
