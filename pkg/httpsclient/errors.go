package httpsclient

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/JailtonJunior94/httpsengine/pkg/transport"
)

// Error kinds. Every error returned by Execute matches exactly one of them with errors.Is.
var (
	// ErrInvalidArgument reports a missing endpoint, host or resource. No resource was acquired.
	ErrInvalidArgument = errors.New("httpsclient: invalid argument")

	// ErrResourceExhausted reports that no response buffer or session slot was available.
	ErrResourceExhausted = errors.New("httpsclient: resource exhausted")

	// ErrTransport wraps client creation, connect, handshake, send and receive failures,
	// and responses with a non-2xx status.
	ErrTransport = errors.New("httpsclient: transport error")

	// ErrResolution reports a name resolution failure or timeout.
	ErrResolution = errors.New("httpsclient: resolution error")

	// ErrProtocol reports an empty body unit delivered before the body was complete.
	ErrProtocol = errors.New("httpsclient: protocol error")

	// ErrBufferOverflow reports a body that does not fit the response buffer.
	// The response holds the first capacity-1 bytes.
	ErrBufferOverflow = errors.New("httpsclient: response buffer overflow")

	// ErrResponseTooLarge is returned by DecodeJSON for an overflowed response.
	ErrResponseTooLarge = errors.New("httpsclient: response body exceeds buffer capacity")
)

var (
	errEmptyUnit  = errors.New("empty body unit before completion")
	errZeroPacket = errors.New("packet has no payload room")
)

// Step names a state of the request state machine.
type Step string

const (
	StepInit         Step = "init"
	StepBufferAlloc  Step = "buffer_alloc"
	StepClientCreate Step = "client_create"
	StepResolve      Step = "resolve"
	StepConnectTLS   Step = "connect_tls"
	StepRequestInit  Step = "request_init"
	StepHeadersAdd   Step = "headers_add"
	StepRequestSend  Step = "request_send"
	StepBodySend     Step = "body_send"
	StepReceive      Step = "receive"
	StepFinalize     Step = "finalize"
	StepCleanup      Step = "cleanup"
)

// RequestError is the error returned by Execute.
type RequestError struct {
	Kind error
	Step Step
	Err  error
}

func newRequestError(kind error, step Step, err error) *RequestError {
	return &RequestError{Kind: kind, Step: step, Err: err}
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v (step %s)", e.Kind, e.Step)
	}
	return fmt.Sprintf("%v (step %s): %v", e.Kind, e.Step, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is matches the error kind.
func (e *RequestError) Is(target error) bool {
	return target == e.Kind
}

// StatusCode returns the response status of a non-2xx failure, or zero.
func (e *RequestError) StatusCode() int {
	var statusErr *transport.StatusError
	if errors.As(e.Err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// kindOf maps a step failure to its error kind.
func kindOf(step Step, err error) error {
	if errors.Is(err, transport.ErrInvalidRequest) {
		return ErrInvalidArgument
	}
	switch step {
	case StepInit:
		return ErrInvalidArgument
	case StepBufferAlloc:
		return ErrResourceExhausted
	case StepResolve:
		return ErrResolution
	default:
		return ErrTransport
	}
}

// kindName is the error.kind metric attribute.
func kindName(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrResourceExhausted):
		return "resource_exhausted"
	case errors.Is(err, ErrResolution):
		return "resolution"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrBufferOverflow):
		return "buffer_overflow"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

// classifyError is the error.type metric attribute.
func classifyError(err error) string {
	if err == nil {
		return "none"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return "http_status"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "network_timeout"
		}
		return "network_error"
	}

	return "unknown"
}
