// Package httpsclient executes single HTTPS GET and POST requests over a bounded
// set of TLS session slots. Each request runs a strict sequence of steps and
// reassembles the body into a fixed-capacity buffer owned by the caller.
package httpsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"github.com/JailtonJunior94/httpsengine/pkg/tlssession"
	"github.com/JailtonJunior94/httpsengine/pkg/transport"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Client is the transport surface driven by the executor. *transport.Client implements it.
type Client interface {
	Resolve(ctx context.Context, host string) (net.IP, error)
	SecureConnect(ctx context.Context, ip net.IP, port int, session transport.Session) error
	RequestInitialize(head transport.RequestHead) error
	RequestHeaderAdd(name, value string) error
	RequestSend(ctx context.Context) error
	RequestPacketAllocate(ctx context.Context) (*transport.Packet, error)
	RequestPacketSend(ctx context.Context, pkt *transport.Packet) error
	ResponseBodyGet(ctx context.Context) (*transport.Packet, error)
	ResponseStatus() (int, http.Header, bool)
	Close() error
}

// Endpoint creates one client per request.
type Endpoint interface {
	NewClient(ctx context.Context) (Client, error)
}

// SessionPool hands out TLS session slots. *tlssession.Pool implements it.
type SessionPool interface {
	Acquire(ctx context.Context) (*tlssession.Slot, error)
	Release(slot *tlssession.Slot)
}

type transportEndpoint struct {
	endpoint *transport.Endpoint
}

// FromTransport adapts a transport endpoint. A nil endpoint yields a nil Endpoint.
func FromTransport(endpoint *transport.Endpoint) Endpoint {
	if endpoint == nil {
		return nil
	}
	return transportEndpoint{endpoint: endpoint}
}

func (t transportEndpoint) NewClient(ctx context.Context) (Client, error) {
	client, err := t.endpoint.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Executor runs HTTPS requests. It is safe for concurrent use; concurrency is
// bounded by the session pool and the response buffer budget.
type Executor struct {
	cfg      Config
	sessions SessionPool
	buffers  *bufferPool
	logger   observability.Logger
	inst     *instrumentation
}

// NewExecutor creates an executor using sessions for TLS state and o11y for
// tracing, logging and metrics.
func NewExecutor(sessions SessionPool, o11y observability.Observability, opts ...Option) (*Executor, error) {
	if sessions == nil {
		return nil, errors.New("httpsclient: session pool is required")
	}
	if o11y == nil {
		return nil, errors.New("httpsclient: observability is required")
	}

	e := &Executor{
		cfg:      DefaultConfig(),
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	e.buffers = newBufferPool(e.cfg.ResponseCapacity, e.cfg.MaxResponseBuffers)
	e.logger = o11y.Logger()
	e.inst = newInstrumentation(o11y.Tracer(), o11y.Metrics())

	err := o11y.Metrics().Gauge(
		"https.client.response.buffers.outstanding",
		"Response buffers not yet released by callers",
		"{buffer}",
		func(context.Context) float64 { return float64(e.buffers.outstanding()) },
	)
	if err != nil {
		return nil, fmt.Errorf("httpsclient: register gauge: %w", err)
	}
	return e, nil
}

// Config returns the validated configuration.
func (e *Executor) Config() Config {
	return e.cfg
}

// OutstandingResponses returns the number of responses not yet released.
func (e *Executor) OutstandingResponses() int {
	return e.buffers.outstanding()
}

// Get executes a GET request.
func (e *Executor) Get(ctx context.Context, endpoint Endpoint, host, resource string) (*Response, error) {
	return e.Execute(ctx, endpoint, Request{Host: host, Resource: resource})
}

// Post executes a POST request. A nil body is sent as an empty body.
func (e *Executor) Post(ctx context.Context, endpoint Endpoint, host, resource string, body []byte) (*Response, error) {
	if body == nil {
		body = []byte{}
	}
	return e.Execute(ctx, endpoint, Request{Host: host, Resource: resource, Body: body})
}

// Execute runs one request to completion.
//
// On success the response holds the full body. Failures before the body is read
// return a nil response. Failures while reading return the partial response along
// with the error, and so do non-2xx statuses (ErrTransport wrapping a
// *transport.StatusError). Any returned response must be released by the caller.
func (e *Executor) Execute(ctx context.Context, endpoint Endpoint, req Request) (resp *Response, err error) {
	start := time.Now()
	requestID := uuid.NewString()

	ctx, span := e.inst.tracer.Start(
		ctx,
		"https.client.request",
		observability.WithSpanKind(observability.SpanKindClient),
		observability.WithAttributes(
			observability.String("request.id", requestID),
			observability.String("http.method", req.Method()),
			observability.String("http.host", req.Host),
			observability.String("http.resource", req.Resource),
		),
	)
	defer span.End()

	logger := e.logger.With(
		observability.String("request.id", requestID),
		observability.String("http.method", req.Method()),
		observability.String("http.host", req.Host),
		observability.String("http.resource", req.Resource),
	)

	defer func() {
		e.inst.record(span, req, resp, err, start)
		if err != nil {
			fields := []observability.Field{observability.Error(err)}
			var reqErr *RequestError
			if errors.As(err, &reqErr) {
				fields = append(fields, observability.String("step", string(reqErr.Step)))
			}
			logger.Error(ctx, "https request failed", fields...)
		}
	}()

	if endpoint == nil || req.Host == "" || req.Resource == "" {
		return nil, newRequestError(ErrInvalidArgument, StepInit, errors.New("endpoint, host and resource are required"))
	}

	resp, ok := e.buffers.get()
	if !ok {
		return nil, newRequestError(ErrResourceExhausted, StepBufferAlloc,
			fmt.Errorf("%d response buffers outstanding", e.cfg.MaxResponseBuffers))
	}
	span.AddEvent(string(StepBufferAlloc))

	received, err := e.exchange(ctx, endpoint, req, resp, span, logger)
	if !received {
		resp.Release()
		return nil, err
	}
	if err != nil {
		return resp, err
	}

	logger.Info(ctx, "https request completed",
		observability.Int("http.status_code", resp.StatusCode),
		observability.Int("response.bytes", resp.Len()),
		observability.String("response.size", humanize.IBytes(uint64(resp.Len()))),
		observability.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// exchange runs every step from client creation to cleanup. received reports
// whether the receive loop ran, in which case resp holds the body read so far.
// The buffer is terminated, the client closed and the session slot released
// exactly once on every path.
func (e *Executor) exchange(
	ctx context.Context,
	endpoint Endpoint,
	req Request,
	resp *Response,
	span observability.Span,
	logger observability.Logger,
) (received bool, err error) {
	var (
		client Client
		slot   *tlssession.Slot
	)
	defer func() {
		resp.terminate()
		span.AddEvent(string(StepFinalize), observability.Int("offset", resp.Len()))

		if client != nil {
			if cerr := client.Close(); cerr != nil {
				logger.Debug(ctx, "client close failed", observability.Error(cerr))
			}
		}
		if slot != nil {
			e.sessions.Release(slot)
			e.inst.activeSessions.Add(context.Background(), -1)
		}
		span.AddEvent(string(StepCleanup))
	}()

	fail := func(step Step, err error) (bool, error) {
		return false, newRequestError(kindOf(step, err), step, err)
	}

	c, err := endpoint.NewClient(ctx)
	if err != nil {
		return fail(StepClientCreate, err)
	}
	client = c
	span.AddEvent(string(StepClientCreate))

	resolveCtx, cancel := context.WithTimeout(ctx, e.cfg.ResolveTimeout)
	ip, err := client.Resolve(resolveCtx, req.Host)
	cancel()
	if err != nil {
		return fail(StepResolve, err)
	}
	span.AddEvent(string(StepResolve), observability.String("net.peer.ip", ip.String()))

	s, err := e.sessions.Acquire(ctx)
	if err != nil {
		return false, newRequestError(ErrResourceExhausted, StepConnectTLS, err)
	}
	slot = s
	e.inst.activeSessions.Add(context.Background(), 1)

	session, err := slot.Configure(req.Host)
	if err != nil {
		return fail(StepConnectTLS, err)
	}
	if err := client.SecureConnect(ctx, ip, e.cfg.Port, session); err != nil {
		return fail(StepConnectTLS, err)
	}
	span.AddEvent(string(StepConnectTLS), observability.Int("tls.slot", slot.ID()))
	if leaf, lerr := session.Leaf(); lerr == nil {
		logger.Debug(ctx, "tls session established",
			observability.Int("tls.slot", slot.ID()),
			observability.String("tls.peer", leaf.Subject.CommonName),
			observability.String("tls.issuer", leaf.Issuer.CommonName),
		)
	}

	if step, err := sendRequest(ctx, client, req, e.cfg.ContentType); err != nil {
		return fail(step, err)
	}
	span.AddEvent(string(StepRequestSend))

	if req.Body != nil {
		if err := transmitBody(ctx, client, req.Body); err != nil {
			return fail(StepBodySend, err)
		}
		span.AddEvent(string(StepBodySend), observability.Int("body.bytes", len(req.Body)))
	}

	err = reassemble(ctx, client, resp, logger)
	if code, header, ok := client.ResponseStatus(); ok {
		resp.StatusCode, resp.Header = code, header
		if err == nil && (code < 200 || code > 299) {
			err = newRequestError(ErrTransport, StepReceive, &transport.StatusError{Code: code})
		}
	}
	span.AddEvent(string(StepReceive), observability.Int("response.bytes", resp.Len()))
	return true, err
}
