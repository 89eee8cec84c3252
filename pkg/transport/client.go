package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/observability"
)

// Session supplies the TLS configuration and read window for one connection.
type Session interface {
	TLSConfig() *tls.Config

	// BindReader returns the buffered reader used for every read on the connection.
	BindReader(r io.Reader) *bufio.Reader
}

// Client is the per-request client context. It is not safe for concurrent use.
type Client struct {
	endpoint *Endpoint
	conn     *tls.Conn
	addr     string
	reader   *bufio.Reader

	head    *RequestHead
	headers []header

	resp     *http.Response
	bodyDone bool

	closeOnce sync.Once
	closed    bool
}

// Resolve returns the address of host. IP literals are returned as is; otherwise
// the first IPv4 address wins over IPv6.
func (c *Client) Resolve(ctx context.Context, host string) (net.IP, error) {
	if c.closed {
		return nil, ErrClientClosed
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	addrs, err := c.endpoint.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, opError("resolve", host, err)
	}

	var fallback net.IP
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4, nil
		}
		if fallback == nil {
			fallback = a.IP
		}
	}
	if fallback == nil {
		return nil, opError("resolve", host, ErrNoAddress)
	}
	return fallback, nil
}

// SecureConnect dials ip:port and completes the TLS handshake configured by session.
func (c *Client) SecureConnect(ctx context.Context, ip net.IP, port int, session Session) error {
	if c.closed {
		return ErrClientClosed
	}
	if c.conn != nil {
		return opError("connect", c.addr, errors.New("already connected"))
	}
	if session == nil {
		return opError("connect", "", errors.New("nil session"))
	}

	c.addr = net.JoinHostPort(ip.String(), strconv.Itoa(port))
	raw, err := c.endpoint.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return opError("connect", c.addr, err)
	}

	conn := tls.Client(raw, session.TLSConfig())
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return opError("handshake", c.addr, err)
	}

	c.conn = conn
	c.reader = session.BindReader(conn)
	return nil
}

// ConnectionState returns the negotiated TLS state.
func (c *Client) ConnectionState() (tls.ConnectionState, bool) {
	if c.conn == nil {
		return tls.ConnectionState{}, false
	}
	return c.conn.ConnectionState(), true
}

// RequestInitialize starts a new request. Extra headers from a previous request are dropped.
func (c *Client) RequestInitialize(head RequestHead) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := head.Validate(); err != nil {
		return err
	}
	c.head = &head
	c.headers = c.headers[:0]
	return nil
}

// RequestHeaderAdd appends a header after Host and Content-Length.
func (c *Client) RequestHeaderAdd(name, value string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.head == nil {
		return fmt.Errorf("%w: request not initialized", ErrInvalidRequest)
	}
	if err := validHeader(name, value); err != nil {
		return err
	}
	c.headers = append(c.headers, header{name: name, value: value})
	return nil
}

// RequestSend writes the request line and headers.
func (c *Client) RequestSend(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.head == nil {
		return fmt.Errorf("%w: request not initialized", ErrInvalidRequest)
	}

	head := appendHead(make([]byte, 0, 256), *c.head, c.headers)
	return opError("request_send", c.addr, c.write(ctx, head))
}

// RequestPacketAllocate takes an empty packet from the endpoint pool.
func (c *Client) RequestPacketAllocate(ctx context.Context) (*Packet, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	pkt, err := c.endpoint.packets.Allocate(ctx)
	if err != nil {
		return nil, opError("packet_allocate", "", err)
	}
	return pkt, nil
}

// RequestPacketSend writes the packet chain and releases it, whether or not the write succeeds.
func (c *Client) RequestPacketSend(ctx context.Context, pkt *Packet) error {
	defer pkt.Release()

	if err := c.ready(); err != nil {
		return err
	}
	if pkt == nil {
		return fmt.Errorf("%w: nil packet", ErrInvalidRequest)
	}
	return opError("body_send", c.addr, pkt.segments(func(seg []byte) error {
		return c.write(ctx, seg)
	}))
}

// ResponseBodyGet returns the next body unit. The first call reads the status line
// and headers. When the body is complete the unit is returned with io.EOF and may be
// empty. Any other error returns a nil unit.
func (c *Client) ResponseBodyGet(ctx context.Context) (*Packet, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if c.head == nil {
		return nil, fmt.Errorf("%w: request not sent", ErrInvalidRequest)
	}

	stop := c.watch(ctx)
	defer stop()

	if c.resp == nil {
		resp, err := c.readFinalHead(ctx)
		if err != nil {
			return nil, opError("response_header", c.addr, c.ctxErr(ctx, err))
		}
		c.resp = resp
	}

	pkt, err := c.endpoint.packets.Allocate(ctx)
	if err != nil {
		return nil, opError("response_body", c.addr, err)
	}
	if c.bodyDone {
		return pkt, io.EOF
	}

	n, err := c.resp.Body.Read(pkt.buf)
	for n == 0 && err == nil {
		n, err = c.resp.Body.Read(pkt.buf)
	}
	pkt.n = n
	switch {
	case errors.Is(err, io.EOF):
		c.bodyDone = true
		return pkt, io.EOF
	case err != nil:
		pkt.Release()
		return nil, opError("response_body", c.addr, c.ctxErr(ctx, err))
	}
	return pkt, nil
}

// readFinalHead reads response heads until a final one, skipping informational
// 1xx heads such as 103 Early Hints. 101 Switching Protocols is final.
func (c *Client) readFinalHead(ctx context.Context) (*http.Response, error) {
	req := &http.Request{Method: c.head.Method}
	for {
		resp, err := http.ReadResponse(c.reader, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 100 || resp.StatusCode >= 200 || resp.StatusCode == http.StatusSwitchingProtocols {
			return resp, nil
		}
		c.endpoint.logger.Debug(ctx, "informational response skipped",
			observability.Int("http.status_code", resp.StatusCode),
		)
	}
}

// ResponseStatus returns the status code and header once the first body unit was read.
func (c *Client) ResponseStatus() (int, http.Header, bool) {
	if c.resp == nil {
		return 0, nil, false
	}
	return c.resp.StatusCode, c.resp.Header, true
}

// Close tears down the connection. Calling it more than once is safe.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed = true
		if c.resp != nil {
			_ = c.resp.Body.Close()
		}
		if c.conn != nil {
			_ = c.conn.SetDeadline(time.Now().Add(100 * time.Millisecond))
			err = c.conn.Close()
		}
	})
	return err
}

func (c *Client) ready() error {
	if c.closed {
		return ErrClientClosed
	}
	if c.conn == nil {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) write(ctx context.Context, b []byte) error {
	stop := c.watch(ctx)
	defer stop()

	size := c.endpoint.segmentSize
	for len(b) > 0 {
		n := min(size, len(b))
		written, err := c.conn.Write(b[:n])
		if err != nil {
			return c.ctxErr(ctx, err)
		}
		b = b[written:]
	}
	return nil
}

// watch applies ctx's deadline to the connection and interrupts blocked I/O when ctx is canceled.
func (c *Client) watch(ctx context.Context) func() {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
	} else {
		_ = c.conn.SetDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	return func() { stop() }
}

// ctxErr prefers the context error over the timeout it caused.
func (c *Client) ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %w", cerr, err)
	}
	return err
}
