package httpsclient

import (
	"net/http"
	"sync"
	"sync/atomic"
)

// Response owns a fixed-capacity buffer holding the reassembled body followed by a
// zero terminator. The caller releases it with Release or ReleaseResponse.
type Response struct {
	// StatusCode and Header are set once the response head was received.
	StatusCode int
	Header     http.Header

	data       []byte
	n          int
	overflowed bool

	buffers  *bufferPool
	released atomic.Bool
}

// Bytes returns the body. It may contain zero bytes; use it rather than the terminator.
func (r *Response) Bytes() []byte {
	if r == nil || r.data == nil {
		return nil
	}
	return r.data[:r.n]
}

// Raw returns the body followed by its terminator.
func (r *Response) Raw() []byte {
	if r == nil || r.data == nil {
		return nil
	}
	return r.data[:r.n+1]
}

// Len returns the body length.
func (r *Response) Len() int {
	if r == nil {
		return 0
	}
	return r.n
}

// Cap returns the buffer capacity, terminator included.
func (r *Response) Cap() int {
	if r == nil {
		return 0
	}
	return len(r.data)
}

func (r *Response) String() string {
	return string(r.Bytes())
}

// Overflowed reports whether the body was cut at Cap()-1 bytes.
func (r *Response) Overflowed() bool {
	return r != nil && r.overflowed
}

// Release returns the buffer. Releasing a nil or already released response is a no-op.
func (r *Response) Release() {
	if r == nil || !r.released.CompareAndSwap(false, true) {
		return
	}
	data := r.data
	r.data, r.n = nil, 0
	r.buffers.put(data)
}

// ReleaseResponse releases a response returned by Execute. A nil response is ignored.
func ReleaseResponse(resp *Response) {
	resp.Release()
}

// free is the room left for body bytes, keeping one byte for the terminator.
func (r *Response) free() int {
	return len(r.data) - r.n - 1
}

// terminate writes the terminator at the current offset.
func (r *Response) terminate() {
	r.data[r.n] = 0
}

// bufferPool bounds the response buffers outstanding at once. Buffers are recycled
// after release.
type bufferPool struct {
	capacity int
	tokens   chan struct{}
	recycled sync.Pool
}

func newBufferPool(capacity, max int) *bufferPool {
	return &bufferPool{
		capacity: capacity,
		tokens:   make(chan struct{}, max),
	}
}

// get returns a zeroed response or false when every buffer is held by a caller.
func (p *bufferPool) get() (*Response, bool) {
	select {
	case p.tokens <- struct{}{}:
	default:
		return nil, false
	}

	data, ok := p.recycled.Get().([]byte)
	if !ok || len(data) != p.capacity {
		data = make([]byte, p.capacity)
	} else {
		clear(data)
	}
	return &Response{data: data, buffers: p}, true
}

func (p *bufferPool) put(data []byte) {
	if data != nil {
		p.recycled.Put(data)
	}
	<-p.tokens
}

// outstanding returns the number of buffers not yet released.
func (p *bufferPool) outstanding() int {
	return len(p.tokens)
}
