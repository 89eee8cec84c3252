package transport

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	// DefaultPacketCount is the number of packets preallocated by NewEndpoint.
	DefaultPacketCount = 16

	// DefaultPacketSize is the payload capacity of one packet.
	DefaultPacketSize = 1536
)

// PoolStats is a snapshot of packet pool accounting.
type PoolStats struct {
	Capacity    int
	Allocated   int64
	Released    int64
	Outstanding int64
}

// PacketPool hands out a fixed number of fixed-size payload buffers.
// Buffers are preallocated and recycled, never grown.
type PacketPool struct {
	size      int
	capacity  int
	free      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	allocated atomic.Int64
	released  atomic.Int64
}

// NewPacketPool preallocates count packets with size bytes of payload each.
func NewPacketPool(count, size int) (*PacketPool, error) {
	if count <= 0 || size <= 0 {
		return nil, fmt.Errorf("transport: invalid packet pool %dx%d", count, size)
	}

	p := &PacketPool{
		size:     size,
		capacity: count,
		free:     make(chan []byte, count),
		done:     make(chan struct{}),
	}
	for i := 0; i < count; i++ {
		p.free <- make([]byte, size)
	}
	return p, nil
}

// Allocate blocks until a packet is free, ctx is done or the pool is closed.
func (p *PacketPool) Allocate(ctx context.Context) (*Packet, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case buf := <-p.free:
		p.allocated.Add(1)
		return &Packet{pool: p, buf: buf}, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PayloadSize returns the payload capacity of one packet.
func (p *PacketPool) PayloadSize() int {
	return p.size
}

// Stats reports allocation accounting.
func (p *PacketPool) Stats() PoolStats {
	allocated := p.allocated.Load()
	released := p.released.Load()
	return PoolStats{
		Capacity:    p.capacity,
		Allocated:   allocated,
		Released:    released,
		Outstanding: allocated - released,
	}
}

// Close fails pending and future allocations. Packets released afterwards are still accepted.
func (p *PacketPool) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *PacketPool) put(buf []byte) {
	p.released.Add(1)
	select {
	case p.free <- buf[:cap(buf)]:
	default:
	}
}

// Packet is one body unit. Payloads longer than a single packet are chained.
type Packet struct {
	pool     *PacketPool
	buf      []byte
	n        int
	next     *Packet
	released atomic.Bool
}

// Data returns the payload held by this packet, excluding chained packets.
func (p *Packet) Data() []byte {
	return p.buf[:p.n]
}

// Len returns the payload length of the whole chain.
func (p *Packet) Len() int {
	total := 0
	for seg := p; seg != nil; seg = seg.next {
		total += seg.n
	}
	return total
}

// Append copies data to the end of the chain, allocating more packets from the pool
// when the tail is full. On error the chain keeps what was already copied.
func (p *Packet) Append(ctx context.Context, data []byte) error {
	tail := p
	for tail.next != nil {
		tail = tail.next
	}

	for len(data) > 0 {
		if tail.n == len(tail.buf) {
			next, err := p.pool.Allocate(ctx)
			if err != nil {
				return opError("packet_append", "", err)
			}
			tail.next = next
			tail = next
		}
		n := copy(tail.buf[tail.n:], data)
		tail.n += n
		data = data[n:]
	}
	return nil
}

// Fill copies as much of data as fits into the free space of this packet and
// returns the count. It never allocates from the pool.
func (p *Packet) Fill(data []byte) int {
	n := copy(p.buf[p.n:], data)
	p.n += n
	return n
}

// CopyTo copies as much of the chain's payload as fits into dst and returns the count.
func (p *Packet) CopyTo(dst []byte) int {
	copied := 0
	for seg := p; seg != nil && copied < len(dst); seg = seg.next {
		copied += copy(dst[copied:], seg.buf[:seg.n])
	}
	return copied
}

// Release returns the whole chain to the pool. Releasing twice is a no-op.
func (p *Packet) Release() {
	if p == nil || !p.released.CompareAndSwap(false, true) {
		return
	}
	for seg := p; seg != nil; {
		next := seg.next
		seg.next = nil
		if seg != p {
			seg.released.Store(true)
		}
		buf := seg.buf
		seg.buf, seg.n = nil, 0
		seg.pool.put(buf)
		seg = next
	}
}

func (p *Packet) segments(fn func([]byte) error) error {
	for seg := p; seg != nil; seg = seg.next {
		if seg.n == 0 {
			continue
		}
		if err := fn(seg.buf[:seg.n]); err != nil {
			return err
		}
	}
	return nil
}
