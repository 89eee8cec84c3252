package tlssession

import (
	"context"
	"sync"
	"sync/atomic"
)

// Pool preallocates MaxSessions slots and hands them out one session at a time.
type Pool struct {
	cfg     Config
	anchors *TrustAnchors
	slots   []*Slot
	free    chan *Slot
	inUse   atomic.Int32

	done      chan struct{}
	closeOnce sync.Once
}

// NewPool validates cfg and allocates every slot up front.
func NewPool(cfg Config, anchors *TrustAnchors) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if anchors == nil || anchors.Len() == 0 {
		return nil, ErrNoTrustAnchors
	}

	p := &Pool{
		cfg:     cfg,
		anchors: anchors,
		slots:   make([]*Slot, cfg.MaxSessions),
		free:    make(chan *Slot, cfg.MaxSessions),
		done:    make(chan struct{}),
	}
	for i := range p.slots {
		p.slots[i] = newSlot(i, cfg, anchors)
		p.free <- p.slots[i]
	}
	return p, nil
}

// Acquire blocks until a slot is free, ctx is done or the pool is closed.
func (p *Pool) Acquire(ctx context.Context) (*Slot, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case slot := <-p.free:
		slot.held.Store(true)
		p.inUse.Add(1)
		return slot, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns slot to the pool. Releasing a slot twice, or a slot of another pool, is a no-op.
func (p *Pool) Release(slot *Slot) {
	if slot == nil || slot.id >= len(p.slots) || p.slots[slot.id] != slot {
		return
	}
	if !slot.held.CompareAndSwap(true, false) {
		return
	}
	slot.resetSession()
	p.inUse.Add(-1)
	p.free <- slot
}

// InUse returns the number of slots currently held.
func (p *Pool) InUse() int {
	return int(p.inUse.Load())
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return len(p.slots)
}

// Anchors returns the trust anchors shared by every slot.
func (p *Pool) Anchors() *TrustAnchors {
	return p.anchors
}

// Close fails pending and future acquisitions and wipes the resumption metadata
// of every slot. Held slots can still be released.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		for _, slot := range p.slots {
			slot.metadata.reset()
		}
	})
	return nil
}
