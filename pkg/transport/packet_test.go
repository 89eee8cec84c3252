package transport

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketPoolAccounting(t *testing.T) {
	pool, err := NewPacketPool(2, 8)
	require.NoError(t, err)

	ctx := context.Background()
	a, err := pool.Allocate(ctx)
	require.NoError(t, err)
	b, err := pool.Allocate(ctx)
	require.NoError(t, err)

	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.Allocated)
	assert.Equal(t, int64(2), stats.Outstanding)

	a.Release()
	a.Release()
	b.Release()

	stats = pool.Stats()
	assert.Equal(t, int64(2), stats.Released)
	assert.Equal(t, int64(0), stats.Outstanding)
}

func TestPacketPoolAllocateHonoursContext(t *testing.T) {
	pool, err := NewPacketPool(1, 8)
	require.NoError(t, err)

	held, err := pool.Allocate(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = pool.Allocate(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPacketPoolClosed(t *testing.T) {
	pool, err := NewPacketPool(1, 8)
	require.NoError(t, err)

	pool.Close()
	pool.Close()

	_, err = pool.Allocate(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestNewPacketPoolRejectsInvalidSizes(t *testing.T) {
	_, err := NewPacketPool(0, 8)
	assert.Error(t, err)
	_, err = NewPacketPool(1, 0)
	assert.Error(t, err)
}

func TestPacketAppendChainsAcrossPackets(t *testing.T) {
	pool, err := NewPacketPool(4, 8)
	require.NoError(t, err)

	pkt, err := pool.Allocate(context.Background())
	require.NoError(t, err)

	payload := []byte("0123456789abcdefghij")
	require.NoError(t, pkt.Append(context.Background(), payload))

	assert.Equal(t, len(payload), pkt.Len())
	assert.Equal(t, []byte("01234567"), pkt.Data())
	assert.Equal(t, int64(3), pool.Stats().Outstanding)

	var collected bytes.Buffer
	require.NoError(t, pkt.segments(func(seg []byte) error {
		collected.Write(seg)
		return nil
	}))
	assert.Equal(t, payload, collected.Bytes())

	dst := make([]byte, 10)
	assert.Equal(t, 10, pkt.CopyTo(dst))
	assert.Equal(t, payload[:10], dst)

	pkt.Release()
	assert.Equal(t, int64(0), pool.Stats().Outstanding)
	assert.Empty(t, pkt.Data())
}

func TestPacketAppendFailsWhenPoolExhausted(t *testing.T) {
	pool, err := NewPacketPool(1, 4)
	require.NoError(t, err)

	pkt, err := pool.Allocate(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = pkt.Append(ctx, []byte("too long"))
	require.Error(t, err)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "packet_append", opErr.Op)
	assert.Equal(t, 4, pkt.Len())

	pkt.Release()
	assert.Equal(t, int64(0), pool.Stats().Outstanding)
}

func TestPacketFillStaysWithinOnePacket(t *testing.T) {
	pool, err := NewPacketPool(1, 4)
	require.NoError(t, err)

	pkt, err := pool.Allocate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, pkt.Fill([]byte("ab")))
	assert.Equal(t, 2, pkt.Fill([]byte("cdef")))
	assert.Zero(t, pkt.Fill([]byte("g")))
	assert.Equal(t, []byte("abcd"), pkt.Data())
	assert.Equal(t, int64(1), pool.Stats().Allocated)

	pkt.Release()
	assert.Equal(t, int64(0), pool.Stats().Outstanding)
}
