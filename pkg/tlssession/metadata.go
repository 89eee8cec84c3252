package tlssession

import (
	"crypto/tls"
	"encoding/binary"
	"sync"
)

// metadataStore is a single-entry tls.ClientSessionCache whose resumption state lives
// in a fixed buffer. A state that does not fit is dropped and the next handshake is full.
//
// Layout: key length (2) | key | ticket length (2) | ticket | serialized session state.
type metadataStore struct {
	mu      sync.Mutex
	buf     []byte
	n       int
	dropped int
}

func newMetadataStore(size int) *metadataStore {
	return &metadataStore{buf: make([]byte, size)}
}

func (m *metadataStore) Get(key string) (*tls.ClientSessionState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.n == 0 {
		return nil, false
	}
	data := m.buf[:m.n]

	storedKey, data, ok := readField(data)
	if !ok || string(storedKey) != key {
		return nil, false
	}
	ticket, state, ok := readField(data)
	if !ok {
		m.n = 0
		return nil, false
	}

	ss, err := tls.ParseSessionState(state)
	if err != nil {
		m.n = 0
		return nil, false
	}
	cs, err := tls.NewResumptionState(append([]byte(nil), ticket...), ss)
	if err != nil {
		m.n = 0
		return nil, false
	}
	return cs, true
}

func (m *metadataStore) Put(key string, cs *tls.ClientSessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cs == nil {
		m.n = 0
		return
	}
	ticket, ss, err := cs.ResumptionState()
	if err != nil || ss == nil {
		return
	}
	state, err := ss.Bytes()
	if err != nil {
		return
	}

	need := 2 + len(key) + 2 + len(ticket) + len(state)
	if need > len(m.buf) || len(key) > 0xffff || len(ticket) > 0xffff {
		m.n = 0
		m.dropped++
		return
	}

	off := writeField(m.buf, 0, []byte(key))
	off = writeField(m.buf, off, ticket)
	off += copy(m.buf[off:], state)
	m.n = off
}

// Len returns the bytes currently held.
func (m *metadataStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

// Dropped returns how many states did not fit.
func (m *metadataStore) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

func (m *metadataStore) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.buf[:m.n])
	m.n = 0
}

func writeField(buf []byte, off int, field []byte) int {
	binary.BigEndian.PutUint16(buf[off:], uint16(len(field)))
	off += 2
	return off + copy(buf[off:], field)
}

func readField(data []byte) (field, rest []byte, ok bool) {
	if len(data) < 2 {
		return nil, nil, false
	}
	n := int(binary.BigEndian.Uint16(data))
	data = data[2:]
	if len(data) < n {
		return nil, nil, false
	}
	return data[:n], data[n:], true
}
