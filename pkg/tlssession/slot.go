package tlssession

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
)

// certSlot is a fixed buffer receiving one peer certificate in DER form.
type certSlot struct {
	buf []byte
	n   int
}

func (c *certSlot) store(der []byte) error {
	if len(der) > len(c.buf) {
		c.n = 0
		return fmt.Errorf("%w: %d bytes, slot holds %d", ErrCertificateTooLarge, len(der), len(c.buf))
	}
	c.n = copy(c.buf, der)
	return nil
}

func (c *certSlot) bytes() []byte {
	return c.buf[:c.n]
}

func (c *certSlot) reset() {
	clear(c.buf[:c.n])
	c.n = 0
}

// Slot owns the buffers of one secure session. It is handed out by Pool.Acquire
// and must be returned with Pool.Release.
type Slot struct {
	id       int
	cfg      Config
	anchors  *TrustAnchors
	metadata *metadataStore
	reader   *bufio.Reader
	leaf     certSlot
	issuer   certSlot
	held     atomic.Bool
}

func newSlot(id int, cfg Config, anchors *TrustAnchors) *Slot {
	return &Slot{
		id:       id,
		cfg:      cfg,
		anchors:  anchors,
		metadata: newMetadataStore(cfg.MetadataSize),
		reader:   bufio.NewReaderSize(nil, cfg.RecordBufferSize),
		leaf:     certSlot{buf: make([]byte, cfg.RemoteCertificateSize)},
		issuer:   certSlot{buf: make([]byte, cfg.RemoteCertificateSize)},
	}
}

// ID identifies the slot within its pool.
func (s *Slot) ID() int {
	return s.id
}

// Configure binds the cipher table, resumption metadata, record window, trust
// anchors and certificate slots into a Session for serverName. It leaves the
// slot's buffers untouched: Pool.Release clears them and the handshake refills
// the certificate slots. On failure no session is returned.
func (s *Slot) Configure(serverName string) (*Session, error) {
	if !s.held.Load() {
		return nil, ErrSlotNotHeld
	}
	if serverName == "" {
		return nil, fmt.Errorf("%w: empty server name", ErrInvalidConfig)
	}
	if s.anchors == nil || s.anchors.Len() == 0 {
		return nil, ErrNoTrustAnchors
	}

	config := &tls.Config{
		ServerName:         serverName,
		RootCAs:            s.anchors.CertPool(),
		CipherSuites:       slices.Clone(s.cfg.CipherSuites),
		MinVersion:         s.cfg.MinVersion,
		ClientSessionCache: s.metadata,
		VerifyConnection:   s.capturePeer,
	}
	if s.cfg.MetadataSize == 0 {
		config.ClientSessionCache = nil
	}

	return &Session{slot: s, config: config}, nil
}

// capturePeer copies the leaf and issuer into the certificate slots. It runs
// after chain verification, for full and resumed handshakes alike.
func (s *Slot) capturePeer(cs tls.ConnectionState) error {
	s.leaf.reset()
	s.issuer.reset()

	if len(cs.PeerCertificates) == 0 {
		return ErrNoPeerCertificate
	}
	if err := s.leaf.store(cs.PeerCertificates[0].Raw); err != nil {
		return err
	}

	var issuer *x509.Certificate
	switch {
	case len(cs.PeerCertificates) > 1:
		issuer = cs.PeerCertificates[1]
	case len(cs.VerifiedChains) > 0 && len(cs.VerifiedChains[0]) > 1:
		issuer = cs.VerifiedChains[0][1]
	}
	if issuer != nil {
		if err := s.issuer.store(issuer.Raw); err != nil {
			s.leaf.reset()
			return err
		}
	}
	return nil
}

// resetSession clears per-session state. Resumption metadata survives across sessions.
func (s *Slot) resetSession() {
	s.leaf.reset()
	s.issuer.reset()
	s.reader.Reset(nil)
}

// Session is the configuration value object handed to the transport for one handshake.
type Session struct {
	slot   *Slot
	config *tls.Config
}

// TLSConfig returns the client configuration for the handshake.
func (s *Session) TLSConfig() *tls.Config {
	return s.config
}

// BindReader points the slot's record window at r.
func (s *Session) BindReader(r io.Reader) *bufio.Reader {
	s.slot.reader.Reset(r)
	return s.slot.reader
}

// PeerCertificates returns the leaf and issuer captured during the handshake.
// Both views are only valid until the slot is released. issuer is empty when the
// server certificate is itself an anchor.
func (s *Session) PeerCertificates() (leaf, issuer []byte) {
	return s.slot.leaf.bytes(), s.slot.issuer.bytes()
}

// Leaf parses the captured leaf certificate.
func (s *Session) Leaf() (*x509.Certificate, error) {
	der := s.slot.leaf.bytes()
	if len(der) == 0 {
		return nil, errors.New("tlssession: no peer certificate captured")
	}
	return x509.ParseCertificate(der)
}

// SlotID returns the id of the slot backing the session.
func (s *Session) SlotID() int {
	return s.slot.id
}
