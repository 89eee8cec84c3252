package tlssession

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// TrustAnchors is the immutable set of root certificates registered with every session.
type TrustAnchors struct {
	certs []*x509.Certificate
	pool  *x509.CertPool
}

// NewTrustAnchors wraps already parsed certificates.
func NewTrustAnchors(certs ...*x509.Certificate) (*TrustAnchors, error) {
	anchors := &TrustAnchors{pool: x509.NewCertPool()}
	for _, cert := range certs {
		if cert == nil {
			continue
		}
		anchors.certs = append(anchors.certs, cert)
		anchors.pool.AddCert(cert)
	}
	if len(anchors.certs) == 0 {
		return nil, ErrNoTrustAnchors
	}
	return anchors, nil
}

// ParseTrustAnchors parses DER encoded root certificates.
func ParseTrustAnchors(ders ...[]byte) (*TrustAnchors, error) {
	certs := make([]*x509.Certificate, 0, len(ders))
	for i, der := range ders {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("%w: anchor %d: %w", ErrInvalidCertificate, i, err)
		}
		certs = append(certs, cert)
	}
	return NewTrustAnchors(certs...)
}

// LoadTrustAnchors reads root certificates from files holding PEM blocks or a single DER certificate.
func LoadTrustAnchors(paths ...string) (*TrustAnchors, error) {
	var ders [][]byte
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("tlssession: read anchor: %w", err)
		}
		blocks, err := decodeCertificates(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		ders = append(ders, blocks...)
	}
	return ParseTrustAnchors(ders...)
}

func decodeCertificates(data []byte) ([][]byte, error) {
	if !bytes.Contains(data, []byte("-----BEGIN")) {
		return [][]byte{data}, nil
	}

	var ders [][]byte
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			ders = append(ders, block.Bytes)
		}
	}
	if len(ders) == 0 {
		return nil, fmt.Errorf("%w: no CERTIFICATE block", ErrInvalidCertificate)
	}
	return ders, nil
}

// Len returns the number of anchors.
func (a *TrustAnchors) Len() int {
	return len(a.certs)
}

// CertPool returns the pool used as RootCAs. It must not be modified.
func (a *TrustAnchors) CertPool() *x509.CertPool {
	return a.pool
}

// Certificates returns the parsed anchors.
func (a *TrustAnchors) Certificates() []*x509.Certificate {
	return append([]*x509.Certificate(nil), a.certs...)
}
