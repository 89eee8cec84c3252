// Package tlstest generates a throwaway certificate authority and server
// certificate for TLS tests.
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"
)

// PKI is a root CA plus one server certificate it signed.
type PKI struct {
	CA        *x509.Certificate
	CADER     []byte
	ServerTLS tls.Certificate
	Leaf      *x509.Certificate
}

// NewPKI creates a P-256 CA and a server certificate valid for localhost,
// 127.0.0.1, ::1 and the extra DNS names given.
func NewPKI(dnsNames ...string) (*PKI, error) {
	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	caTemplate := &x509.Certificate{
		SerialNumber:          serial(),
		Subject:               pkix.Name{Organization: []string{"httpsengine test"}, CommonName: "httpsengine test root"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		return nil, err
	}
	ca, err := x509.ParseCertificate(caDER)
	if err != nil {
		return nil, err
	}

	serverKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	serverTemplate := &x509.Certificate{
		SerialNumber: serial(),
		Subject:      pkix.Name{Organization: []string{"httpsengine test"}, CommonName: "localhost"},
		DNSNames:     append([]string{"localhost"}, dnsNames...),
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	serverDER, err := x509.CreateCertificate(rand.Reader, serverTemplate, ca, &serverKey.PublicKey, caKey)
	if err != nil {
		return nil, err
	}
	leaf, err := x509.ParseCertificate(serverDER)
	if err != nil {
		return nil, err
	}

	return &PKI{
		CA:    ca,
		CADER: caDER,
		ServerTLS: tls.Certificate{
			Certificate: [][]byte{serverDER, caDER},
			PrivateKey:  serverKey,
			Leaf:        leaf,
		},
		Leaf: leaf,
	}, nil
}

// StartServer starts an HTTPS test server presenting the PKI's server certificate.
// maxVersion of zero leaves the crypto/tls default.
func (p *PKI) StartServer(handler http.Handler, maxVersion uint16) *httptest.Server {
	srv := httptest.NewUnstartedServer(handler)
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{p.ServerTLS},
		MaxVersion:   maxVersion,
	}
	srv.StartTLS()
	return srv
}

// WriteCAPEM writes the CA certificate as PEM under dir and returns the path.
func (p *PKI) WriteCAPEM(dir string) (string, error) {
	path := filepath.Join(dir, "ca.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: p.CADER})
	return path, os.WriteFile(path, data, 0o600)
}

// WriteCADER writes the CA certificate as DER under dir and returns the path.
func (p *PKI) WriteCADER(dir string) (string, error) {
	path := filepath.Join(dir, "ca.der")
	return path, os.WriteFile(path, p.CADER, 0o600)
}

func serial() *big.Int {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return big.NewInt(time.Now().UnixNano())
	}
	return n
}
