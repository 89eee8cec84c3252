package httpsclient

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12000, cfg.ResponseCapacity)
	assert.Equal(t, 5*time.Second, cfg.ResolveTimeout)
	assert.Equal(t, 443, cfg.Port)
	assert.Equal(t, "application/json", cfg.ContentType)
	assert.Equal(t, 16500, cfg.Session.RecordBufferSize)
	assert.Equal(t, 8928, cfg.Session.MetadataSize)
	assert.Equal(t, 2, cfg.Session.MaxSessions)
	assert.Len(t, cfg.EndpointOptions(), 3)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
response_capacity: 4096
resolve_timeout: 2s
port: 8443
network:
  segment_size: 512
  ready_interval: 250ms
session:
  max_sessions: 1
  remote_certificate_size: 2048
`))
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.ResponseCapacity)
	assert.Equal(t, 2*time.Second, cfg.ResolveTimeout)
	assert.Equal(t, 8443, cfg.Port)
	assert.Equal(t, 512, cfg.Network.SegmentSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Network.ReadyInterval)
	assert.Equal(t, 1, cfg.Session.MaxSessions)
	assert.Equal(t, 2048, cfg.Session.RemoteCertificateSize)

	assert.Equal(t, DefaultContentType, cfg.ContentType)
	assert.Equal(t, DefaultMaxResponseBuffers, cfg.MaxResponseBuffers)
	assert.NotEmpty(t, cfg.Session.CipherSuites)
}

func TestParseConfigRejectsInvalidInput(t *testing.T) {
	tests := map[string]string{
		"unknown key":       "response_capacty: 10\n",
		"capacity too low":  "response_capacity: 1\n",
		"bad port":          "port: 70000\n",
		"bad duration":      "resolve_timeout: soon\n",
		"zero sessions":     "session:\n  max_sessions: 0\n",
		"empty contenttype": "content_type: \"\"\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseConfigEmptyDocument(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().ResponseCapacity, cfg.ResponseCapacity)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9443\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9443, cfg.Port)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
