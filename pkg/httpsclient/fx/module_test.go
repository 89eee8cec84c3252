package httpsclientfx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JailtonJunior94/httpsengine/pkg/httpsclient"
	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"github.com/JailtonJunior94/httpsengine/pkg/observability/fake"
	"github.com/JailtonJunior94/httpsengine/pkg/tlssession"
	"github.com/JailtonJunior94/httpsengine/pkg/tlssession/tlstest"
	"github.com/JailtonJunior94/httpsengine/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8443\nresponse_capacity: 2048\n"), 0o600))

	t.Setenv("HTTPS_CONFIG_FILE", path)
	t.Setenv("HTTPS_RESPONSE_CAPACITY", "4096")
	t.Setenv("HTTPS_RESOLVE_TIMEOUT", "2")
	t.Setenv("HTTPS_MAX_SESSIONS", "1")
	t.Setenv("HTTPS_TRUST_ANCHORS", " /etc/ca/a.pem, ,/etc/ca/b.der ")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8443, cfg.Engine.Port)
	assert.Equal(t, 4096, cfg.Engine.ResponseCapacity)
	assert.Equal(t, 2*time.Second, cfg.Engine.ResolveTimeout)
	assert.Equal(t, 1, cfg.Engine.Session.MaxSessions)
	assert.Equal(t, []string{"/etc/ca/a.pem", "/etc/ca/b.der"}, cfg.TrustAnchorPaths)
}

func TestConfigFromEnvRejectsInvalidValues(t *testing.T) {
	t.Setenv("HTTPS_RESPONSE_CAPACITY", "1")

	_, err := ConfigFromEnv()
	assert.Error(t, err)
}

func TestModuleLifecycle(t *testing.T) {
	pki, err := tlstest.NewPKI()
	require.NoError(t, err)
	caPath, err := pki.WriteCAPEM(t.TempDir())
	require.NoError(t, err)

	cfg := Config{
		Engine:           httpsclient.DefaultConfig(),
		TrustAnchorPaths: []string{caPath},
	}

	var (
		exec     *httpsclient.Executor
		endpoint httpsclient.Endpoint
		network  *transport.Endpoint
		pool     *tlssession.Pool
	)
	app := fxtest.New(t,
		Module,
		fx.Supply(cfg),
		fx.Provide(func() observability.Observability { return fake.NewProvider() }),
		fx.Populate(&exec, &endpoint, &network, &pool),
	)
	app.RequireStart()

	require.NotNil(t, exec)
	require.NotNil(t, endpoint)
	assert.Equal(t, cfg.Engine.ResponseCapacity, exec.Config().ResponseCapacity)
	assert.Equal(t, cfg.Engine.Session.MaxSessions, pool.Size())
	assert.Equal(t, 1, pool.Anchors().Len())

	app.RequireStop()

	_, err = network.NewClient(t.Context())
	assert.ErrorIs(t, err, transport.ErrEndpointClosed)
}

func TestModuleRequiresTrustAnchors(t *testing.T) {
	app := fx.New(
		Module,
		fx.Supply(Config{Engine: httpsclient.DefaultConfig()}),
		fx.Provide(func() observability.Observability { return fake.NewProvider() }),
		fx.Invoke(func(*httpsclient.Executor) {}),
		fx.NopLogger,
	)
	assert.Error(t, app.Err())
}
