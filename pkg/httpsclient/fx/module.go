package httpsclientfx

import (
	"context"
	"errors"

	"github.com/JailtonJunior94/httpsengine/pkg/httpsclient"
	"github.com/JailtonJunior94/httpsengine/pkg/observability"
	"github.com/JailtonJunior94/httpsengine/pkg/tlssession"
	"github.com/JailtonJunior94/httpsengine/pkg/transport"
	"go.uber.org/fx"
)

// Module provides the TLS session pool, the transport endpoint and the executor.
// The application supplies Config and an observability.Observability.
// Usage:
//
//	fx.New(
//	    httpsclientfx.ConfigModule,
//	    httpsclientfx.Module,
//	    fx.Provide(func() observability.Observability { return provider }),
//	    fx.Invoke(func(exec *httpsclient.Executor, ep httpsclient.Endpoint) { ... }),
//	)
var Module = fx.Module("httpsclient",
	fx.Provide(
		ProvideSessionPool,
		ProvideEndpoint,
		ProvideExecutor,
	),
)

// SessionPoolParams contains dependencies for the session pool.
type SessionPoolParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config
}

// ProvideSessionPool loads the trust anchors and preallocates the session slots.
// The pool is closed when the application stops.
func ProvideSessionPool(p SessionPoolParams) (*tlssession.Pool, error) {
	if len(p.Config.TrustAnchorPaths) == 0 {
		return nil, errors.New("httpsclientfx: no trust anchor paths configured")
	}
	anchors, err := tlssession.LoadTrustAnchors(p.Config.TrustAnchorPaths...)
	if err != nil {
		return nil, err
	}
	pool, err := tlssession.NewPool(p.Config.Engine.Session, anchors)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pool.Close()
		},
	})
	return pool, nil
}

// EndpointParams contains dependencies for the transport endpoint.
type EndpointParams struct {
	fx.In

	Lifecycle     fx.Lifecycle
	Config        Config
	Observability observability.Observability
}

// EndpointResult exposes the endpoint both as the transport type and as the
// executor's Endpoint.
type EndpointResult struct {
	fx.Out

	Transport *transport.Endpoint
	Endpoint  httpsclient.Endpoint
}

// ProvideEndpoint creates the transport endpoint, closed when the application stops.
func ProvideEndpoint(p EndpointParams) (EndpointResult, error) {
	opts := append(p.Config.Engine.EndpointOptions(), transport.WithLogger(p.Observability.Logger()))
	endpoint, err := transport.NewEndpoint(opts...)
	if err != nil {
		return EndpointResult{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return endpoint.Close()
		},
	})
	return EndpointResult{
		Transport: endpoint,
		Endpoint:  httpsclient.FromTransport(endpoint),
	}, nil
}

// ExecutorParams contains dependencies for the executor.
type ExecutorParams struct {
	fx.In

	Config        Config
	Sessions      *tlssession.Pool
	Observability observability.Observability
}

// ProvideExecutor creates the executor from the engine configuration.
func ProvideExecutor(p ExecutorParams) (*httpsclient.Executor, error) {
	return httpsclient.NewExecutor(p.Sessions, p.Observability, httpsclient.WithConfig(p.Config.Engine))
}
