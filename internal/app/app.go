// ABOUTME: Composition root wiring storage, session, client, services and provider
// ABOUTME: Built once per process from config; Close releases what it opened

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dangquan18/subme/config"
	"github.com/dangquan18/subme/internal/api"
	"github.com/dangquan18/subme/internal/auth"
	"github.com/dangquan18/subme/internal/client"
	"github.com/dangquan18/subme/internal/metrics"
	"github.com/dangquan18/subme/internal/session"
	"github.com/dangquan18/subme/internal/storage"
)

// App holds every long-lived component of the client
type App struct {
	Config   *config.Config
	Store    storage.Store
	Sessions *session.Manager
	Client   *client.Client
	API      *api.Services
	Auth     *auth.Provider
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// Option adjusts construction, mainly for tests
type Option func(*options)

type options struct {
	logger     *slog.Logger
	store      storage.Store
	clientOpts []client.Option
}

// WithLogger sets the logger handed to every component
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStore uses s instead of opening the configured backend
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithClientOptions appends options to the HTTP client
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// New wires the client from cfg and loads the persisted session
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = storage.Open(ctx, cfg, o.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
		}
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	sessions := session.NewManager(store, session.WithLogger(o.logger))

	a := &App{
		Config:   cfg,
		Store:    store,
		Sessions: sessions,
		Registry: reg,
		Metrics:  collector,
		Logger:   o.logger,
	}

	clientOpts := []client.Option{
		client.WithTokenSource(sessions),
		client.WithUnauthorizedHandler(func(ctx context.Context) { a.Auth.Invalidate(ctx) }),
		client.WithTimeout(cfg.RequestTimeout),
		client.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		client.WithMetrics(collector),
		client.WithLogger(o.logger),
	}
	a.Client = client.New(cfg.APIURL, append(clientOpts, o.clientOpts...)...)
	a.API = api.New(a.Client)
	a.Auth = auth.NewProvider(sessions, a.API.Auth, a.API.Vendor,
		auth.WithLogger(o.logger),
		auth.WithMetrics(collector),
	)

	if err := a.Auth.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}

	o.logger.Debug("Client initialized",
		"api_url", cfg.APIURL,
		"store", cfg.Store,
		"session", a.Auth.Snapshot().State.String(),
	)
	return a, nil
}

// Close disposes the provider and closes the store
func (a *App) Close() error {
	if a.Auth != nil {
		a.Auth.Dispose()
	}
	return storage.Close(a.Store)
}
