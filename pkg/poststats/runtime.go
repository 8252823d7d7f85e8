package poststats

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Ratio1/poststats_go/internal/devseed"
	"github.com/Ratio1/poststats_go/internal/httpx"
	"github.com/Ratio1/poststats_go/pkg/kvstore"
	"github.com/Ratio1/poststats_go/pkg/page"
	"github.com/Ratio1/poststats_go/pkg/reconcile"
	"github.com/Ratio1/poststats_go/pkg/remote"
	"github.com/Ratio1/poststats_go/pkg/remote/mock"
	"github.com/Ratio1/poststats_go/pkg/statcache"
)

// mockEndpoint is never dialled; the mock transport answers every request.
const mockEndpoint = "http://poststats.mock/"

// Option adjusts how Open builds a Runtime.
type Option func(*openOptions)

type openOptions struct {
	logger     *slog.Logger
	remoteOpts []remote.Option
	service    *mock.Service
}

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRemoteOptions appends options to the remote client.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(o *openOptions) { o.remoteOpts = append(o.remoteOpts, opts...) }
}

// WithMockService uses svc in mock mode instead of a fresh service.
func WithMockService(svc *mock.Service) Option {
	return func(o *openOptions) { o.service = svc }
}

// Runtime bundles the components resolved from a Config.
type Runtime struct {
	Config  Config
	Mode    string
	Backend string
	Client  *remote.Client
	Storage kvstore.Storage
	// Service is the in-process counting service; nil in http mode.
	Service *mock.Service
	Logger  *slog.Logger
}

// NewFromEnv builds the remote client and device storage from the process
// environment. It returns the resolved mode ("http" or "mock").
func NewFromEnv(opts ...Option) (*remote.Client, kvstore.Storage, string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, "", err
	}
	rt, err := Open(cfg, opts...)
	if err != nil {
		return nil, nil, "", err
	}
	return rt.Client, rt.Storage, rt.Mode, nil
}

// Open resolves cfg into a Runtime.
func Open(cfg Config, opts ...Option) (*Runtime, error) {
	o := openOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	mode := cfg.Mode
	switch mode {
	case "", ModeAuto:
		mode = ModeMock
		if cfg.APIURL != "" {
			mode = ModeHTTP
		}
	case ModeHTTP:
		if cfg.APIURL == "" {
			return nil, errors.New("poststats: HTTP mode requires POSTSTATS_API_URL")
		}
	case ModeMock:
	default:
		return nil, fmt.Errorf("poststats: unsupported POSTSTATS_RUNTIME_MODE value %q", cfg.Mode)
	}

	rt := &Runtime{Config: cfg, Mode: mode, Logger: o.logger}
	remoteOpts := []remote.Option{remote.WithLogger(o.logger)}
	if cfg.BatchMax > 0 {
		remoteOpts = append(remoteOpts, remote.WithMaxBatch(cfg.BatchMax))
	}

	endpoint := cfg.APIURL
	if mode == ModeMock {
		svc, err := mockService(cfg, o.service)
		if err != nil {
			return nil, err
		}
		rt.Service = svc
		endpoint = mockEndpoint
		remoteOpts = append(remoteOpts, remote.WithHTTPOptions(httpx.WithTransport(svc.Transport())))
	}
	remoteOpts = append(remoteOpts, o.remoteOpts...)

	client, err := remote.New(endpoint, remoteOpts...)
	if err != nil {
		return nil, fmt.Errorf("poststats: init remote client: %w", err)
	}

	storage, backend, err := kvstore.Open(cfg.Storage)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("poststats: init storage: %w", err)
	}
	rt.Client = client
	rt.Storage = storage
	rt.Backend = backend
	o.logger.Debug("poststats runtime ready", "mode", mode, "endpoint", endpoint, "storage", backend)
	return rt, nil
}

func mockService(cfg Config, svc *mock.Service) (*mock.Service, error) {
	if svc == nil {
		svc = mock.New()
	}
	if cfg.MockSeed == "" {
		return svc, nil
	}
	entries, err := devseed.LoadStatsSeed(cfg.MockSeed)
	if err != nil {
		return nil, fmt.Errorf("poststats: load mock seed: %w", err)
	}
	svc.Seed(entries)
	return svc, nil
}

// Reconciler builds a Reconciler for p over the runtime's storage and client.
func (rt *Runtime) Reconciler(p page.Page, opts ...reconcile.Option) *reconcile.Reconciler {
	cacheOpts := []statcache.Option{statcache.WithLogger(rt.Logger)}
	base := []reconcile.Option{
		reconcile.WithLogger(rt.Logger),
		reconcile.WithBatchSize(rt.Client.MaxBatch()),
		reconcile.WithViewDelay(rt.Config.ViewDelay),
	}
	return reconcile.New(p,
		statcache.NewStore(rt.Storage, cacheOpts...),
		statcache.NewLedger(rt.Storage, cacheOpts...),
		rt.Client,
		append(base, opts...)...,
	)
}

// Close drains pending view reports and releases the storage.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Client != nil {
		errs = append(errs, rt.Client.Close())
	}
	if c, ok := rt.Storage.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
