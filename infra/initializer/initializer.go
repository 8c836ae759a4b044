package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	infra_provider "github.com/amirasaad/fxconvert/infra/provider"
	infra_storage "github.com/amirasaad/fxconvert/infra/storage"
	currencyfixtures "github.com/amirasaad/fxconvert/internal/fixtures/currency"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/amirasaad/fxconvert/pkg/history"
	"github.com/amirasaad/fxconvert/pkg/metrics"
	"github.com/amirasaad/fxconvert/pkg/preferences"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Deps holds the wired application components.
type Deps struct {
	Config   *config.App
	Logger   *slog.Logger
	Catalog  *currency.Catalog
	Storage  infra_storage.Backend
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Engine   *engine.Engine
}

// Close stops the engine and releases storage.
func (d *Deps) Close() error {
	if d.Engine != nil {
		d.Engine.Close()
	}
	if d.Storage != nil {
		return d.Storage.Close()
	}
	return nil
}

type options struct {
	logWriter io.Writer
	source    exchange.RateSource
	storage   infra_storage.Backend
}

// Option customizes InitializeDependencies.
type Option func(*options)

// WithLogWriter sends log output to w.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithRateSource replaces the configured rate source.
func WithRateSource(src exchange.RateSource) Option {
	return func(o *options) { o.source = src }
}

// WithStorage replaces the configured storage backend.
func WithStorage(b infra_storage.Backend) Option {
	return func(o *options) { o.storage = b }
}

// InitializeDependencies builds the logger, catalog, storage, rate source
// and engine described by cfg.
func InitializeDependencies(ctx context.Context, cfg *config.App, opts ...Option) (deps *Deps, err error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	deps = &Deps{Config: cfg}
	logger := SetupLogger(cfg.Log, o.logWriter)
	deps.Logger = logger

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.New(deps.Registry)

	logger.Debug("Loading embedded currency metadata")
	deps.Catalog, err = currencyfixtures.LoadCatalog("")
	if err != nil {
		return nil, fmt.Errorf("failed to load currency catalog: %w", err)
	}
	if !deps.Catalog.IsSupported(cfg.Engine.BaseCurrency) {
		return nil, fmt.Errorf("base currency %s is not in the catalog", cfg.Engine.BaseCurrency)
	}

	deps.Storage = o.storage
	if deps.Storage == nil {
		deps.Storage, err = infra_storage.Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}
	defer func() {
		if err != nil {
			_ = deps.Storage.Close()
		}
	}()

	source := o.source
	if source == nil {
		source, err = NewRateSource(cfg.RateSource, logger)
		if err != nil {
			return nil, err
		}
	}
	source = infra_provider.NewInstrumented(source, deps.Metrics, logger)

	deps.Engine, err = engine.New(ctx, engine.Deps{
		Catalog:     deps.Catalog,
		Source:      source,
		Cache:       exchange.NewCache(cfg.Engine.CacheValidity),
		History:     history.New(deps.Storage, cfg.Engine.HistoryLimit, logger),
		Preferences: preferences.NewStore(deps.Storage, logger),
		Metrics:     deps.Metrics,
		Logger:      logger,
	}, engine.Config{
		BaseCurrency: cfg.Engine.BaseCurrency,
		Debounce:     cfg.Engine.Debounce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return deps, nil
}

// NewRateSource builds the rate source named by cfg.Provider.
func NewRateSource(cfg *config.RateSource, logger *slog.Logger) (exchange.RateSource, error) {
	switch cfg.Provider {
	case config.ProviderStatic:
		logger.Info("Using static offline exchange rates")
		return infra_provider.NewStatic(nil), nil
	case config.ProviderExchangeRatesAPI, "":
		if cfg.ApiKey == "" {
			logger.Warn("RATE_SOURCE_API_KEY is empty; requests may be rejected")
		}
		return infra_provider.NewExchangeRatesAPI(cfg, logger), nil
	default:
		return nil, errors.New("unknown rate source provider: " + cfg.Provider)
	}
}
