package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/fxconvert/pkg/metrics"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
)

// Instrumented records fetch outcomes and latency of the wrapped source.
type Instrumented struct {
	next    exchange.RateSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewInstrumented wraps next. A nil m disables metrics.
func NewInstrumented(next exchange.RateSource, m *metrics.Metrics, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{
		next:    next,
		metrics: m,
		logger:  logger.With(slog.String("component", "rate_source")),
	}
}

// FetchRates implements exchange.RateSource.
func (i *Instrumented) FetchRates(ctx context.Context, base string) (*exchange.RateTable, error) {
	start := time.Now()
	table, err := i.next.FetchRates(ctx, base)
	i.metrics.ObserveFetch(base, start, err)
	if err != nil {
		i.logger.Warn("Rate fetch failed", "base", base, "duration", time.Since(start), "error", err)
		return nil, err
	}
	i.logger.Debug("Rate fetch succeeded", "base", base, "duration", time.Since(start), "count", table.Len())
	return table, nil
}

var _ exchange.RateSource = (*Instrumented)(nil)
