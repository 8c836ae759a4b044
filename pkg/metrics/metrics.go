package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for rate fetching and conversions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RateFetches       *prometheus.CounterVec
	RateFetchDuration prometheus.Histogram
	CacheLookups      *prometheus.CounterVec
	Conversions       *prometheus.CounterVec
	SupersededResults prometheus.Counter
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RateFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fxconvert_rate_fetches_total",
			Help: "Total number of rate table fetches by result",
		}, []string{"base", "result"}),
		RateFetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxconvert_rate_fetch_duration_seconds",
			Help:    "Duration of rate table fetches",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fxconvert_rate_cache_lookups_total",
			Help: "Rate cache lookups by outcome",
		}, []string{"outcome"}),
		Conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fxconvert_conversions_total",
			Help: "Executed conversions by error kind (\"none\" on success)",
		}, []string{"kind"}),
		SupersededResults: factory.NewCounter(prometheus.CounterOpts{
			Name: "fxconvert_superseded_results_total",
			Help: "Conversion results discarded because a newer request started",
		}),
	}
}

// ObserveFetch records a rate fetch that started at start.
func (m *Metrics) ObserveFetch(base string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.RateFetches.WithLabelValues(base, result).Inc()
	m.RateFetchDuration.Observe(time.Since(start).Seconds())
}

// CacheHit records a fresh cache lookup.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a cache lookup that required a fetch.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// ObserveConversion records an executed conversion.
func (m *Metrics) ObserveConversion(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	m.Conversions.WithLabelValues(kind).Inc()
}

// Superseded records a discarded stale result.
func (m *Metrics) Superseded() {
	if m == nil {
		return
	}
	m.SupersededResults.Inc()
}
