package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/fxconvert/pkg/metrics"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_EURBase(t *testing.T) {
	s := NewStatic(nil)
	table, err := s.FetchRates(context.Background(), "EUR")
	require.NoError(t, err)

	assert.Equal(t, "EUR", table.Base)
	assert.Equal(t, StaticName, table.Provider)
	assert.Equal(t, len(referenceRates), table.Len())

	// mutating the returned table does not leak into the source
	table.Rates["USD"] = 99
	again, err := s.FetchRates(context.Background(), "EUR")
	require.NoError(t, err)
	assert.InDelta(t, referenceRates["USD"], again.Rates["USD"], 1e-12)
}

func TestStatic_Rebased(t *testing.T) {
	s := NewStatic(map[string]float64{"USD": 1.25, "GBP": 0.8})
	table, err := s.FetchRates(context.Background(), "USD")
	require.NoError(t, err)

	assert.Equal(t, "USD", table.Base)
	assert.InDelta(t, 0.8, table.Rates["EUR"], 1e-12)
	assert.InDelta(t, 0.64, table.Rates["GBP"], 1e-12)
	_, hasSelf := table.Rates["USD"]
	assert.False(t, hasSelf)
}

func TestStatic_Errors(t *testing.T) {
	s := NewStatic(nil)
	_, err := s.FetchRates(context.Background(), "XYZ")
	assert.ErrorIs(t, err, exchange.ErrAPI)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.FetchRates(ctx, "EUR")
	assert.ErrorIs(t, err, exchange.ErrNetwork)
}

func TestInstrumented(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ok := NewInstrumented(NewStatic(nil), m, nil)
	_, err := ok.FetchRates(context.Background(), "EUR")
	require.NoError(t, err)

	failing := NewInstrumented(exchange.RateSourceFunc(func(context.Context, string) (*exchange.RateTable, error) {
		return nil, errors.Join(exchange.ErrNetwork, errors.New("dial tcp: refused"))
	}), m, nil)
	_, err = failing.FetchRates(context.Background(), "EUR")
	assert.ErrorIs(t, err, exchange.ErrNetwork)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateFetches.WithLabelValues("EUR", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateFetches.WithLabelValues("EUR", "error")))
}
