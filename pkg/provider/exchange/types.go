package exchange

import (
	"context"
	"errors"
	"math"
	"time"
)

// Common errors for rate sources and lookups
var (
	// ErrNetwork indicates the rate source could not be reached.
	ErrNetwork = errors.New("network error")
	// ErrAPI indicates the rate source rejected the request or returned a malformed response.
	ErrAPI = errors.New("API error")
	// ErrRateNotFound indicates a currency is missing from the rate table.
	ErrRateNotFound = errors.New("exchange rate not found")
	// ErrNoDataAvailable indicates the rate source returned no usable rates.
	ErrNoDataAvailable = errors.New("no exchange rate data available")
)

// RateSource fetches the rate table for a base currency. It is the only
// authority for rate data.
type RateSource interface {
	FetchRates(ctx context.Context, base string) (*RateTable, error)
}

// RateSourceFunc adapts a function to the RateSource interface.
type RateSourceFunc func(ctx context.Context, base string) (*RateTable, error)

// FetchRates implements RateSource.
func (f RateSourceFunc) FetchRates(ctx context.Context, base string) (*RateTable, error) {
	return f(ctx, base)
}

// RateTable holds the rates of every known currency against Base.
type RateTable struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
	// FetchedAt is when the table was received; cache freshness is measured from it.
	FetchedAt time.Time `json:"fetched_at"`
	// Timestamp is the publish time reported by the provider, if any.
	Timestamp time.Time `json:"timestamp,omitempty"`
	Provider  string    `json:"provider,omitempty"`
}

// NewRateTable builds a table, dropping non-positive and non-finite rates.
func NewRateTable(base string, rates map[string]float64, fetchedAt time.Time) *RateTable {
	clean := make(map[string]float64, len(rates))
	for code, r := range rates {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		clean[code] = r
	}
	return &RateTable{
		Base:      base,
		Rates:     clean,
		FetchedAt: fetchedAt,
	}
}

// Rate returns the rate of code against the base. The base itself is 1.0.
func (t *RateTable) Rate(code string) (float64, bool) {
	if code == t.Base {
		return 1.0, true
	}
	r, ok := t.Rates[code]
	if !ok || r <= 0 {
		return 0, false
	}
	return r, true
}

// Len returns the number of quoted currencies, excluding the implicit base.
func (t *RateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rates)
}
