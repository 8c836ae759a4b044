package provider

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
)

// StaticName identifies tables produced by Static.
const StaticName = "static"

const staticBase = "EUR"

// referenceRates are approximate EUR-based mid-market rates.
var referenceRates = map[string]float64{
	"USD": 1.0850, "GBP": 0.8560, "JPY": 162.40, "CHF": 0.9620, "CAD": 1.4750,
	"AUD": 1.6400, "CNY": 7.8500, "PLN": 4.3100, "INR": 90.50, "NZD": 1.7900,
	"SEK": 11.45, "NOK": 11.60, "DKK": 7.4600, "CZK": 25.10, "HUF": 395.0,
	"RON": 4.9700, "BGN": 1.9558, "ISK": 150.0, "TRY": 35.20, "UAH": 44.50,
	"RUB": 98.00, "RSD": 117.1, "MXN": 19.80, "BRL": 5.9500, "ARS": 1010.0,
	"CLP": 1010.0, "COP": 4400.0, "PEN": 4.0800, "UYU": 43.50, "HKD": 8.4700,
	"SGD": 1.4600, "KRW": 1490.0, "TWD": 35.10, "THB": 38.20, "MYR": 4.9200,
	"IDR": 17300.0, "PHP": 62.80, "VND": 27500.0, "PKR": 301.0, "BDT": 129.5,
	"LKR": 320.0, "KZT": 525.0, "AED": 3.9850, "SAR": 4.0690, "QAR": 3.9500,
	"KWD": 0.3330, "BHD": 0.4090, "OMR": 0.4180, "JOD": 0.7690, "ILS": 4.0200,
	"EGP": 53.00, "MAD": 10.80, "TND": 3.3800, "NGN": 1750.0, "KES": 140.0,
	"GHS": 17.20, "ZAR": 19.60, "ETB": 131.0, "GEL": 2.9600,
}

// Static serves fixed reference rates without network access. Tables for
// bases other than EUR are derived by dividing through the base's rate.
type Static struct {
	rates map[string]float64
	now   func() time.Time
}

// NewStatic creates an offline rate source. Nil rates select the built-in
// EUR-based reference table.
func NewStatic(rates map[string]float64) *Static {
	if rates == nil {
		rates = referenceRates
	}
	return &Static{rates: maps.Clone(rates), now: time.Now}
}

// FetchRates implements exchange.RateSource.
func (s *Static) FetchRates(ctx context.Context, base string) (*exchange.RateTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", exchange.ErrNetwork, err)
	}

	rates := make(map[string]float64, len(s.rates)+1)
	switch baseRate, ok := s.rates[base]; {
	case base == staticBase:
		maps.Copy(rates, s.rates)
	case ok && baseRate > 0:
		for code, r := range s.rates {
			if code != base {
				rates[code] = r / baseRate
			}
		}
		rates[staticBase] = 1 / baseRate
	default:
		return nil, fmt.Errorf("%w: unsupported base currency %s", exchange.ErrAPI, base)
	}

	table := exchange.NewRateTable(base, rates, s.now())
	table.Provider = StaticName
	return table, nil
}

var _ exchange.RateSource = (*Static)(nil)
