package engine

import (
	"math"
	"strings"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/history"
	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount accepted by ValidateAmount.
var MaxAmount = decimal.NewFromInt(1_000_000_000)

// Validation is the outcome of ValidateAmount.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Validation failure reasons.
const (
	ReasonEmpty    = "Amount cannot be empty"
	ReasonNotANum  = "Please enter a valid number"
	ReasonNotPos   = "Amount must be greater than zero"
	ReasonTooLarge = "Amount is too large"
)

// ValidateAmount checks user-entered text before it is converted.
// It is advisory and independent of the guard inside Convert.
func ValidateAmount(text string) Validation {
	text = strings.TrimSpace(text)
	if text == "" {
		return Validation{Reason: ReasonEmpty}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Validation{Reason: ReasonNotANum}
	}
	if !d.IsPositive() {
		return Validation{Reason: ReasonNotPos}
	}
	if d.GreaterThan(MaxAmount) {
		return Validation{Reason: ReasonTooLarge}
	}
	return Validation{Valid: true}
}

// RatePrecision returns the number of decimals used to display rate.
func RatePrecision(rate float64) int32 {
	switch {
	case rate >= 1000:
		return 2
	case rate >= 100:
		return 3
	case rate >= 10:
		return 4
	default:
		return 6
	}
}

// NotANumber is rendered in place of NaN or infinite values.
const NotANumber = "n/a"

// FormatRate renders rate with magnitude-dependent precision.
func FormatRate(rate float64) string {
	if !finite(rate) {
		return NotANumber
	}
	return decimal.NewFromFloat(rate).StringFixed(RatePrecision(rate))
}

// FormatAmount renders amount with a fixed number of decimals.
func FormatAmount(amount float64, decimals int) string {
	if !finite(amount) {
		return NotANumber
	}
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromFloat(amount).StringFixed(int32(decimals))
}

// FormatEntryAmounts renders the amounts of a history entry. The source
// amount uses decimals (the user's preferred precision); the target amount
// uses the precision of the target currency when catalog knows it.
func FormatEntryAmounts(entry history.Entry, catalog *currency.Catalog, decimals int) (from, to string) {
	toDecimals := decimals
	if catalog != nil {
		if cur, ok := catalog.Find(entry.ToCode); ok {
			toDecimals = cur.Decimals
		}
	}
	return FormatAmount(entry.FromAmount, decimals), FormatAmount(entry.ToAmount, toDecimals)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
