package engine

import (
	"time"

	"github.com/amirasaad/fxconvert/pkg/currency"
)

// ConversionResult is produced once per successful conversion.
type ConversionResult struct {
	From       currency.Currency `json:"from"`
	To         currency.Currency `json:"to"`
	FromAmount float64           `json:"from_amount"`
	ToAmount   float64           `json:"to_amount"`
	Rate       float64           `json:"rate"`
	ComputedAt time.Time         `json:"computed_at"`
}

// State is the observable engine state. Values handed out by the engine
// are snapshots and never change after delivery.
type State struct {
	From        currency.Currency
	To          currency.Currency
	LastResult  *ConversionResult
	IsLoading   bool
	LastError   error
	LastUpdated *time.Time
}

// ConvertedAmount returns the amount of the last successful conversion.
func (s State) ConvertedAmount() (float64, bool) {
	if s.LastResult == nil {
		return 0, false
	}
	return s.LastResult.ToAmount, true
}

// ExchangeRate returns the rate of the last successful conversion.
func (s State) ExchangeRate() (float64, bool) {
	if s.LastResult == nil {
		return 0, false
	}
	return s.LastResult.Rate, true
}

// ErrorKind classifies LastError.
func (s State) ErrorKind() ErrorKind {
	return KindOf(s.LastError)
}

// ErrorMessage renders LastError for display, or "" when there is none.
func (s State) ErrorMessage() string {
	return Message(s.LastError)
}

func (s State) clone() State {
	out := s
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		out.LastUpdated = &t
	}
	return out
}
