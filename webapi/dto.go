package webapi

import (
	"time"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
)

// SelectionRequest changes one or both selected currencies.
type SelectionRequest struct {
	From string `json:"from" validate:"omitempty,len=3,uppercase"`
	To   string `json:"to" validate:"omitempty,len=3,uppercase"`
}

// ConvertRequest carries the amount to convert.
type ConvertRequest struct {
	Amount float64 `json:"amount"`
}

// ValidateRequest carries raw user input.
type ValidateRequest struct {
	Text string `json:"text"`
}

// ErrorDTO describes the last published failure.
type ErrorDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ResultDTO is a conversion result with display strings.
type ResultDTO struct {
	From            string    `json:"from"`
	To              string    `json:"to"`
	FromAmount      float64   `json:"from_amount"`
	ToAmount        float64   `json:"to_amount"`
	Rate            float64   `json:"rate"`
	FormattedAmount string    `json:"formatted_amount"`
	FormattedRate   string    `json:"formatted_rate"`
	ComputedAt      time.Time `json:"computed_at"`
}

// StateDTO is the JSON view of engine.State.
type StateDTO struct {
	From        currency.Currency `json:"from"`
	To          currency.Currency `json:"to"`
	IsLoading   bool              `json:"is_loading"`
	Result      *ResultDTO        `json:"result,omitempty"`
	Error       *ErrorDTO         `json:"error,omitempty"`
	LastUpdated *time.Time        `json:"last_updated,omitempty"`
}

// RatesDTO summarizes a rate table.
type RatesDTO struct {
	Base      string             `json:"base"`
	Provider  string             `json:"provider,omitempty"`
	Count     int                `json:"count"`
	FetchedAt time.Time          `json:"fetched_at"`
	Timestamp *time.Time         `json:"timestamp,omitempty"`
	Rates     map[string]float64 `json:"rates"`
}

func toResultDTO(r engine.ConversionResult) *ResultDTO {
	return &ResultDTO{
		From:            r.From.Code,
		To:              r.To.Code,
		FromAmount:      r.FromAmount,
		ToAmount:        r.ToAmount,
		Rate:            r.Rate,
		FormattedAmount: engine.FormatAmount(r.ToAmount, r.To.Decimals),
		FormattedRate:   engine.FormatRate(r.Rate),
		ComputedAt:      r.ComputedAt,
	}
}

func toStateDTO(s engine.State) StateDTO {
	dto := StateDTO{
		From:        s.From,
		To:          s.To,
		IsLoading:   s.IsLoading,
		LastUpdated: s.LastUpdated,
	}
	if s.LastResult != nil {
		dto.Result = toResultDTO(*s.LastResult)
	}
	if s.LastError != nil {
		dto.Error = &ErrorDTO{Kind: string(s.ErrorKind()), Message: s.ErrorMessage()}
	}
	return dto
}

func toRatesDTO(t *exchange.RateTable) RatesDTO {
	dto := RatesDTO{
		Base:      t.Base,
		Provider:  t.Provider,
		Count:     t.Len(),
		FetchedAt: t.FetchedAt,
		Rates:     t.Rates,
	}
	if !t.Timestamp.IsZero() {
		ts := t.Timestamp
		dto.Timestamp = &ts
	}
	return dto
}
