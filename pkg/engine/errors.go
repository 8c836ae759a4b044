package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
)

var (
	// ErrInvalidAmount is returned for amounts that are not strictly positive.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidCurrencyCode is returned for codes missing from the catalog.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
	// ErrAmountOutOfRange is returned when a conversion result cannot be
	// represented as a finite number.
	ErrAmountOutOfRange = fmt.Errorf("%w: result out of range", ErrInvalidAmount)
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine closed")
)

// ErrorKind classifies a published failure.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindInvalidAmount       ErrorKind = "invalid_amount"
	KindInvalidCurrencyCode ErrorKind = "invalid_currency_code"
	KindNetwork             ErrorKind = "network_error"
	KindAPI                 ErrorKind = "api_error"
	KindRateNotFound        ErrorKind = "rate_not_found"
	KindNoDataAvailable     ErrorKind = "no_data_available"
	KindUnknown             ErrorKind = "unknown"
)

// KindOf maps err onto the error taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrInvalidCurrencyCode):
		return KindInvalidCurrencyCode
	case errors.Is(err, exchange.ErrRateNotFound):
		return KindRateNotFound
	case errors.Is(err, exchange.ErrNoDataAvailable):
		return KindNoDataAvailable
	case errors.Is(err, exchange.ErrAPI):
		return KindAPI
	case errors.Is(err, exchange.ErrNetwork):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// Message renders err for display.
func Message(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindInvalidAmount:
		return "Please enter a valid amount"
	case KindInvalidCurrencyCode:
		return "Invalid currency code"
	case KindRateNotFound:
		return "Exchange rate not found for the selected currencies"
	case KindNoDataAvailable:
		return "No exchange rate data available"
	default:
		return capitalize(err.Error())
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
