package webapi

import (
	"context"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/amirasaad/fxconvert/pkg/history"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
	"github.com/gofiber/fiber/v2"
)

// Engine is the conversion engine surface used by the HTTP handlers.
type Engine interface {
	Catalog() *currency.Catalog
	State() engine.State
	SetFromCurrency(code string) error
	SetToCurrency(code string) error
	SwapCurrencies()
	Convert(amount float64) error
	ConvertNow(ctx context.Context, amount float64) (engine.ConversionResult, error)
	History() []history.Entry
	ClearHistory(ctx context.Context) error
	Rates(ctx context.Context) (*exchange.RateTable, error)
	RefreshRates(ctx context.Context) (*exchange.RateTable, error)
}

var _ Engine = (*engine.Engine)(nil)

// ConversionRoutes registers the engine-backed endpoints.
func ConversionRoutes(app *fiber.App, eng Engine) {
	api := app.Group("/api")

	api.Get("/state", GetState(eng))
	api.Put("/selection", UpdateSelection(eng))
	api.Post("/selection/swap", SwapSelection(eng))
	api.Post("/convert", ScheduleConversion(eng))
	api.Post("/convert/now", ConvertNow(eng))
	api.Post("/validate", ValidateAmount())
	api.Get("/history", ListHistory(eng))
	api.Delete("/history", ClearHistory(eng))
	api.Get("/rates", GetRates(eng))
	api.Post("/rates/refresh", RefreshRates(eng))
}

// GetState returns the current engine state.
func GetState(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "State fetched successfully", toStateDTO(eng.State()))
	}
}

// UpdateSelection sets the source and/or target currency.
func UpdateSelection(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[SelectionRequest](c)
		if err != nil {
			return nil // Error already written by BindAndValidate
		}
		if input.From == "" && input.To == "" {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", "from or to is required")
		}
		if input.From != "" {
			if err := eng.SetFromCurrency(input.From); err != nil {
				return ConversionErrorJSON(c, "Failed to select source currency", err)
			}
		}
		if input.To != "" {
			if err := eng.SetToCurrency(input.To); err != nil {
				return ConversionErrorJSON(c, "Failed to select target currency", err)
			}
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Selection updated", toStateDTO(eng.State()))
	}
}

// SwapSelection exchanges the source and target currencies.
func SwapSelection(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eng.SwapCurrencies()
		return SuccessResponseJSON(c, fiber.StatusOK, "Currencies swapped", toStateDTO(eng.State()))
	}
}

// ScheduleConversion queues a debounced conversion. Poll /api/state for the result.
func ScheduleConversion(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[ConvertRequest](c)
		if err != nil {
			return nil // Error already written by BindAndValidate
		}
		if err := eng.Convert(input.Amount); err != nil {
			return ConversionErrorJSON(c, "Conversion rejected", err)
		}
		return SuccessResponseJSON(c, fiber.StatusAccepted, "Conversion scheduled", toStateDTO(eng.State()))
	}
}

// ConvertNow converts synchronously and returns the result.
func ConvertNow(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[ConvertRequest](c)
		if err != nil {
			return nil // Error already written by BindAndValidate
		}
		res, err := eng.ConvertNow(c.UserContext(), input.Amount)
		if err != nil {
			return ConversionErrorJSON(c, "Conversion failed", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Conversion completed", toResultDTO(res))
	}
}

// ValidateAmount checks amount text without converting it.
func ValidateAmount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[ValidateRequest](c)
		if err != nil {
			return nil // Error already written by BindAndValidate
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Amount checked", engine.ValidateAmount(input.Text))
	}
}

// ListHistory returns recorded conversions, most recent first.
func ListHistory(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "History fetched successfully", eng.History())
	}
}

// ClearHistory removes all recorded conversions.
func ClearHistory(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := eng.ClearHistory(c.UserContext()); err != nil {
			return ErrorResponseJSON(c, fiber.StatusInternalServerError, "Failed to clear history", err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetRates returns the base rate table, fetching it when the cache is stale.
func GetRates(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		table, err := eng.Rates(c.UserContext())
		if err != nil {
			return ConversionErrorJSON(c, "Failed to fetch rates", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Rates fetched successfully", toRatesDTO(table))
	}
}

// RefreshRates drops cached rates and fetches a fresh table.
func RefreshRates(eng Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		table, err := eng.RefreshRates(c.UserContext())
		if err != nil {
			return ConversionErrorJSON(c, "Failed to refresh rates", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Rates refreshed", toRatesDTO(table))
	}
}
