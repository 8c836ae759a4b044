package webapi

import (
	"strings"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/gofiber/fiber/v2"
)

// CurrencyRoutes registers the read-only catalog endpoints.
func CurrencyRoutes(app *fiber.App, catalog *currency.Catalog) {
	group := app.Group("/api/currencies")

	group.Get("/", ListCurrencies(catalog))
	group.Get("/popular", PopularCurrencies(catalog))
	group.Get("/search", SearchCurrencies(catalog))
	group.Get("/:code", GetCurrency(catalog))
}

// ListCurrencies returns every currency in catalog order.
func ListCurrencies(catalog *currency.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "Currencies fetched successfully", catalog.All())
	}
}

// PopularCurrencies returns the curated popular subset.
func PopularCurrencies(catalog *currency.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "Popular currencies fetched successfully", catalog.Popular())
	}
}

// SearchCurrencies matches q against codes and names.
func SearchCurrencies(catalog *currency.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "Search completed", catalog.Search(c.Query("q")))
	}
}

// GetCurrency looks up a single currency by code.
func GetCurrency(catalog *currency.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.ToUpper(c.Params("code"))
		cur, ok := catalog.Find(code)
		if !ok {
			return ErrorResponseJSON(c, fiber.StatusNotFound, "Currency not found", "Unknown currency code "+code)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Currency fetched successfully", cur)
	}
}
