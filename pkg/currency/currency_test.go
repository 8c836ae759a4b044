package currency_test

import (
	"testing"

	fixtures "github.com/amirasaad/fxconvert/internal/fixtures/currency"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(cs []currency.Currency) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Code)
	}
	return out
}

func TestNewCatalog_PreservesOrderAndSkipsDuplicates(t *testing.T) {
	c := currency.NewCatalog([]currency.Currency{
		{Code: "PLN", Name: "Polish Zloty"},
		{Code: "USD", Name: "US Dollar"},
		{Code: "PLN", Name: "Duplicate"},
		{Code: "", Name: "Empty"},
		{Code: "EUR", Name: "Euro"},
	})

	assert.Equal(t, []string{"PLN", "USD", "EUR"}, codes(c.All()))
	assert.Equal(t, 3, c.Count())

	pln, ok := c.Find("PLN")
	require.True(t, ok)
	assert.Equal(t, "Polish Zloty", pln.Name)
}

func TestCatalog_All(t *testing.T) {
	c := fixtures.MustDefault()
	all := c.All()
	assert.GreaterOrEqual(t, len(all), 50)
	assert.Equal(t, "USD", all[0].Code)

	// callers cannot mutate the catalog through the returned slice
	all[0] = currency.Currency{Code: "XXX"}
	assert.Equal(t, "USD", c.All()[0].Code)
}

func TestCatalog_Find(t *testing.T) {
	c := fixtures.MustDefault()

	tests := []struct {
		name  string
		code  string
		found bool
	}{
		{"exact match", "EUR", true},
		{"lower case is not a match", "eur", false},
		{"unknown code", "XYZ", false},
		{"empty code", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, ok := c.Find(tt.code)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.code, cur.Code)
			}
			assert.Equal(t, tt.found, c.IsSupported(tt.code))
		})
	}
}

func TestCatalog_Search(t *testing.T) {
	c := fixtures.MustDefault()

	t.Run("empty query yields nothing", func(t *testing.T) {
		assert.Empty(t, c.Search(""))
		assert.Empty(t, c.Search("   "))
	})

	t.Run("matches code case-insensitively", func(t *testing.T) {
		assert.Contains(t, codes(c.Search("pln")), "PLN")
	})

	t.Run("matches name substring", func(t *testing.T) {
		got := codes(c.Search("dollar"))
		assert.Contains(t, got, "USD")
		assert.Contains(t, got, "CAD")
		assert.Contains(t, got, "AUD")
		assert.NotContains(t, got, "EUR")
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, c.Search("doubloon"))
	})
}

func TestCatalog_Popular(t *testing.T) {
	c := fixtures.MustDefault()
	assert.Equal(t,
		[]string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "CNY", "PLN", "INR"},
		codes(c.Popular()),
	)

	small := currency.NewCatalog([]currency.Currency{{Code: "EUR"}, {Code: "XAU"}})
	assert.Equal(t, []string{"EUR"}, codes(small.Popular()))
}

func TestCurrency_Equal(t *testing.T) {
	a := currency.Currency{Code: "USD", Name: "US Dollar"}
	b := currency.Currency{Code: "USD", Name: "Dollar"}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(currency.Currency{Code: "EUR"}))
	assert.Equal(t, "USD", a.String())
	assert.Equal(t, "🇺🇸 USD", currency.Currency{Code: "USD", Flag: "🇺🇸"}.String())
	assert.True(t, currency.Currency{}.IsZero())
}
