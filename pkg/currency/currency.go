package currency

import (
	"strings"
)

const (
	// DefaultFrom is the source currency selected when nothing was persisted.
	DefaultFrom = "USD"
	// DefaultTo is the target currency selected when nothing was persisted.
	DefaultTo = "EUR"
	// DefaultDecimals is the default number of decimal places for currencies
	DefaultDecimals = 2
)

// popularCodes is the curated subset shown first by currency pickers.
var popularCodes = []string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "CNY", "PLN", "INR"}

// Currency is an immutable catalog entry. Two currencies are the same
// currency when their codes match.
type Currency struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Flag     string `json:"flag"`
	Decimals int    `json:"decimals"`
	Region   string `json:"region,omitempty"`
}

// Equal reports whether c and other share the same ISO code.
func (c Currency) Equal(other Currency) bool {
	return c.Code == other.Code
}

// IsZero reports whether c is the zero Currency.
func (c Currency) IsZero() bool {
	return c.Code == ""
}

func (c Currency) String() string {
	if c.Flag == "" {
		return c.Code
	}
	return c.Flag + " " + c.Code
}

// Catalog is a read-only registry of supported currencies.
type Catalog struct {
	ordered []Currency
	byCode  map[string]int
	popular []Currency
}

// NewCatalog builds a catalog preserving the order of entries.
// Entries with an empty code are skipped and duplicate codes keep the first occurrence.
func NewCatalog(entries []Currency) *Catalog {
	c := &Catalog{
		ordered: make([]Currency, 0, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		if _, dup := c.byCode[e.Code]; dup {
			continue
		}
		c.byCode[e.Code] = len(c.ordered)
		c.ordered = append(c.ordered, e)
	}
	for _, code := range popularCodes {
		if cur, ok := c.Find(code); ok {
			c.popular = append(c.popular, cur)
		}
	}
	return c
}

// All returns every currency in insertion order.
func (c *Catalog) All() []Currency {
	out := make([]Currency, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Find looks up a currency by its exact, case-sensitive code.
func (c *Catalog) Find(code string) (Currency, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Currency{}, false
	}
	return c.ordered[i], true
}

// IsSupported checks if a currency code is registered
func (c *Catalog) IsSupported(code string) bool {
	_, ok := c.byCode[code]
	return ok
}

// Search matches query case-insensitively against codes and names.
// An empty query matches nothing.
func (c *Catalog) Search(query string) []Currency {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Currency{}
	}
	out := make([]Currency, 0)
	for _, cur := range c.ordered {
		if strings.Contains(strings.ToLower(cur.Code), q) ||
			strings.Contains(strings.ToLower(cur.Name), q) {
			out = append(out, cur)
		}
	}
	return out
}

// Popular returns the curated subset used to prioritize pickers.
func (c *Catalog) Popular() []Currency {
	out := make([]Currency, len(c.popular))
	copy(out, c.popular)
	return out
}

// Count returns the total number of registered currencies
func (c *Catalog) Count() int {
	return len(c.ordered)
}
