package exchange

import (
	"sync"
	"time"
)

// DefaultValidity is how long a fetched rate table is served from cache.
const DefaultValidity = 300 * time.Second

// Cache provides an in-memory cache of rate tables keyed by base currency.
// Freshness is checked when an entry is read; nothing is evicted in the background.
type Cache struct {
	store    map[string]*RateTable
	mu       sync.RWMutex
	validity time.Duration
	now      func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a new cache with the given validity window.
// A non-positive validity selects DefaultValidity.
func NewCache(validity time.Duration, opts ...CacheOption) *Cache {
	if validity <= 0 {
		validity = DefaultValidity
	}
	c := &Cache{
		store:    make(map[string]*RateTable),
		validity: validity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the table for base if it was fetched less than the validity
// window ago. Expired tables are reported absent but kept.
func (c *Cache) Get(base string) (*RateTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, exists := c.store[base]
	if !exists {
		return nil, false
	}
	if c.now().Sub(table.FetchedAt) >= c.validity {
		return nil, false
	}
	return table, true
}

// Put stores a table, replacing any entry for the same base.
func (c *Cache) Put(table *RateTable) {
	if table == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[table.Base] = table
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*RateTable)
}

// Len returns the number of stored tables, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Validity returns the configured freshness window.
func (c *Cache) Validity() time.Duration {
	return c.validity
}
