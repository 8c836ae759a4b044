// Package storage defines the key-value persistence contract used for
// preferences and conversion history.
package storage

import (
	"context"
)

// Well-known keys.
const (
	KeyUserPreferences   = "UserPreferences"
	KeyConversionHistory = "ConversionHistory"
)

// KV is a minimal byte-oriented key-value store.
type KV interface {
	// Get returns the stored value, or nil and no error when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}
