package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/storage"
	"github.com/go-playground/validator/v10"
)

// Preferences are the user settings restored at startup.
type Preferences struct {
	DefaultFrom         string        `json:"default_from" validate:"required,iso4217"`
	DefaultTo           string        `json:"default_to" validate:"required,iso4217"`
	DecimalPlaces       int           `json:"decimal_places" validate:"gte=0,lte=8"`
	AutoRefreshInterval time.Duration `json:"auto_refresh_interval" validate:"gte=0"`
}

// Defaults returns the preferences used when nothing valid was persisted.
func Defaults() Preferences {
	return Preferences{
		DefaultFrom:         currency.DefaultFrom,
		DefaultTo:           currency.DefaultTo,
		DecimalPlaces:       currency.DefaultDecimals,
		AutoRefreshInterval: 300 * time.Second,
	}
}

// Store reads and writes Preferences through a KV store.
type Store struct {
	kv       storage.KV
	validate *validator.Validate
	logger   *slog.Logger
}

// NewStore creates a preferences store.
func NewStore(kv storage.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:       kv,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "preferences")),
	}
}

// Load returns the persisted preferences, or Defaults when they are
// missing, unreadable or invalid.
func (s *Store) Load(ctx context.Context) Preferences {
	raw, err := s.kv.Get(ctx, storage.KeyUserPreferences)
	if err != nil {
		s.logger.Warn("Failed to read preferences, using defaults", "error", err)
		return Defaults()
	}
	if len(raw) == 0 {
		return Defaults()
	}

	prefs := Defaults()
	if err := json.Unmarshal(raw, &prefs); err != nil {
		s.logger.Warn("Discarding unreadable preferences", "error", err)
		return Defaults()
	}
	if err := s.validate.Struct(prefs); err != nil {
		s.logger.Warn("Discarding invalid preferences", "error", err)
		return Defaults()
	}
	return prefs
}

// Save validates and persists prefs.
func (s *Store) Save(ctx context.Context, prefs Preferences) error {
	if err := s.validate.Struct(prefs); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyUserPreferences, data); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
