// Package storage provides the storage.KV backends: memory, SQLite,
// PostgreSQL and Redis.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/fxconvert/pkg/config"
	kvstore "github.com/amirasaad/fxconvert/pkg/storage"
)

// Backend is a KV store holding resources that must be released.
type Backend interface {
	kvstore.KV
	Close() error
}

// Open selects and opens the backend named by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.App, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := cfg.Storage.Driver
	logger.Info("Opening storage", "driver", driver)

	var (
		backend Backend
		err     error
	)
	switch driver {
	case config.DriverMemory:
		backend = NewMemory()
	case config.DriverSQLite:
		backend, err = wrap(OpenSQLite(cfg.Storage.SQLitePath))
	case config.DriverPostgres:
		backend, err = wrap(OpenPostgres(cfg.Storage.DatabaseURL, cfg.Env))
	case config.DriverRedis:
		backend, err = wrap(OpenRedis(ctx, cfg.Redis, logger))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", driver, err)
	}
	return backend, nil
}

// wrap keeps a nil concrete pointer from becoming a non-nil Backend.
func wrap[B Backend](b B, err error) (Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*SQLite)(nil)
	_ Backend = (*Postgres)(nil)
	_ Backend = (*Redis)(nil)
)
