package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Redis persists KV entries as plain Redis strings under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// OpenRedis connects using cfg and verifies the connection.
func OpenRedis(ctx context.Context, cfg *config.Redis, logger *slog.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.PoolSize = cfg.PoolSize
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedis(client, cfg.KeyPrefix, logger), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client: client,
		prefix: prefix,
		logger: logger.With(slog.String("component", "redis_kv")),
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

// Get returns the value stored under key, or nil when absent.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis key not found", "key", key)
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Redis get error", "key", key, "error", err)
		return nil, err
	}
	return val, nil
}

// Set stores value under key without expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		r.logger.Error("Redis set error", "key", key, "error", err)
		return err
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
