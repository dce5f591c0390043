// Package redis creates the Redis client used by the candle query cache.
package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"candle_catalog/internal/shared/envutil"
)

// Config holds the Redis connection settings. An empty Host disables caching.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// LoadConfig reads the Redis settings from environment variables.
func LoadConfig() Config {
	return Config{
		Host:     envutil.Get("REDIS_HOST", ""),
		Port:     envutil.Get("REDIS_PORT", "6379"),
		Password: envutil.Get("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
		CacheTTL: envutil.Duration("CACHE_TTL", 5*time.Minute),
	}
}

// Enabled reports whether a Redis host is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Addr returns host:port.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", cfg.Addr(), "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", cfg.Addr())
	return rdb, nil
}
