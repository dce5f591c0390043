package di

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	candlesadapters "candle_catalog/internal/feature/candles/adapters"
	catalogentity "candle_catalog/internal/feature/catalog/domain/entity"
	"candle_catalog/internal/platform/cache"
	"candle_catalog/internal/platform/db"
	infraredis "candle_catalog/internal/platform/redis"
)

// Models lists every table AutoMigrate creates when migrations are not SQL-driven.
func Models() []any {
	return []any{&candlesadapters.CandleModel{}, &catalogentity.Settings{}, &catalogentity.LogEntry{}}
}

// NewDatabase opens the configured database and, when asked to, brings the schema up to date.
func NewDatabase(ctx context.Context, cfg db.Config) (*gorm.DB, error) {
	gdb, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations || cfg.Driver == db.DriverSQLite {
		if err := db.Migrate(ctx, gdb, cfg.Driver, Models()...); err != nil {
			return nil, err
		}
	}
	return gdb, nil
}

// NewRedis returns a connected client, or nil when Redis is disabled or unreachable.
func NewRedis(ctx context.Context, cfg infraredis.Config) *redis.Client {
	if !cfg.Enabled() {
		slog.Info("Redis disabled; running without cache")
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, cfg)
	if err != nil {
		slog.Warn("Redis unavailable; running without cache", "error", err)
		return nil
	}
	return rdb
}

// NewCandleStore returns the candle store, wrapped in the Redis cache when rdb is non-nil.
func NewCandleStore(gdb *gorm.DB, rdb *redis.Client, cfg infraredis.Config) cache.CandleStore {
	repo := candlesadapters.NewCandleRepository(gdb)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingCandleRepository(rdb, cfg.CacheTTL, repo, "candles")
}
