package di

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"candle_catalog/internal/app/config"
	"candle_catalog/internal/app/router"
	candleshandler "candle_catalog/internal/feature/candles/transport/handler"
	candlesusecase "candle_catalog/internal/feature/candles/usecase"
	catalogadapters "candle_catalog/internal/feature/catalog/adapters"
	cataloghandler "candle_catalog/internal/feature/catalog/transport/handler"
	catalogusecase "candle_catalog/internal/feature/catalog/usecase"
	"candle_catalog/internal/platform/cache"
	"candle_catalog/internal/platform/db"
	"candle_catalog/internal/platform/externalapi/binance"
	"candle_catalog/internal/platform/http/handler"
	jwtmw "candle_catalog/internal/platform/jwt"
	infraredis "candle_catalog/internal/platform/redis"
)

// App holds the long-lived components of a running process.
type App struct {
	Config    config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Market    *binance.Market
	Store     cache.CandleStore
	Journal   *catalogusecase.Journal
	Backfill  *candlesusecase.BackfillUsecase
	Collector *catalogusecase.Collector
	Reset     *catalogusecase.ResetUsecase
}

// Build connects to the database and Redis and wires every use case.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	gdb, err := NewDatabase(ctx, db.LoadConfigFromEnv())
	if err != nil {
		return nil, err
	}
	redisCfg := infraredis.LoadConfig()
	rdb := NewRedis(ctx, redisCfg)

	market := NewMarket()
	store := NewCandleStore(gdb, rdb, redisCfg)
	journal := catalogusecase.NewJournal(catalogadapters.NewLogRepository(gdb))
	settings := catalogadapters.NewSettingsRepository(gdb)

	backfill := candlesusecase.NewBackfillUsecase(market, store, cfg.Backfill,
		candlesusecase.WithEventRecorder(journal))

	collectorCfg := catalogusecase.CollectorConfig{
		Pairs:      cfg.Pairs,
		Timeframes: cfg.Timeframes,
		Interval:   cfg.Interval,
	}
	collector := catalogusecase.NewCollector(market, store, settings, journal, collectorCfg)
	reset := catalogusecase.NewResetUsecase(collector, store, settings, backfill, journal, collectorCfg)

	return &App{
		Config:    cfg,
		DB:        gdb,
		Redis:     rdb,
		Market:    market,
		Store:     store,
		Journal:   journal,
		Backfill:  backfill,
		Collector: collector,
		Reset:     reset,
	}, nil
}

// Router builds the HTTP surface over the wired use cases.
func (a *App) Router(jwtSecret string) *gin.Engine {
	candlesUC := candlesusecase.NewCandlesUsecase(a.Store)

	checks := []handler.Check{
		{Name: "database", Probe: func(ctx context.Context) error { return db.Ping(ctx, a.DB) }},
		{Name: "binance", Probe: a.Market.Ping},
	}
	if a.Redis != nil {
		checks = append(checks, handler.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}})
	}

	if jwtSecret == "" {
		slog.Warn("JWT_SECRET is not set; admin routes will answer 500")
	}

	return router.NewRouter(router.Handlers{
		Candles:    candleshandler.NewCandlesHandler(candlesUC),
		Historical: candleshandler.NewHistoricalHandler(a.Backfill, candlesUC),
		Catalog:    cataloghandler.NewCatalogHandler(a.Collector, a.Journal),
		Admin:      cataloghandler.NewAdminHandler(a.Reset),
		Readiness:  handler.Readiness(5*time.Second, checks...),
	}, router.Options{
		JWTSecret:   jwtSecret,
		CORSOrigins: a.Config.CORSOrigins,
	})
}

// Close stops the collector and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Collector != nil {
		errs = append(errs, a.Collector.Shutdown(ctx))
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// JWTSecret reads the admin signing secret; an empty string disables admin routes.
func JWTSecret() string {
	secret, err := jwtmw.LoadSecret()
	if err != nil {
		return ""
	}
	return secret
}
