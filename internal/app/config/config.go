// Package config collects the application-level settings that are not owned by a platform package.
package config

import (
	"time"

	candlesusecase "candle_catalog/internal/feature/candles/usecase"
	"candle_catalog/internal/shared/envutil"
)

// Config holds the HTTP, collector and backfill knobs.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	Pairs      []string
	Timeframes []string
	Interval   time.Duration
	Autostart  bool

	Backfill candlesusecase.BackfillConfig
}

// Load reads the configuration from the environment.
func Load() Config {
	bf := candlesusecase.DefaultBackfillConfig()
	bf.MaxRows = envutil.Int("BACKFILL_MAX_ROWS", bf.MaxRows)
	bf.ChunkDelay = envutil.Duration("BACKFILL_CHUNK_DELAY", bf.ChunkDelay)
	bf.BatchSize = envutil.Int("BACKFILL_BATCH_SIZE", bf.BatchSize)
	bf.BatchPause = envutil.Duration("BACKFILL_BATCH_PAUSE", bf.BatchPause)

	return Config{
		HTTPAddr:        envutil.Get("HTTP_ADDR", ":8080"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSOrigins:     envutil.List("CORS_ORIGINS", nil),
		Pairs:           envutil.List("CATALOG_PAIRS", []string{"BTCUSDT", "XRPUSDT", "SOLUSDT"}),
		Timeframes:      envutil.List("CATALOG_TIMEFRAMES", []string{"1m", "5m", "15m"}),
		Interval:        envutil.Duration("CATALOG_INTERVAL", 60*time.Second),
		Autostart:       envutil.Bool("CATALOG_AUTOSTART", false),
		Backfill:        bf,
	}
}
