package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "CATALOG_PAIRS", "CATALOG_TIMEFRAMES", "CATALOG_INTERVAL", "CATALOG_AUTOSTART", "BACKFILL_MAX_ROWS", "BACKFILL_CHUNK_DELAY"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"BTCUSDT", "XRPUSDT", "SOLUSDT"}, cfg.Pairs)
	assert.Equal(t, []string{"1m", "5m", "15m"}, cfg.Timeframes)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.False(t, cfg.Autostart)
	assert.Equal(t, 1000, cfg.Backfill.MaxRows)
	assert.Equal(t, 150*time.Millisecond, cfg.Backfill.ChunkDelay)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CATALOG_PAIRS", "ethusdt, BTCUSDT")
	t.Setenv("CATALOG_TIMEFRAMES", "1h")
	t.Setenv("CATALOG_INTERVAL", "30")
	t.Setenv("CATALOG_AUTOSTART", "true")
	t.Setenv("BACKFILL_MAX_ROWS", "500")
	t.Setenv("BACKFILL_CHUNK_DELAY", "250ms")
	t.Setenv("BACKFILL_BATCH_SIZE", "200")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"ethusdt", "BTCUSDT"}, cfg.Pairs)
	assert.Equal(t, []string{"1h"}, cfg.Timeframes)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.True(t, cfg.Autostart)
	assert.Equal(t, 500, cfg.Backfill.MaxRows)
	assert.Equal(t, 250*time.Millisecond, cfg.Backfill.ChunkDelay)
	assert.Equal(t, 200, cfg.Backfill.BatchSize)
}
