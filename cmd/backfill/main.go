// Command backfill runs one historical collection and prints the result as JSON.
//
//	backfill -pairs BTCUSDT,ETHUSDT -timeframes 1m,1h -days 7
//	backfill -pairs SOLUSDT -timeframes 1m -start 2024-01-01 -end 2024-01-03
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"candle_catalog/internal/app/config"
	"candle_catalog/internal/app/di"
	"candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/platform/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logger.SetupTo(os.Stderr)

	cfg := config.Load()
	pairs := flag.String("pairs", strings.Join(cfg.Pairs, ","), "comma-separated trading pairs")
	timeframes := flag.String("timeframes", strings.Join(cfg.Timeframes, ","), "comma-separated timeframes")
	days := flag.Int("days", 0, "number of days back from now")
	start := flag.String("start", "", "first day (YYYY-MM-DD), used with -end")
	end := flag.String("end", "", "last day inclusive (YYYY-MM-DD)")
	flag.Parse()

	// Ctrl-C stops paging; rows already fetched are still saved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer func() { _ = app.Close(context.Background()) }()

	req := entity.BackfillRequest{
		Pairs:      split(*pairs),
		Timeframes: split(*timeframes),
		Days:       *days,
		StartDate:  *start,
		EndDate:    *end,
	}
	res, runErr := app.Backfill.Run(ctx, req)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		slog.Error("failed to write result", "error", err)
	}
	if runErr != nil {
		slog.Error("backfill rejected", "error", runErr)
		_ = app.Close(context.Background())
		os.Exit(2)
	}
}

func split(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
