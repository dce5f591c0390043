// Command migrate applies the embedded SQL migrations to the configured PostgreSQL database.
//
//	migrate [up|down|status|version]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"candle_catalog/internal/platform/db"
	"candle_catalog/internal/platform/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logger.Setup()
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx := context.Background()
	cfg := db.LoadConfigFromEnv()
	if cfg.Driver != db.DriverPostgres {
		slog.Error("SQL migrations target PostgreSQL; SQLite schemas are created on startup", "driver", cfg.Driver)
		os.Exit(1)
	}

	gdb, err := db.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.SQLDB(gdb)
	if err != nil {
		slog.Error("failed to get sql.DB", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	if err := db.RunGoose(ctx, sqlDB, command); err != nil {
		slog.Error("migration failed", "command", command, "error", err)
		_ = sqlDB.Close()
		os.Exit(1)
	}
}
