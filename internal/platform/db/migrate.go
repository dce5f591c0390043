package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate brings the schema up to date. PostgreSQL uses the versioned SQL
// migrations; SQLite falls back to gorm's AutoMigrate of the given models.
func Migrate(ctx context.Context, gdb *gorm.DB, driver string, models ...any) error {
	if driver != DriverPostgres {
		if err := gdb.WithContext(ctx).AutoMigrate(models...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		slog.Info("schema auto-migrated", "driver", driver, "models", len(models))
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return RunGoose(ctx, sqlDB, "up")
}

// RunGoose executes a goose command ("up", "down", "status", "version") with the embedded migrations.
func RunGoose(ctx context.Context, sqlDB *sql.DB, command string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: set dialect: %w", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, sqlDB, migrationsDir)
	case "down":
		err = goose.DownContext(ctx, sqlDB, migrationsDir)
	case "status":
		err = goose.StatusContext(ctx, sqlDB, migrationsDir)
	case "version":
		err = goose.VersionContext(ctx, sqlDB, migrationsDir)
	default:
		return fmt.Errorf("goose: unknown command %q", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	slog.Info("goose command completed", "command", command)
	return nil
}
