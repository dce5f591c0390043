// Package db opens the relational store shared by the candle and catalog repositories.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Opener opens a gorm connection for a DSN. It is swapped out in tests.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN returns the PostgreSQL connection URL for cfg.
func BuildDSN(cfg Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + cfg.Port,
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	q.Set("timezone", "UTC")
	u.RawQuery = q.Encode()
	return u.String()
}

// gormConfig routes gorm's own logging through slog.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             500 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}
}

// openPostgres parses dsn with pgx and hands the resulting *sql.DB to gorm.
func openPostgres(dsn string) (*gorm.DB, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	sqlDB := stdlib.OpenDB(*connCfg)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
}

func openSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), gormConfig())
}

// ConnectWithRetry calls opener until it succeeds, waiting interval between attempts, for at most timeout.
func ConnectWithRetry(ctx context.Context, dsn string, timeout, interval time.Duration, opener Opener) (*gorm.DB, error) {
	if interval <= 0 {
		interval = time.Second
	}
	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(interval))

	var db *gorm.DB
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		conn, err := opener(dsn)
		if err != nil {
			slog.Warn("DB connect failed, retrying", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("DB connect failed after %d attempts: %w", attempt, err)
	}
	return db, nil
}

// Open connects to the configured database, retrying while it comes up.
func Open(ctx context.Context, cfg Config) (*gorm.DB, error) {
	var (
		dsn    string
		opener Opener
	)
	switch cfg.Driver {
	case DriverPostgres:
		dsn, opener = BuildDSN(cfg), openPostgres
	case DriverSQLite:
		dsn, opener = cfg.SQLitePath, openSQLite
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	gdb, err := ConnectWithRetry(ctx, dsn, cfg.ConnectTimeout, cfg.RetryInterval, opener)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	slog.Info("database connection established", "driver", cfg.Driver)
	return gdb, nil
}

// Ping checks that the underlying connection is alive.
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SQLDB exposes the *sql.DB behind gdb for tools such as goose.
func SQLDB(gdb *gorm.DB) (*sql.DB, error) {
	return gdb.DB()
}
