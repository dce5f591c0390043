package db

import (
	"time"

	"candle_catalog/internal/shared/envutil"
)

const (
	// DriverPostgres selects PostgreSQL through pgx.
	DriverPostgres = "postgres"
	// DriverSQLite selects a local SQLite file, used for development and tests.
	DriverSQLite = "sqlite"
)

// Config holds the database connection settings.
type Config struct {
	Driver         string
	User           string
	Password       string
	Name           string
	Host           string
	Port           string
	SSLMode        string
	SQLitePath     string
	ConnectTimeout time.Duration // total time spent retrying the first connection
	RetryInterval  time.Duration
	MaxOpenConns   int
	RunMigrations  bool
}

// LoadConfigFromEnv reads the database settings from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Driver:         envutil.Get("DB_DRIVER", DriverPostgres),
		User:           envutil.Get("DB_USER", "postgres"),
		Password:       envutil.Get("DB_PASSWORD", ""),
		Name:           envutil.Get("DB_NAME", "candle_catalog"),
		Host:           envutil.Get("DB_HOST", "localhost"),
		Port:           envutil.Get("DB_PORT", "5432"),
		SSLMode:        envutil.Get("DB_SSLMODE", "disable"),
		SQLitePath:     envutil.Get("SQLITE_PATH", "candle_catalog.db"),
		ConnectTimeout: envutil.Duration("DB_CONNECT_TIMEOUT", 60*time.Second),
		RetryInterval:  envutil.Duration("DB_RETRY_INTERVAL", 3*time.Second),
		MaxOpenConns:   envutil.Int("DB_MAX_OPEN_CONNS", 10),
		RunMigrations:  envutil.Bool("RUN_MIGRATIONS", false),
	}
}
