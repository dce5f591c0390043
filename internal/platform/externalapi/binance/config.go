// Package binance provides a client for the Binance spot market-data REST API.
package binance

import (
	"time"

	"candle_catalog/internal/shared/envutil"
)

// DefaultBaseURL is the public spot REST endpoint. Market data needs no API key.
const DefaultBaseURL = "https://api.binance.com"

// Config holds configuration for the Binance API client.
type Config struct {
	BaseURL   string        // Base URL for the API (e.g., "https://api.binance.com")
	Timeout   time.Duration // HTTP request timeout
	PerSecond float64       // Average request rate shared by every caller
	Burst     int           // Requests allowed back to back
}

// LoadConfig loads Binance configuration from environment variables.
func LoadConfig() Config {
	return Config{
		BaseURL:   envutil.Get("BINANCE_BASE_URL", DefaultBaseURL),
		Timeout:   envutil.Duration("BINANCE_TIMEOUT", 10*time.Second),
		PerSecond: envutil.Float("BINANCE_RPS", 10),
		Burst:     envutil.Int("BINANCE_BURST", 5),
	}
}
