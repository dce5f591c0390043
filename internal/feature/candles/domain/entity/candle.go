// Package entity defines the domain models for the candles feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Color classifies a candle body by its direction.
type Color string

const (
	// ColorGreen marks a candle that closed at or above its open.
	ColorGreen Color = "GREEN"
	// ColorRed marks a candle that closed below its open.
	ColorRed Color = "RED"
)

// Candle represents one OHLCV observation for a (pair, timeframe, timestamp) triple.
// The calendar fields are redundant with Timestamp; they are cached for range and grouping queries.
type Candle struct {
	ID        string          // Deterministic UUIDv5 of the natural key
	Pair      string          // Trading pair symbol (e.g., "SOLUSDT")
	Timeframe string          // Timeframe label (e.g., "1m", "15m")
	Timestamp time.Time       // Open time of the interval, UTC
	Open      decimal.Decimal // Opening price
	High      decimal.Decimal // Highest price during this period
	Low       decimal.Decimal // Lowest price during this period
	Close     decimal.Decimal // Closing price
	Volume    decimal.Decimal // Base asset volume
	Color     Color           // GREEN if Close >= Open, RED otherwise

	Hour     int    // 0-23, UTC
	Minute   int    // 0-59
	Day      int    // 1-31
	Month    int    // 1-12
	Year     int    // e.g. 2024
	FullDate string // "YYYY-MM-DD"
	TimeKey  string // "HH:MM"
	DateKey  string // "YYYY-MM-DD"
}

// ColorOf returns the body color for the given open and close prices.
// A flat candle counts as GREEN.
func ColorOf(open, close decimal.Decimal) Color {
	if close.GreaterThanOrEqual(open) {
		return ColorGreen
	}
	return ColorRed
}
