package dto

import (
	"time"

	"candle_catalog/internal/feature/candles/domain/entity"
)

// CandleResponse is one stored candle. Decimal fields are rendered as strings so
// no precision is lost on the way to the dashboard.
type CandleResponse struct {
	ID        string    `json:"id"`
	Pair      string    `json:"pair"`
	Timeframe string    `json:"timeframe"`
	Timestamp time.Time `json:"timestamp"`
	Open      string    `json:"open"`
	High      string    `json:"high"`
	Low       string    `json:"low"`
	Close     string    `json:"close"`
	Volume    string    `json:"volume"`
	Color     string    `json:"color"`
	Hour      int       `json:"hour"`
	Minute    int       `json:"minute"`
	Day       int       `json:"day"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	FullDate  string    `json:"fullDate"`
	TimeKey   string    `json:"timeKey"`
	DateKey   string    `json:"dateKey"`
}

// CandlesResponse wraps a query result.
type CandlesResponse struct {
	Pair      string           `json:"pair"`
	Timeframe string           `json:"timeframe"`
	Count     int              `json:"count"`
	Candles   []CandleResponse `json:"candles"`
}

// NewCandlesResponse converts entities into the wire shape.
func NewCandlesResponse(pair, timeframe string, candles []entity.Candle) CandlesResponse {
	out := make([]CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, CandleResponse{
			ID:        x.ID,
			Pair:      x.Pair,
			Timeframe: x.Timeframe,
			Timestamp: x.Timestamp.UTC(),
			Open:      x.Open.String(),
			High:      x.High.String(),
			Low:       x.Low.String(),
			Close:     x.Close.String(),
			Volume:    x.Volume.String(),
			Color:     string(x.Color),
			Hour:      x.Hour,
			Minute:    x.Minute,
			Day:       x.Day,
			Month:     x.Month,
			Year:      x.Year,
			FullDate:  x.FullDate,
			TimeKey:   x.TimeKey,
			DateKey:   x.DateKey,
		})
	}
	return CandlesResponse{Pair: pair, Timeframe: timeframe, Count: len(out), Candles: out}
}
