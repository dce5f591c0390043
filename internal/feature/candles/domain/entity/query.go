package entity

import (
	"fmt"
	"time"
)

// CandleQuery selects stored candles for one pair and timeframe.
// FromDate/ToDate are inclusive "YYYY-MM-DD" bounds; Hour narrows a single date to one hour.
type CandleQuery struct {
	Pair      string
	Timeframe string
	FromDate  string
	ToDate    string
	Hour      *int
	Limit     int
}

// CacheKey returns a stable identifier for the query, used by read-through caches.
func (q CandleQuery) CacheKey() string {
	hour := "*"
	if q.Hour != nil {
		hour = fmt.Sprintf("%02d", *q.Hour)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d", q.Pair, q.Timeframe, q.FromDate, q.ToDate, hour, q.Limit)
}

// Summary is an aggregate view of the whole catalog.
type Summary struct {
	TotalCandles int64      `json:"totalCandles"`
	Pairs        []string   `json:"pairs"`
	Timeframes   []string   `json:"timeframes"`
	DateRange    *DateRange `json:"dateRange"`
}

// DateRange is the span between the oldest and newest stored candle.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
