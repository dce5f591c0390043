package entity

import (
	"fmt"
	"sort"
	"time"

	"candle_catalog/internal/feature/candles/domain"
)

// timeframeSteps maps every supported timeframe label to the duration of one candle.
var timeframeSteps = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// StepOf returns the duration of one candle of the given timeframe.
// Unknown labels are rejected with domain.ErrUnknownTimeframe; there is no fallback step.
func StepOf(timeframe string) (time.Duration, error) {
	step, ok := timeframeSteps[timeframe]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownTimeframe, timeframe)
	}
	return step, nil
}

// DurationMs returns the duration of one candle of the given timeframe in milliseconds.
func DurationMs(timeframe string) (int64, error) {
	step, err := StepOf(timeframe)
	if err != nil {
		return 0, err
	}
	return step.Milliseconds(), nil
}

// IsSupportedTimeframe reports whether the label belongs to the calendar.
func IsSupportedTimeframe(timeframe string) bool {
	_, ok := timeframeSteps[timeframe]
	return ok
}

// SupportedTimeframes returns all supported labels ordered by ascending duration.
func SupportedTimeframes() []string {
	out := make([]string, 0, len(timeframeSteps))
	for tf := range timeframeSteps {
		out = append(out, tf)
	}
	sort.Slice(out, func(i, j int) bool {
		return timeframeSteps[out[i]] < timeframeSteps[out[j]]
	})
	return out
}
