package cache

import (
	"time"
)

// TimeUntilNextBoundary returns the time from now until the next multiple of step since the Unix epoch.
// Candle open times sit on these boundaries, so a cached query over the current candle goes stale there.
func TimeUntilNextBoundary(now time.Time, step time.Duration) time.Duration {
	if step <= 0 {
		return 0
	}
	elapsed := time.Duration(now.UnixNano()) % step
	return step - elapsed
}
