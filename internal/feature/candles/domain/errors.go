// Package domain defines domain-level errors for the candles feature.
package domain

import "errors"

// Domain errors for candle collection and querying.
// Adapters wrap their underlying failures with these so upper layers can classify them with errors.Is.
var (
	// ErrInvalidRequest indicates a malformed request (empty pair set, inverted range, ...).
	// It is always raised before any network or storage call.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownTimeframe indicates a timeframe label outside the supported calendar.
	ErrUnknownTimeframe = errors.New("unknown timeframe")

	// ErrTransport indicates the exchange could not be reached or answered with
	// an unusable response.
	ErrTransport = errors.New("exchange transport failure")

	// ErrRateLimited indicates the exchange rejected the call because of its request weight limits.
	ErrRateLimited = errors.New("exchange rate limit exceeded")

	// ErrNormalization indicates a raw exchange record could not be turned into a candle.
	ErrNormalization = errors.New("candle normalization failed")

	// ErrStorage indicates the candle store rejected a read or write.
	ErrStorage = errors.New("candle storage failure")
)
