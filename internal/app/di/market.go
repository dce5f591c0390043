// Package di provides the factories that wire the application together.
package di

import (
	"candle_catalog/internal/platform/externalapi/binance"
	infrahttp "candle_catalog/internal/platform/http"
	"candle_catalog/internal/shared/ratelimiter"
)

// NewMarket creates the Binance client with its HTTP client and a rate limiter
// shared by every caller of the returned Market.
func NewMarket() *binance.Market {
	cfg := binance.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	limiter := ratelimiter.NewRateLimiter(cfg.PerSecond, cfg.Burst)
	return binance.NewMarket(cfg, httpClient, limiter)
}
