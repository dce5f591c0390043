package binance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"candle_catalog/internal/feature/candles/domain"
	"candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/candles/usecase"
	"candle_catalog/internal/shared/ratelimiter"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// MaxLimit is the largest page the klines endpoint returns.
const MaxLimit = 1000

// Market fetches klines from Binance. It is stateless apart from the shared
// rate limiter and is safe for concurrent use.
type Market struct {
	client  *gobinance.Client
	limiter ratelimiter.RateLimiterInterface
}

// Market must satisfy the backfill engine's repository contract.
var _ usecase.MarketRepository = (*Market)(nil)

// NewMarket creates a Market that sends requests through httpClient and waits on limiter before each call.
func NewMarket(cfg Config, httpClient *http.Client, limiter ratelimiter.RateLimiterInterface) *Market {
	c := gobinance.NewClient("", "")
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		c.HTTPClient = httpClient
	}
	return &Market{client: c, limiter: limiter}
}

// FetchRange issues one GET /api/v3/klines for open times in [start, end].
func (m *Market) FetchRange(ctx context.Context, symbol, timeframe string, start, end time.Time, maxRows int) ([]entity.RawKline, error) {
	const op = "FetchRange"
	if err := m.wait(ctx, op); err != nil {
		return nil, err
	}
	ks, err := m.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(clampLimit(maxRows)).
		Do(ctx)
	if err != nil {
		return nil, handleError(op, symbol, timeframe, err)
	}
	return translateKlines(ks), nil
}

// FetchLatest returns the most recent limit klines without time bounds.
func (m *Market) FetchLatest(ctx context.Context, symbol, timeframe string, limit int) ([]entity.RawKline, error) {
	const op = "FetchLatest"
	if err := m.wait(ctx, op); err != nil {
		return nil, err
	}
	ks, err := m.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(clampLimit(limit)).
		Do(ctx)
	if err != nil {
		return nil, handleError(op, symbol, timeframe, err)
	}
	return translateKlines(ks), nil
}

// Ping checks connectivity to the exchange.
func (m *Market) Ping(ctx context.Context) error {
	const op = "Ping"
	if err := m.wait(ctx, op); err != nil {
		return err
	}
	if err := m.client.NewPingService().Do(ctx); err != nil {
		return handleError(op, "", "", err)
	}
	return nil
}

func (m *Market) wait(ctx context.Context, op string) error {
	if m.limiter == nil {
		return nil
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w: waiting for rate limiter: %w", op, domain.ErrTransport, err)
	}
	return nil
}

func clampLimit(n int) int {
	if n <= 0 || n > MaxLimit {
		return MaxLimit
	}
	return n
}

func translateKlines(ks []*gobinance.Kline) []entity.RawKline {
	out := make([]entity.RawKline, 0, len(ks))
	for _, k := range ks {
		if k == nil {
			continue
		}
		out = append(out, entity.RawKline{
			OpenTime:                 k.OpenTime,
			Open:                     k.Open,
			High:                     k.High,
			Low:                      k.Low,
			Close:                    k.Close,
			Volume:                   k.Volume,
			CloseTime:                k.CloseTime,
			QuoteAssetVolume:         k.QuoteAssetVolume,
			TradeNum:                 k.TradeNum,
			TakerBuyBaseAssetVolume:  k.TakerBuyBaseAssetVolume,
			TakerBuyQuoteAssetVolume: k.TakerBuyQuoteAssetVolume,
		})
	}
	return out
}

// handleError wraps every failure as a transport error and classifies Binance API error codes.
func handleError(op, symbol, timeframe string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		slog.Warn("binance API error",
			"operation", op,
			"symbol", symbol,
			"timeframe", timeframe,
			"code", apiErr.Code,
			"message", apiErr.Message,
		)
		switch {
		case apiErr.Code == -1003: // Too many requests
			return fmt.Errorf("%s %s %s: %w: %w: %w", op, symbol, timeframe, domain.ErrTransport, domain.ErrRateLimited, err)
		case apiErr.Code <= -1100 && apiErr.Code >= -1130: // Parameter/Request format errors
			return fmt.Errorf("%s %s %s: %w: %w: %w", op, symbol, timeframe, domain.ErrTransport, domain.ErrInvalidRequest, err)
		}
	}
	return fmt.Errorf("%s %s %s: %w: %w", op, symbol, timeframe, domain.ErrTransport, err)
}
