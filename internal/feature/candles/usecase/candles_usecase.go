// Package usecase implements the candle catalog business logic: queries and historical backfills.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"candle_catalog/internal/feature/candles/domain"
	"candle_catalog/internal/feature/candles/domain/entity"
)

const (
	// DefaultQueryLimit caps a candle query when the caller gives no limit.
	DefaultQueryLimit = 2000
	// MaxQueryLimit is the largest accepted query limit.
	MaxQueryLimit = 20000
)

// CandleRepository abstracts the read side of the candle store.
// Interfaces are defined by the consumer (usecase), not the provider (adapters).
type CandleRepository interface {
	// Find returns candles matching the query in ascending time order.
	Find(ctx context.Context, q entity.CandleQuery) ([]entity.Candle, error)
	// Summary aggregates the whole catalog.
	Summary(ctx context.Context) (entity.Summary, error)
}

// CandleWriter is the idempotent write side of the candle store.
type CandleWriter interface {
	UpsertBatch(ctx context.Context, candles []entity.Candle) error
}

// BulkCandleWriter is a CandleWriter with derived read state (a query cache) that can be
// refreshed once after a bulk load instead of after every batch.
type BulkCandleWriter interface {
	CandleWriter
	// UpsertBatchDeferred writes like UpsertBatch but leaves derived state stale.
	UpsertBatchDeferred(ctx context.Context, candles []entity.Candle) error
	// InvalidateFor drops the derived state of one pair and timeframe.
	InvalidateFor(ctx context.Context, pair, timeframe string) error
}

// candlesUsecase serves stored candles to the query API.
type candlesUsecase struct {
	candle CandleRepository
}

// NewCandlesUsecase creates a candlesUsecase.
func NewCandlesUsecase(candle CandleRepository) *candlesUsecase {
	return &candlesUsecase{candle: candle}
}

// GetCandles validates q and returns the matching candles.
func (cu *candlesUsecase) GetCandles(ctx context.Context, q entity.CandleQuery) ([]entity.Candle, error) {
	q.Pair = strings.ToUpper(strings.TrimSpace(q.Pair))
	if q.Pair == "" {
		return nil, fmt.Errorf("%w: pair is required", domain.ErrInvalidRequest)
	}
	if !entity.IsSupportedTimeframe(q.Timeframe) {
		return nil, fmt.Errorf("%w: %w: %q", domain.ErrInvalidRequest, domain.ErrUnknownTimeframe, q.Timeframe)
	}
	if q.FromDate == "" || q.ToDate == "" {
		return nil, fmt.Errorf("%w: a date or date range is required", domain.ErrInvalidRequest)
	}
	from, err := time.Parse(entity.DateLayout, q.FromDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date %q", domain.ErrInvalidRequest, q.FromDate)
	}
	to, err := time.Parse(entity.DateLayout, q.ToDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date %q", domain.ErrInvalidRequest, q.ToDate)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", domain.ErrInvalidRequest, q.FromDate, q.ToDate)
	}
	if q.Hour != nil && (*q.Hour < 0 || *q.Hour > 23) {
		return nil, fmt.Errorf("%w: hour must be between 0 and 23", domain.ErrInvalidRequest)
	}
	if q.Limit <= 0 || q.Limit > MaxQueryLimit {
		q.Limit = DefaultQueryLimit
	}

	return cu.candle.Find(ctx, q)
}

// GetSummary returns the catalog-wide aggregate.
func (cu *candlesUsecase) GetSummary(ctx context.Context) (entity.Summary, error) {
	return cu.candle.Summary(ctx)
}
