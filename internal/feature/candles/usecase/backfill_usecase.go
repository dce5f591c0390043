package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"candle_catalog/internal/feature/candles/domain"
	"candle_catalog/internal/feature/candles/domain/entity"

	"github.com/google/uuid"
)

const (
	// ExchangeMaxRows is the hard row cap the exchange applies to one klines request.
	ExchangeMaxRows = 1000
	// MaxBackfillDays bounds a days-mode request.
	MaxBackfillDays = 3650
)

// MarketRepository issues single bounded klines requests against the exchange.
// It never chunks; that is the backfill engine's job.
type MarketRepository interface {
	// FetchRange returns klines with open times in [start, end], ascending, at most maxRows.
	FetchRange(ctx context.Context, symbol, timeframe string, start, end time.Time, maxRows int) ([]entity.RawKline, error)
}

// EventRecorder receives operator-facing failure reports. Implementations must not block for long.
type EventRecorder interface {
	RecordError(ctx context.Context, message, details string)
}

// BackfillConfig tunes the pacing of a backfill run.
type BackfillConfig struct {
	MaxRows              int           // rows requested per chunk, capped at ExchangeMaxRows
	ChunkDelay           time.Duration // fixed pause between chunk requests
	BatchSize            int           // rows per UpsertBatch call
	LargeBatchSize       int           // rows per UpsertBatch call for large buffers
	LargeBufferThreshold int           // buffer size above which LargeBatchSize applies
	BatchPause           time.Duration // pause between UpsertBatch calls
}

// DefaultBackfillConfig returns the production pacing.
func DefaultBackfillConfig() BackfillConfig {
	return BackfillConfig{
		MaxRows:              ExchangeMaxRows,
		ChunkDelay:           150 * time.Millisecond,
		BatchSize:            100,
		LargeBatchSize:       50,
		LargeBufferThreshold: 1000,
		BatchPause:           100 * time.Millisecond,
	}
}

func (c BackfillConfig) normalized() BackfillConfig {
	def := DefaultBackfillConfig()
	if c.MaxRows <= 0 || c.MaxRows > ExchangeMaxRows {
		c.MaxRows = def.MaxRows
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.LargeBatchSize <= 0 {
		c.LargeBatchSize = c.BatchSize
	}
	if c.LargeBufferThreshold <= 0 {
		c.LargeBufferThreshold = def.LargeBufferThreshold
	}
	if c.ChunkDelay < 0 {
		c.ChunkDelay = 0
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	return c
}

// BackfillOption customises a BackfillUsecase.
type BackfillOption func(*BackfillUsecase)

// WithClock replaces the wall clock used to resolve request ranges.
func WithClock(now func() time.Time) BackfillOption {
	return func(b *BackfillUsecase) { b.now = now }
}

// WithEventRecorder routes combo failures to r.
func WithEventRecorder(r EventRecorder) BackfillOption {
	return func(b *BackfillUsecase) { b.events = r }
}

// BackfillUsecase collects historical candles over a date range and stores them.
type BackfillUsecase struct {
	market MarketRepository
	writer CandleWriter
	events EventRecorder
	cfg    BackfillConfig
	now    func() time.Time
}

// NewBackfillUsecase creates a BackfillUsecase.
func NewBackfillUsecase(market MarketRepository, writer CandleWriter, cfg BackfillConfig, opts ...BackfillOption) *BackfillUsecase {
	b := &BackfillUsecase{
		market: market,
		writer: writer,
		cfg:    cfg.normalized(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// plan is a validated request.
type plan struct {
	pairs      []string
	timeframes []string
	period     entity.Period
}

// Run executes req. Validation failures return an error wrapping domain.ErrInvalidRequest and
// a result with Success=false; every other failure is counted in the result instead.
func (b *BackfillUsecase) Run(ctx context.Context, req entity.BackfillRequest) (entity.BackfillResult, error) {
	p, err := b.validate(req)
	if err != nil {
		return entity.BackfillResult{Success: false, Message: err.Error()}, err
	}

	res := entity.BackfillResult{
		RunID:   uuid.NewString(),
		Success: true,
		Period:  p.period,
	}
	slog.Info("backfill started",
		"run_id", res.RunID,
		"pairs", p.pairs,
		"timeframes", p.timeframes,
		"start", p.period.Start,
		"end", p.period.End,
	)

	skipped := 0
	for _, pair := range p.pairs {
		for _, tf := range p.timeframes {
			if ctx.Err() != nil {
				skipped++
				continue
			}
			combo, failures := b.runCombo(ctx, pair, tf, p.period)
			res.Combos = append(res.Combos, combo)
			res.FailedChunks = append(res.FailedChunks, failures...)
			res.TotalFound += combo.Found
			res.Saved += combo.Saved
			res.Errors += combo.Errors

			if combo.Errors > 0 {
				b.recordComboFailure(ctx, res.RunID, combo, failures)
			}
		}
	}

	res.Message = fmt.Sprintf("collected %d candles, saved %d, %d errors", res.TotalFound, res.Saved, res.Errors)
	if skipped > 0 {
		res.Message += fmt.Sprintf("; cancelled, %d combinations skipped", skipped)
	}
	slog.Info("backfill finished",
		"run_id", res.RunID,
		"found", res.TotalFound,
		"saved", res.Saved,
		"errors", res.Errors,
		"skipped", skipped,
	)
	return res, nil
}

func (b *BackfillUsecase) validate(req entity.BackfillRequest) (plan, error) {
	pairs, err := normalizePairs(req.Pairs)
	if err != nil {
		return plan{}, err
	}
	tfs, err := normalizeTimeframes(req.Timeframes)
	if err != nil {
		return plan{}, err
	}

	now := b.now().UTC().Truncate(time.Millisecond)
	var period entity.Period
	if req.ByRange() {
		if req.StartDate == "" || req.EndDate == "" {
			return plan{}, fmt.Errorf("%w: startDate and endDate are both required", domain.ErrInvalidRequest)
		}
		from, err := time.Parse(entity.DateLayout, req.StartDate)
		if err != nil {
			return plan{}, fmt.Errorf("%w: invalid startDate %q", domain.ErrInvalidRequest, req.StartDate)
		}
		to, err := time.Parse(entity.DateLayout, req.EndDate)
		if err != nil {
			return plan{}, fmt.Errorf("%w: invalid endDate %q", domain.ErrInvalidRequest, req.EndDate)
		}
		if from.After(to) {
			return plan{}, fmt.Errorf("%w: startDate %s is after endDate %s", domain.ErrInvalidRequest, req.StartDate, req.EndDate)
		}
		period.Start = from
		period.End = to.Add(24 * time.Hour)
		if period.End.After(now) {
			period.End = now
		}
	} else {
		if req.Days <= 0 {
			return plan{}, fmt.Errorf("%w: days must be positive, got %d", domain.ErrInvalidRequest, req.Days)
		}
		if req.Days > MaxBackfillDays {
			return plan{}, fmt.Errorf("%w: days must be at most %d, got %d", domain.ErrInvalidRequest, MaxBackfillDays, req.Days)
		}
		period.End = now
		period.Start = now.Add(-time.Duration(req.Days) * 24 * time.Hour)
	}
	if !period.Start.Before(period.End) {
		return plan{}, fmt.Errorf("%w: empty range [%s, %s)", domain.ErrInvalidRequest,
			period.Start.Format(time.RFC3339), period.End.Format(time.RFC3339))
	}

	return plan{pairs: pairs, timeframes: tfs, period: period}, nil
}

func normalizePairs(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one pair is required", domain.ErrInvalidRequest)
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		p := strings.ToUpper(strings.TrimSpace(raw))
		if p == "" {
			return nil, fmt.Errorf("%w: blank pair", domain.ErrInvalidRequest)
		}
		for _, r := range p {
			if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				return nil, fmt.Errorf("%w: invalid pair %q", domain.ErrInvalidRequest, raw)
			}
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func normalizeTimeframes(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one timeframe is required", domain.ErrInvalidRequest)
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		tf := strings.TrimSpace(raw)
		if _, err := entity.StepOf(tf); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		if _, dup := seen[tf]; dup {
			continue
		}
		seen[tf] = struct{}{}
		out = append(out, tf)
	}
	return out, nil
}

// runCombo pages through [period.Start, period.End) for one pair and timeframe, then persists the buffer.
// Chunks are half-open windows [cursor, cursor+step*MaxRows) so consecutive windows neither overlap nor leave gaps.
func (b *BackfillUsecase) runCombo(ctx context.Context, pair, tf string, period entity.Period) (entity.ComboResult, []entity.ChunkFailure) {
	combo := entity.ComboResult{Pair: pair, Timeframe: tf}
	var failures []entity.ChunkFailure

	step, _ := entity.StepOf(tf)
	span := step * time.Duration(b.cfg.MaxRows)

	var buf []entity.Candle
	seen := make(map[int64]struct{})

	for cursor := period.Start; cursor.Before(period.End); {
		if ctx.Err() != nil {
			break
		}
		spanEnd := cursor.Add(span)
		if spanEnd.After(period.End) {
			spanEnd = period.End
		}
		chunkEnd := spanEnd.Add(-time.Millisecond)

		combo.Requests++
		raws, err := b.market.FetchRange(ctx, pair, tf, cursor, chunkEnd, b.cfg.MaxRows)
		if err != nil {
			combo.Errors++
			failures = append(failures, entity.ChunkFailure{
				Pair:      pair,
				Timeframe: tf,
				From:      cursor,
				To:        chunkEnd,
				Error:     err.Error(),
			})
			slog.Warn("backfill chunk failed",
				"pair", pair,
				"timeframe", tf,
				"from", cursor,
				"to", chunkEnd,
				"error", err,
			)
		}

		for _, raw := range raws {
			ts := time.UnixMilli(raw.OpenTime).UTC()
			if ts.Before(cursor) || !ts.Before(spanEnd) {
				continue
			}
			if _, dup := seen[raw.OpenTime]; dup {
				continue
			}
			c, err := entity.NormalizeKline(raw, pair, tf)
			if err != nil {
				combo.Errors++
				slog.Warn("dropping kline", "pair", pair, "timeframe", tf, "open_time", raw.OpenTime, "error", err)
				continue
			}
			seen[raw.OpenTime] = struct{}{}
			buf = append(buf, c)
		}

		cursor = spanEnd
		if cursor.Before(period.End) {
			if err := sleepCtx(ctx, b.cfg.ChunkDelay); err != nil {
				break
			}
		}
	}

	combo.Found = len(buf)
	saved, failed := b.persist(ctx, pair, tf, buf)
	combo.Saved = saved
	combo.Errors += failed

	slog.Info("backfill combination done",
		"pair", pair,
		"timeframe", tf,
		"requests", combo.Requests,
		"found", combo.Found,
		"saved", combo.Saved,
		"errors", combo.Errors,
	)
	return combo, failures
}

// persist upserts buf in batches. A failed batch counts its rows as errors and the next batch still runs.
// Rows already collected are written even if ctx has been cancelled. A BulkCandleWriter is
// invalidated once for the combination after the last batch.
func (b *BackfillUsecase) persist(ctx context.Context, pair, tf string, buf []entity.Candle) (saved, failed int) {
	if len(buf) == 0 {
		return 0, 0
	}
	ctx = context.WithoutCancel(ctx)

	size := b.cfg.BatchSize
	if len(buf) > b.cfg.LargeBufferThreshold {
		size = b.cfg.LargeBatchSize
	}

	upsert := b.writer.UpsertBatch
	bulk, isBulk := b.writer.(BulkCandleWriter)
	if isBulk {
		upsert = bulk.UpsertBatchDeferred
	}

	for i := 0; i < len(buf); i += size {
		j := min(i+size, len(buf))
		if err := upsert(ctx, buf[i:j]); err != nil {
			failed += j - i
			slog.Error("failed to save candle batch",
				"pair", pair,
				"timeframe", tf,
				"rows", j-i,
				"error", err,
			)
		} else {
			saved += j - i
		}
		if j < len(buf) {
			_ = sleepCtx(ctx, b.cfg.BatchPause)
		}
	}

	if isBulk && saved > 0 {
		if err := bulk.InvalidateFor(ctx, pair, tf); err != nil {
			slog.Warn("cache invalidation failed", "pair", pair, "timeframe", tf, "error", err)
		}
	}
	return saved, failed
}

func (b *BackfillUsecase) recordComboFailure(ctx context.Context, runID string, combo entity.ComboResult, failures []entity.ChunkFailure) {
	if b.events == nil {
		return
	}
	details := fmt.Sprintf("run %s: %d requests, %d found, %d saved", runID, combo.Requests, combo.Found, combo.Saved)
	if len(failures) > 0 {
		details += "; first failure: " + failures[0].Error
	}
	b.events.RecordError(context.WithoutCancel(ctx),
		fmt.Sprintf("backfill %s %s finished with %d errors", combo.Pair, combo.Timeframe, combo.Errors),
		details,
	)
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
