package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	candles "candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/catalog/domain/entity"
)

// DefaultResetDays is how much history a reset reloads when the caller does not say.
const DefaultResetDays = 60

// CollectorControl stops the live collector.
type CollectorControl interface {
	Stop(ctx context.Context) error
}

// CandlePurger wipes the candle store.
type CandlePurger interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// Backfiller runs a historical collection.
type Backfiller interface {
	Run(ctx context.Context, req candles.BackfillRequest) (candles.BackfillResult, error)
}

// InfoRecorder journals operator-facing milestones.
type InfoRecorder interface {
	RecordInfo(ctx context.Context, message string)
}

// ResetUsecase wipes the catalog and reloads it from the exchange.
type ResetUsecase struct {
	collector CollectorControl
	store     CandlePurger
	settings  SettingsRepository
	backfill  Backfiller
	journal   InfoRecorder
	cfg       CollectorConfig
}

func NewResetUsecase(collector CollectorControl, store CandlePurger, settings SettingsRepository, backfill Backfiller, journal InfoRecorder, cfg CollectorConfig) *ResetUsecase {
	return &ResetUsecase{
		collector: collector,
		store:     store,
		settings:  settings,
		backfill:  backfill,
		journal:   journal,
		cfg:       cfg,
	}
}

// Run stops collection, deletes every candle and the settings row, backfills
// days of history for the configured pairs and timeframes, and re-creates the
// settings in the stopped state.
func (r *ResetUsecase) Run(ctx context.Context, days int) (entity.ResetResult, error) {
	if days <= 0 {
		days = DefaultResetDays
	}
	res := entity.ResetResult{Days: days}

	if err := r.collector.Stop(ctx); err != nil {
		return res, fmt.Errorf("stop collector: %w", err)
	}
	deleted, err := r.store.DeleteAll(ctx)
	if err != nil {
		return res, fmt.Errorf("delete candles: %w", err)
	}
	res.Deleted = deleted
	if err := r.settings.Reset(ctx); err != nil {
		return res, fmt.Errorf("reset settings: %w", err)
	}
	slog.Info("catalog wiped", "deleted", deleted)

	bf, err := r.backfill.Run(ctx, candles.BackfillRequest{
		Pairs:      r.cfg.Pairs,
		Timeframes: r.cfg.Timeframes,
		Days:       days,
	})
	res.Backfill = bf
	if err != nil {
		return res, fmt.Errorf("reload history: %w", err)
	}

	s := entity.DefaultSettings()
	if r.cfg.Interval >= time.Second {
		s.UpdateIntervalSeconds = int(r.cfg.Interval.Seconds())
	}
	s.Pairs = r.cfg.Pairs
	s.Timeframes = r.cfg.Timeframes
	if err := r.settings.Save(ctx, s); err != nil {
		return res, fmt.Errorf("initialise settings: %w", err)
	}

	if r.journal != nil {
		r.journal.RecordInfo(ctx, fmt.Sprintf("catalog reset: deleted %d candles, reloaded %d days (%d saved, %d errors)",
			deleted, days, bf.Saved, bf.Errors))
	}
	return res, nil
}
