package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	candles "candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/catalog/domain"
	"candle_catalog/internal/feature/catalog/domain/entity"
)

// MarketFeed returns the most recent klines of a market.
type MarketFeed interface {
	FetchLatest(ctx context.Context, symbol, timeframe string, limit int) ([]candles.RawKline, error)
}

// CandleWriter is the idempotent write side of the candle store.
type CandleWriter interface {
	UpsertBatch(ctx context.Context, batch []candles.Candle) error
}

// SettingsRepository persists the collector state.
type SettingsRepository interface {
	// Get returns the stored settings, or defaults when nothing has been stored yet.
	Get(ctx context.Context) (entity.Settings, error)
	Save(ctx context.Context, s entity.Settings) error
	SetRunning(ctx context.Context, running bool) error
	MarkTick(ctx context.Context, at time.Time) error
	Reset(ctx context.Context) error
}

// ErrorRecorder receives per-combination failures.
type ErrorRecorder interface {
	RecordError(ctx context.Context, message, details string)
}

// TickerFunc returns a channel that fires every d and a func releasing it.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// CollectorConfig lists what the live collector tracks.
type CollectorConfig struct {
	Pairs      []string
	Timeframes []string
	Interval   time.Duration
}

// CollectorOption customises a Collector.
type CollectorOption func(*Collector)

// WithTicker replaces the wall-clock ticker.
func WithTicker(f TickerFunc) CollectorOption {
	return func(c *Collector) { c.newTicker = f }
}

// WithCollectorClock overrides the clock used for last_update.
func WithCollectorClock(now func() time.Time) CollectorOption {
	return func(c *Collector) { c.now = now }
}

// Collector owns the STOPPED/RUNNING state of periodic live collection.
// mu serialises state transitions; running is readable without it.
type Collector struct {
	market   MarketFeed
	writer   CandleWriter
	settings SettingsRepository
	events   ErrorRecorder
	cfg      CollectorConfig

	mu       sync.Mutex
	running  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	lastDone chan struct{} // loop most recently halted, possibly still finishing a tick
	interval time.Duration

	// tickMu keeps a manual tick from overlapping a scheduled one.
	tickMu sync.Mutex

	newTicker TickerFunc
	now       func() time.Time
}

// NewCollector creates a stopped Collector. A non-positive cfg.Interval selects the default interval.
func NewCollector(market MarketFeed, writer CandleWriter, settings SettingsRepository, events ErrorRecorder, cfg CollectorConfig, opts ...CollectorOption) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = entity.DefaultIntervalSeconds * time.Second
	}
	c := &Collector{
		market:    market,
		writer:    writer,
		settings:  settings,
		events:    events,
		cfg:       cfg,
		newTicker: realTicker,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsRunning reports the in-memory run state.
func (c *Collector) IsRunning() bool {
	return c.running.Load()
}

// Start launches periodic collection. interval 0 selects the configured default.
// Starting a running collector is a no-op.
func (c *Collector) Start(ctx context.Context, interval time.Duration) error {
	if interval == 0 {
		interval = c.cfg.Interval
	}
	if interval < time.Second {
		return fmt.Errorf("%w: got %s", domain.ErrInvalidInterval, interval)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running.Load() {
		return nil
	}

	s, err := c.settings.Get(ctx)
	if err != nil {
		return err
	}
	s.IsRunning = true
	s.UpdateIntervalSeconds = int(interval / time.Second)
	s.Pairs = c.cfg.Pairs
	s.Timeframes = c.cfg.Timeframes
	if err := c.settings.Save(ctx, s); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	c.cancel, c.done, c.interval = cancel, done, interval
	c.running.Store(true)

	go c.loop(loopCtx, interval, done)

	slog.Info("collector started", "interval", interval, "pairs", c.cfg.Pairs, "timeframes", c.cfg.Timeframes)
	return nil
}

// Stop cancels periodic collection and persists the stopped state.
// A tick already in progress completes; no further tick fires.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.halt(); !ok {
		return nil
	}
	if err := c.settings.SetRunning(ctx, false); err != nil {
		return err
	}
	slog.Info("collector stopped")
	return nil
}

// Shutdown stops the loop and waits for it to exit, leaving the persisted run
// state untouched so Resume can pick it up on the next boot.
func (c *Collector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	done, ok := c.halt()
	if !ok {
		done = c.lastDone
	}
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// halt must be called with mu held.
func (c *Collector) halt() (chan struct{}, bool) {
	if !c.running.Load() {
		return nil, false
	}
	c.cancel()
	done := c.done
	c.cancel, c.done, c.lastDone = nil, nil, done
	c.running.Store(false)
	return done, true
}

// Resume starts the collector at boot when autostart is set or the stored
// settings say it was running.
func (c *Collector) Resume(ctx context.Context, autostart bool) error {
	s, err := c.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !autostart && !s.IsRunning {
		return nil
	}
	interval := c.cfg.Interval
	if s.IsRunning {
		interval = s.Interval()
	}
	slog.Info("resuming collector", "autostart", autostart, "was_running", s.IsRunning)
	return c.Start(ctx, interval)
}

// Status reports the run state together with the stored settings.
func (c *Collector) Status(ctx context.Context) (entity.Status, error) {
	s, err := c.settings.Get(ctx)
	if err != nil {
		return entity.Status{}, err
	}
	st := entity.Status{
		IsRunning:             c.running.Load(),
		LastUpdate:            s.LastUpdate,
		UpdateIntervalSeconds: s.UpdateIntervalSeconds,
		Pairs:                 c.cfg.Pairs,
		Timeframes:            c.cfg.Timeframes,
	}
	if st.UpdateIntervalSeconds <= 0 {
		st.UpdateIntervalSeconds = int(c.cfg.Interval / time.Second)
	}
	return st, nil
}

// Tick fetches the latest candle of every tracked combination and upserts them in one batch.
// Per-combination failures are journaled and counted; they never change the run state.
func (c *Collector) Tick(ctx context.Context) (entity.TickResult, error) {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	var res entity.TickResult
	var batch []candles.Candle
	for _, pair := range c.cfg.Pairs {
		for _, tf := range c.cfg.Timeframes {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Requested++
			raws, err := c.market.FetchLatest(ctx, pair, tf, 1)
			if err != nil {
				res.Errors++
				c.fail(ctx, fmt.Sprintf("live fetch %s %s failed", pair, tf), err)
				continue
			}
			for _, raw := range raws {
				candle, err := candles.NormalizeKline(raw, pair, tf)
				if err != nil {
					res.Errors++
					c.fail(ctx, fmt.Sprintf("live candle %s %s rejected", pair, tf), err)
					continue
				}
				batch = append(batch, candle)
			}
		}
	}

	res.Collected = len(batch)
	if len(batch) > 0 {
		if err := c.writer.UpsertBatch(ctx, batch); err != nil {
			res.Errors += len(batch)
			c.fail(ctx, "live upsert failed", err)
			return res, err
		}
		res.Saved = len(batch)
	}

	res.At = c.now().UTC()
	if err := c.settings.MarkTick(ctx, res.At); err != nil {
		return res, err
	}
	slog.Info("live tick done", "collected", res.Collected, "saved", res.Saved, "errors", res.Errors)
	return res, nil
}

func (c *Collector) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	c.runTick(ctx)

	ticks, stop := c.newTicker(interval)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if ctx.Err() != nil {
				return
			}
			c.runTick(ctx)
		}
	}
}

// runTick detaches the tick from loop cancellation so Stop lets it finish.
func (c *Collector) runTick(ctx context.Context) {
	if _, err := c.Tick(context.WithoutCancel(ctx)); err != nil {
		slog.Error("live tick failed", "error", err)
	}
}

func (c *Collector) fail(ctx context.Context, message string, err error) {
	if c.events == nil {
		slog.Warn(message, "error", err)
		return
	}
	c.events.RecordError(ctx, message, err.Error())
}
