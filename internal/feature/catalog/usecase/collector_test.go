package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	candles "candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/catalog/domain"
	"candle_catalog/internal/feature/catalog/domain/entity"
	"candle_catalog/internal/feature/catalog/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tickAt = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func okMarket() *mockMarket {
	return &mockMarket{
		FetchLatestFunc: func(_ context.Context, _, _ string, limit int) ([]candles.RawKline, error) {
			return []candles.RawKline{kline(tickAt.Truncate(time.Minute))}, nil
		},
	}
}

func newTestCollector(market *mockMarket, writer *mockWriter, settings *memSettings, rec *mockRecorder, tk *manualTicker) *usecase.Collector {
	cfg := usecase.CollectorConfig{
		Pairs:      []string{"BTCUSDT", "ETHUSDT"},
		Timeframes: []string{"1m"},
		Interval:   time.Minute,
	}
	return usecase.NewCollector(market, writer, settings, rec, cfg,
		usecase.WithTicker(tk.factory),
		usecase.WithCollectorClock(func() time.Time { return tickAt }),
	)
}

func TestCollector_StartTwiceRunsOneTicker(t *testing.T) {
	market := okMarket()
	settings := &memSettings{}
	tk := newManualTicker()
	c := newTestCollector(market, &mockWriter{}, settings, &mockRecorder{}, tk)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, 0))
	require.NoError(t, c.Start(ctx, 0))

	require.Eventually(t, func() bool {
		created, _ := tk.counts()
		return created == 1 && market.Calls() == 2
	}, time.Second, 5*time.Millisecond, "first tick runs immediately")

	tk.fire()
	require.Eventually(t, func() bool { return market.Calls() == 4 }, time.Second, 5*time.Millisecond)

	created, _ := tk.counts()
	assert.Equal(t, 1, created, "second Start must not launch another loop")
	assert.True(t, c.IsRunning())

	s := settings.snapshot()
	assert.True(t, s.IsRunning)
	assert.Equal(t, 60, s.UpdateIntervalSeconds)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, s.Pairs)

	require.NoError(t, c.Stop(ctx))
	require.Eventually(t, func() bool {
		_, stopped := tk.counts()
		return stopped == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, c.IsRunning())
	assert.False(t, settings.snapshot().IsRunning)
}

func TestCollector_StartUsesRequestedInterval(t *testing.T) {
	settings := &memSettings{}
	tk := newManualTicker()
	c := newTestCollector(okMarket(), &mockWriter{}, settings, &mockRecorder{}, tk)

	require.NoError(t, c.Start(context.Background(), 15*time.Second))
	require.Eventually(t, func() bool {
		created, _ := tk.counts()
		return created == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []time.Duration{15 * time.Second}, tk.intervals)
	assert.Equal(t, 15, settings.snapshot().UpdateIntervalSeconds)
	require.NoError(t, c.Shutdown(context.Background()))
}

func TestCollector_StartRejectsInterval(t *testing.T) {
	for _, d := range []time.Duration{-time.Second, 500 * time.Millisecond} {
		c := newTestCollector(okMarket(), &mockWriter{}, &memSettings{}, &mockRecorder{}, newManualTicker())

		err := c.Start(context.Background(), d)

		assert.True(t, errors.Is(err, domain.ErrInvalidInterval), "interval %s", d)
		assert.False(t, c.IsRunning())
	}
}

func TestCollector_StopWhenStopped(t *testing.T) {
	settings := &memSettings{}
	c := newTestCollector(okMarket(), &mockWriter{}, settings, &mockRecorder{}, newManualTicker())

	require.NoError(t, c.Stop(context.Background()))

	assert.Zero(t, settings.setRunning, "stopping a stopped collector must not write")
}

func TestCollector_ShutdownKeepsPersistedState(t *testing.T) {
	settings := &memSettings{}
	tk := newManualTicker()
	c := newTestCollector(okMarket(), &mockWriter{}, settings, &mockRecorder{}, tk)

	require.NoError(t, c.Start(context.Background(), 0))
	require.NoError(t, c.Shutdown(context.Background()))

	_, stopped := tk.counts()
	assert.Equal(t, 1, stopped, "loop has exited when Shutdown returns")
	assert.False(t, c.IsRunning())
	assert.True(t, settings.snapshot().IsRunning, "Resume restarts on next boot")
}

func TestCollector_Tick(t *testing.T) {
	market := &mockMarket{
		FetchLatestFunc: func(_ context.Context, symbol, timeframe string, limit int) ([]candles.RawKline, error) {
			assert.Equal(t, 1, limit)
			assert.Equal(t, "1m", timeframe)
			if symbol == "ETHUSDT" {
				return nil, errors.New("exchange transport failure: timeout")
			}
			return []candles.RawKline{kline(tickAt.Truncate(time.Minute))}, nil
		},
	}
	writer := &mockWriter{}
	settings := &memSettings{}
	rec := &mockRecorder{}
	c := newTestCollector(market, writer, settings, rec, newManualTicker())

	res, err := c.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.TickResult{At: tickAt, Requested: 2, Collected: 1, Saved: 1, Errors: 1}, res)
	require.Len(t, writer.batches, 1)
	require.Len(t, writer.batches[0], 1)
	assert.Equal(t, "BTCUSDT", writer.batches[0][0].Pair)
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0].message, "ETHUSDT 1m")

	s := settings.snapshot()
	require.NotNil(t, s.LastUpdate)
	assert.True(t, tickAt.Equal(*s.LastUpdate))
	assert.False(t, s.IsRunning, "tick failures never change the run state")
}

func TestCollector_TickRejectsBadCandle(t *testing.T) {
	market := &mockMarket{
		FetchLatestFunc: func(context.Context, string, string, int) ([]candles.RawKline, error) {
			k := kline(tickAt)
			k.High = "1" // below open
			return []candles.RawKline{k}, nil
		},
	}
	writer := &mockWriter{}
	rec := &mockRecorder{}
	c := newTestCollector(market, writer, &memSettings{}, rec, newManualTicker())

	res, err := c.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Errors)
	assert.Zero(t, res.Collected)
	assert.Empty(t, writer.batches, "nothing to upsert")
	assert.Len(t, rec.errors, 2)
}

func TestCollector_TickUpsertFailure(t *testing.T) {
	writer := &mockWriter{err: errors.New("disk full")}
	settings := &memSettings{}
	c := newTestCollector(okMarket(), writer, settings, &mockRecorder{}, newManualTicker())

	res, err := c.Tick(context.Background())

	require.Error(t, err)
	assert.Equal(t, 2, res.Errors)
	assert.Zero(t, res.Saved)
	assert.Nil(t, settings.snapshot().LastUpdate, "last_update only moves on a stored tick")
}

func TestCollector_LoopRecoversFromFailedTick(t *testing.T) {
	writer := &mockWriter{err: errors.New("disk full"), failFirst: 1}
	settings := &memSettings{}
	rec := &mockRecorder{}
	tk := newManualTicker()
	var ticks atomic.Int64
	cfg := usecase.CollectorConfig{Pairs: []string{"BTCUSDT", "ETHUSDT"}, Timeframes: []string{"1m"}, Interval: time.Minute}
	c := usecase.NewCollector(okMarket(), writer, settings, rec, cfg,
		usecase.WithTicker(tk.factory),
		usecase.WithCollectorClock(func() time.Time {
			return tickAt.Add(time.Duration(ticks.Add(1)) * time.Minute)
		}),
	)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, 0))
	require.Eventually(t, func() bool {
		return writer.calls() == 1 && rec.errorCount() == 1
	}, time.Second, 5*time.Millisecond, "immediate tick fails on upsert")
	assert.True(t, c.IsRunning(), "a failed tick leaves the collector running")
	assert.Nil(t, settings.snapshot().LastUpdate)

	tk.fire()
	require.Eventually(t, func() bool {
		return settings.snapshot().LastUpdate != nil
	}, time.Second, 5*time.Millisecond, "next scheduled tick stores its candles")
	assert.Equal(t, 2, writer.calls())
	first := *settings.snapshot().LastUpdate

	tk.fire()
	require.Eventually(t, func() bool {
		return settings.snapshot().LastUpdate.After(first)
	}, time.Second, 5*time.Millisecond, "last_update advances on every stored tick")
	assert.True(t, c.IsRunning())
	assert.True(t, settings.snapshot().IsRunning)
	assert.Equal(t, 1, rec.errorCount())

	require.NoError(t, c.Shutdown(ctx))
}

func TestCollector_StopLetsInFlightTickFinish(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	market := &mockMarket{
		FetchLatestFunc: func(context.Context, string, string, int) ([]candles.RawKline, error) {
			blocked := false
			once.Do(func() { blocked = true })
			if blocked {
				close(entered)
				<-release
			}
			return []candles.RawKline{kline(tickAt.Truncate(time.Minute))}, nil
		},
	}
	writer := &mockWriter{}
	settings := &memSettings{}
	tk := newManualTicker()
	c := newTestCollector(market, writer, settings, &mockRecorder{}, tk)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, 0))
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first tick never reached the exchange")
	}

	require.NoError(t, c.Stop(ctx))
	assert.False(t, c.IsRunning())
	close(release)
	require.NoError(t, c.Shutdown(ctx), "Shutdown waits for the halted loop")

	require.Len(t, writer.batches, 1, "the in-flight tick still stores its candles")
	assert.Len(t, writer.batches[0], 2)
	require.NotNil(t, settings.snapshot().LastUpdate)
	assert.True(t, settings.snapshot().LastUpdate.Equal(tickAt))
	assert.False(t, settings.snapshot().IsRunning)

	tk.fire()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, market.Calls(), "no tick fires after Stop")
	assert.Equal(t, 1, writer.calls())
}

func TestCollector_Resume(t *testing.T) {
	tests := []struct {
		name         string
		stored       *entity.Settings
		autostart    bool
		wantRunning  bool
		wantInterval time.Duration
	}{
		{name: "fresh install", wantRunning: false},
		{name: "autostart", autostart: true, wantRunning: true, wantInterval: time.Minute},
		{
			name:         "was running",
			stored:       &entity.Settings{ID: 1, IsRunning: true, UpdateIntervalSeconds: 5},
			wantRunning:  true,
			wantInterval: 5 * time.Second,
		},
		{
			name:        "was stopped",
			stored:      &entity.Settings{ID: 1, IsRunning: false, UpdateIntervalSeconds: 5},
			wantRunning: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &memSettings{s: tt.stored}
			tk := newManualTicker()
			c := newTestCollector(okMarket(), &mockWriter{}, settings, &mockRecorder{}, tk)

			require.NoError(t, c.Resume(context.Background(), tt.autostart))
			assert.Equal(t, tt.wantRunning, c.IsRunning())

			if tt.wantRunning {
				require.Eventually(t, func() bool {
					created, _ := tk.counts()
					return created == 1
				}, time.Second, 5*time.Millisecond)
				assert.Equal(t, []time.Duration{tt.wantInterval}, tk.intervals)
			}
			require.NoError(t, c.Shutdown(context.Background()))
		})
	}
}

func TestCollector_Status(t *testing.T) {
	last := tickAt.Add(-time.Minute)
	settings := &memSettings{s: &entity.Settings{ID: 1, UpdateIntervalSeconds: 30, LastUpdate: &last}}
	c := newTestCollector(okMarket(), &mockWriter{}, settings, &mockRecorder{}, newManualTicker())

	st, err := c.Status(context.Background())
	require.NoError(t, err)

	assert.False(t, st.IsRunning)
	assert.Equal(t, 30, st.UpdateIntervalSeconds)
	assert.Equal(t, &last, st.LastUpdate)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, st.Pairs)
	assert.Equal(t, []string{"1m"}, st.Timeframes)
}
