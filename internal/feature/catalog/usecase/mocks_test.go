package usecase_test

import (
	"context"
	"sync"
	"time"

	candles "candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/catalog/domain/entity"
)

type mockMarket struct {
	mu              sync.Mutex
	calls           int
	FetchLatestFunc func(ctx context.Context, symbol, timeframe string, limit int) ([]candles.RawKline, error)
}

func (m *mockMarket) FetchLatest(ctx context.Context, symbol, timeframe string, limit int) ([]candles.RawKline, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.FetchLatestFunc(ctx, symbol, timeframe, limit)
}

func (m *mockMarket) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockWriter struct {
	mu      sync.Mutex
	batches [][]candles.Candle
	err     error
	// failFirst makes the first failFirst calls return err; zero fails every call when err is set.
	failFirst int
}

func (m *mockWriter) UpsertBatch(_ context.Context, batch []candles.Candle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
	if m.failFirst > 0 && len(m.batches) > m.failFirst {
		return nil
	}
	return m.err
}

func (m *mockWriter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// memSettings is an in-memory SettingsRepository.
type memSettings struct {
	mu          sync.Mutex
	s           *entity.Settings
	setRunning  int
	resetCalled int
}

func (m *memSettings) Get(context.Context) (entity.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return entity.DefaultSettings(), nil
	}
	return *m.s, nil
}

func (m *memSettings) Save(_ context.Context, s entity.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *memSettings) SetRunning(_ context.Context, running bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setRunning++
	if m.s == nil {
		d := entity.DefaultSettings()
		m.s = &d
	}
	m.s.IsRunning = running
	return nil
}

func (m *memSettings) MarkTick(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		d := entity.DefaultSettings()
		m.s = &d
	}
	m.s.LastUpdate = &at
	return nil
}

func (m *memSettings) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalled++
	m.s = nil
	return nil
}

func (m *memSettings) snapshot() entity.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return entity.DefaultSettings()
	}
	return *m.s
}

type recordedError struct {
	message string
	details string
}

type mockRecorder struct {
	mu     sync.Mutex
	errors []recordedError
	infos  []string
}

func (m *mockRecorder) RecordError(_ context.Context, message, details string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, recordedError{message, details})
}

func (m *mockRecorder) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockRecorder) RecordInfo(_ context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, message)
}

// manualTicker hands out a channel the test fires by hand.
type manualTicker struct {
	mu        sync.Mutex
	created   int
	stopped   int
	intervals []time.Duration
	ch        chan time.Time
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time, 1)}
}

func (m *manualTicker) factory(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	m.intervals = append(m.intervals, d)
	return m.ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.stopped++
	}
}

func (m *manualTicker) fire() {
	m.ch <- time.Now()
}

func (m *manualTicker) counts() (created, stopped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.stopped
}

func kline(openTime time.Time) candles.RawKline {
	return candles.RawKline{
		OpenTime: openTime.UnixMilli(),
		Open:     "100",
		High:     "120",
		Low:      "95",
		Close:    "110",
		Volume:   "3.5",
	}
}
