// Package usecase implements the live collector and the catalog journal.
package usecase

import (
	"context"
	"log/slog"
	"time"

	candles "candle_catalog/internal/feature/candles/usecase"
	"candle_catalog/internal/feature/catalog/domain/entity"
)

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500
)

// LogRepository persists catalog log entries.
type LogRepository interface {
	Append(ctx context.Context, entry *entity.LogEntry) error
	Recent(ctx context.Context, limit int) ([]entity.LogEntry, error)
}

// Journal writes operator-facing events to the catalog log and to slog.
// A failure to persist an event is logged and otherwise ignored.
type Journal struct {
	logs LogRepository
	now  func() time.Time
}

var _ candles.EventRecorder = (*Journal)(nil)

func NewJournal(logs LogRepository) *Journal {
	return &Journal{logs: logs, now: time.Now}
}

// RecordError stores an ERROR entry.
func (j *Journal) RecordError(ctx context.Context, message, details string) {
	slog.Error(message, "details", details)
	j.append(ctx, entity.LevelError, message, details)
}

// RecordInfo stores an INFO entry.
func (j *Journal) RecordInfo(ctx context.Context, message string) {
	slog.Info(message)
	j.append(ctx, entity.LevelInfo, message, "")
}

// Recent returns the newest entries first. limit is clamped to (0, MaxLogLimit].
func (j *Journal) Recent(ctx context.Context, limit int) ([]entity.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	return j.logs.Recent(ctx, limit)
}

func (j *Journal) append(ctx context.Context, level, message, details string) {
	entry := &entity.LogEntry{
		Level:        level,
		Message:      message,
		ErrorDetails: details,
		CreatedAt:    j.now().UTC(),
	}
	if err := j.logs.Append(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("failed to write catalog log", "level", level, "error", err)
	}
}
