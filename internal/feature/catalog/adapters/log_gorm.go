package adapters

import (
	"context"

	"gorm.io/gorm"

	"candle_catalog/internal/feature/catalog/domain/entity"
	"candle_catalog/internal/feature/catalog/usecase"
)

type logGorm struct {
	db *gorm.DB
}

var _ usecase.LogRepository = (*logGorm)(nil)

// NewLogRepository returns the gorm-backed catalog log.
func NewLogRepository(db *gorm.DB) *logGorm {
	return &logGorm{db: db}
}

func (r *logGorm) Append(ctx context.Context, entry *entity.LogEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return storageErr("append log", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *logGorm) Recent(ctx context.Context, limit int) ([]entity.LogEntry, error) {
	var entries []entity.LogEntry
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, storageErr("recent logs", err)
	}
	return entries, nil
}
