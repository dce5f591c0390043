// Package adapters implements catalog persistence on top of gorm.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"candle_catalog/internal/feature/catalog/domain"
	"candle_catalog/internal/feature/catalog/domain/entity"
	"candle_catalog/internal/feature/catalog/usecase"
)

type settingsGorm struct {
	db *gorm.DB
}

var _ usecase.SettingsRepository = (*settingsGorm)(nil)

// NewSettingsRepository returns the gorm-backed settings store.
func NewSettingsRepository(db *gorm.DB) *settingsGorm {
	return &settingsGorm{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

// Get returns the singleton row, or defaults when it does not exist yet.
func (r *settingsGorm) Get(ctx context.Context) (entity.Settings, error) {
	var s entity.Settings
	err := r.db.WithContext(ctx).First(&s, entity.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.DefaultSettings(), nil
	}
	if err != nil {
		return entity.Settings{}, storageErr("get settings", err)
	}
	if s.Pairs == nil {
		s.Pairs = []string{}
	}
	if s.Timeframes == nil {
		s.Timeframes = []string{}
	}
	return s, nil
}

// Save writes the whole row, creating it on first use.
func (r *settingsGorm) Save(ctx context.Context, s entity.Settings) error {
	if s.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("save settings: %w", domain.ErrInvalidInterval)
	}
	s.ID = entity.SettingsID
	if s.Pairs == nil {
		s.Pairs = []string{}
	}
	if s.Timeframes == nil {
		s.Timeframes = []string{}
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&s).Error
	if err != nil {
		return storageErr("save settings", err)
	}
	return nil
}

// SetRunning updates only is_running.
func (r *settingsGorm) SetRunning(ctx context.Context, running bool) error {
	return r.updateOrCreate(ctx, "set running", "is_running", running, func(s *entity.Settings) {
		s.IsRunning = running
	})
}

// MarkTick updates only last_update.
func (r *settingsGorm) MarkTick(ctx context.Context, at time.Time) error {
	at = at.UTC()
	return r.updateOrCreate(ctx, "mark tick", "last_update", at, func(s *entity.Settings) {
		s.LastUpdate = &at
	})
}

// Reset deletes the singleton row.
func (r *settingsGorm) Reset(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Where("id = ?", entity.SettingsID).
		Delete(&entity.Settings{}).Error
	if err != nil {
		return storageErr("reset settings", err)
	}
	return nil
}

// updateOrCreate touches a single column so concurrent writers of other columns
// are not overwritten. The default row is created when none exists.
func (r *settingsGorm) updateOrCreate(ctx context.Context, op, column string, value any, apply func(*entity.Settings)) error {
	tx := r.db.WithContext(ctx).
		Model(&entity.Settings{}).
		Where("id = ?", entity.SettingsID).
		Update(column, value)
	if tx.Error != nil {
		return storageErr(op, tx.Error)
	}
	if tx.RowsAffected > 0 {
		return nil
	}
	s := entity.DefaultSettings()
	apply(&s)
	return r.Save(ctx, s)
}
