// Package adapters implements the candle store on top of gorm.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"candle_catalog/internal/feature/candles/domain"
	"candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/candles/usecase"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertChunk bounds the number of rows sent in one INSERT statement.
const upsertChunk = 500

type candleGorm struct {
	db *gorm.DB
}

var (
	_ usecase.CandleRepository = (*candleGorm)(nil)
	_ usecase.CandleWriter     = (*candleGorm)(nil)
)

// NewCandleRepository returns the gorm-backed candle store.
func NewCandleRepository(db *gorm.DB) *candleGorm {
	return &candleGorm{db: db}
}

// CandleModel is the persisted shape of entity.Candle.
type CandleModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Pair      string    `gorm:"size:32;not null;uniqueIndex:uq_candle_key,priority:1;index:idx_candle_lookup,priority:1"`
	Timeframe string    `gorm:"size:8;not null;uniqueIndex:uq_candle_key,priority:2;index:idx_candle_lookup,priority:2"`
	Timestamp time.Time `gorm:"not null;uniqueIndex:uq_candle_key,priority:3"`

	OpenPrice  decimal.Decimal `gorm:"type:numeric(24,8);not null"`
	HighPrice  decimal.Decimal `gorm:"type:numeric(24,8);not null"`
	LowPrice   decimal.Decimal `gorm:"type:numeric(24,8);not null"`
	ClosePrice decimal.Decimal `gorm:"type:numeric(24,8);not null"`
	Volume     decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0"`
	Color      string          `gorm:"size:8;not null"`

	Hour     int    `gorm:"not null;index:idx_candle_lookup,priority:4"`
	Minute   int    `gorm:"not null"`
	Day      int    `gorm:"not null"`
	Month    int    `gorm:"not null"`
	Year     int    `gorm:"not null"`
	FullDate string `gorm:"size:10;not null;index:idx_candle_lookup,priority:3"`
	TimeKey  string `gorm:"size:5;not null"`
	DateKey  string `gorm:"size:10;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CandleModel) TableName() string {
	return "candle_catalog"
}

func toModel(e entity.Candle) CandleModel {
	id := e.ID
	if id == "" {
		id = entity.CandleID(e.Pair, e.Timeframe, e.Timestamp)
	}
	return CandleModel{
		ID:         id,
		Pair:       e.Pair,
		Timeframe:  e.Timeframe,
		Timestamp:  e.Timestamp.UTC(),
		OpenPrice:  e.Open,
		HighPrice:  e.High,
		LowPrice:   e.Low,
		ClosePrice: e.Close,
		Volume:     e.Volume,
		Color:      string(e.Color),
		Hour:       e.Hour,
		Minute:     e.Minute,
		Day:        e.Day,
		Month:      e.Month,
		Year:       e.Year,
		FullDate:   e.FullDate,
		TimeKey:    e.TimeKey,
		DateKey:    e.DateKey,
	}
}

func toEntity(m CandleModel) entity.Candle {
	return entity.Candle{
		ID:        m.ID,
		Pair:      m.Pair,
		Timeframe: m.Timeframe,
		Timestamp: m.Timestamp.UTC(),
		Open:      m.OpenPrice,
		High:      m.HighPrice,
		Low:       m.LowPrice,
		Close:     m.ClosePrice,
		Volume:    m.Volume,
		Color:     entity.Color(m.Color),
		Hour:      m.Hour,
		Minute:    m.Minute,
		Day:       m.Day,
		Month:     m.Month,
		Year:      m.Year,
		FullDate:  m.FullDate,
		TimeKey:   m.TimeKey,
		DateKey:   m.DateKey,
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

// UpsertBatch inserts candles, overwriting rows that share (pair, timeframe, timestamp).
func (r *candleGorm) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toModel(e))
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pair"}, {Name: "timeframe"}, {Name: "timestamp"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open_price", "high_price", "low_price", "close_price", "volume", "color", "updated_at",
		}),
	}).CreateInBatches(&ms, upsertChunk).Error
	if err != nil {
		return storageErr("upsert candles", err)
	}
	return nil
}

// Find returns candles matching q in ascending time order.
func (r *candleGorm) Find(ctx context.Context, q entity.CandleQuery) ([]entity.Candle, error) {
	tx := r.db.WithContext(ctx).
		Where("pair = ? AND timeframe = ?", q.Pair, q.Timeframe)
	if q.FromDate != "" {
		tx = tx.Where("full_date >= ?", q.FromDate)
	}
	if q.ToDate != "" {
		tx = tx.Where("full_date <= ?", q.ToDate)
	}
	if q.Hour != nil {
		tx = tx.Where("hour = ?", *q.Hour)
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}})
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []CandleModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, storageErr("find candles", err)
	}
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// Summary reports the total row count, distinct pairs and timeframes, and the stored time span.
func (r *candleGorm) Summary(ctx context.Context) (entity.Summary, error) {
	db := r.db.WithContext(ctx)
	s := entity.Summary{Pairs: []string{}, Timeframes: []string{}}

	if err := db.Model(&CandleModel{}).Count(&s.TotalCandles).Error; err != nil {
		return entity.Summary{}, storageErr("count candles", err)
	}
	if s.TotalCandles == 0 {
		return s, nil
	}
	if err := db.Model(&CandleModel{}).Distinct("pair").Order("pair").Pluck("pair", &s.Pairs).Error; err != nil {
		return entity.Summary{}, storageErr("distinct pairs", err)
	}
	if err := db.Model(&CandleModel{}).Distinct("timeframe").Order("timeframe").Pluck("timeframe", &s.Timeframes).Error; err != nil {
		return entity.Summary{}, storageErr("distinct timeframes", err)
	}

	oldest, err := r.edge(ctx, false)
	if err != nil {
		return entity.Summary{}, err
	}
	newest, err := r.edge(ctx, true)
	if err != nil {
		return entity.Summary{}, err
	}
	s.DateRange = &entity.DateRange{Start: oldest, End: newest}
	return s, nil
}

// edge returns the oldest or newest stored open time.
func (r *candleGorm) edge(ctx context.Context, desc bool) (time.Time, error) {
	var m CandleModel
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: desc}).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, storageErr("candle time range", err)
	}
	return m.Timestamp.UTC(), nil
}

// DeleteAll removes every stored candle and returns the number of deleted rows.
func (r *candleGorm) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CandleModel{})
	if res.Error != nil {
		return 0, storageErr("delete candles", res.Error)
	}
	return res.RowsAffected, nil
}
