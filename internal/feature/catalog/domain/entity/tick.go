package entity

import (
	"time"

	candles "candle_catalog/internal/feature/candles/domain/entity"
)

// TickResult summarises one live collection pass.
type TickResult struct {
	At        time.Time `json:"at"`
	Requested int       `json:"requested"`
	Collected int       `json:"collected"`
	Saved     int       `json:"saved"`
	Errors    int       `json:"errors"`
}

// ResetResult is the outcome of a wipe-and-reload.
type ResetResult struct {
	Deleted  int64                  `json:"deleted"`
	Days     int                    `json:"days"`
	Backfill candles.BackfillResult `json:"backfill"`
}
