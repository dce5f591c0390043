package entity

import "time"

// Log levels written to the catalog log.
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// LogEntry is one operator-facing event.
type LogEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Level        string    `gorm:"size:16;not null" json:"level"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	ErrorDetails string    `gorm:"type:text" json:"errorDetails,omitempty"`
	CreatedAt    time.Time `gorm:"not null;index:idx_catalog_logs_created_at" json:"createdAt"`
}

func (LogEntry) TableName() string {
	return "catalog_logs"
}
