package entity

import "time"

const (
	// SettingsID is the primary key of the only settings row.
	SettingsID = 1
	// DefaultIntervalSeconds is the live collection period used when none is configured.
	DefaultIntervalSeconds = 60
)

// Settings is the persisted state of the live collector.
type Settings struct {
	ID                    uint `gorm:"primaryKey;autoIncrement:false"`
	IsRunning             bool `gorm:"not null"`
	UpdateIntervalSeconds int  `gorm:"not null"`
	LastUpdate            *time.Time
	Pairs                 []string `gorm:"type:text;not null;serializer:json"`
	Timeframes            []string `gorm:"type:text;not null;serializer:json"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Settings) TableName() string {
	return "catalog_settings"
}

// DefaultSettings returns the settings row used before anything was persisted.
func DefaultSettings() Settings {
	return Settings{
		ID:                    SettingsID,
		UpdateIntervalSeconds: DefaultIntervalSeconds,
		Pairs:                 []string{},
		Timeframes:            []string{},
	}
}

// Interval returns the collection period, falling back to the default for unset rows.
func (s Settings) Interval() time.Duration {
	if s.UpdateIntervalSeconds <= 0 {
		return DefaultIntervalSeconds * time.Second
	}
	return time.Duration(s.UpdateIntervalSeconds) * time.Second
}

// Status is the collector state reported to operators.
type Status struct {
	IsRunning             bool       `json:"isRunning"`
	LastUpdate            *time.Time `json:"lastUpdate"`
	UpdateIntervalSeconds int        `json:"updateIntervalSeconds"`
	Pairs                 []string   `json:"pairs"`
	Timeframes            []string   `json:"timeframes"`
}
