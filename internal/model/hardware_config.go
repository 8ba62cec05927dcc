package model

import "time"

// HardwareConfigID is the primary key of the singleton hardware config row.
const HardwareConfigID int64 = 1

// HardwareConfig is the singleton record of operator-editable runtime
// settings. The scheduler and the retention reaper re-read it at the start
// of every cycle/sweep, so changes take effect without a restart.
type HardwareConfig struct {
	ID                        int64     `gorm:"primaryKey" json:"id"`
	BoardType                 BoardType `gorm:"size:16;not null" json:"boardType"`
	DashboardUpdateIntervalMs int64     `gorm:"not null" json:"dashboardUpdateInterval"` // collector poll period
	GraphDataRetentionMs      int64     `gorm:"not null" json:"graphDataRetentionTime"`  // reaper cutoff window
	UpdatedAt                 time.Time `json:"updatedAt"`
}

// DefaultHardwareConfig returns the seed row written on first boot.
func DefaultHardwareConfig() HardwareConfig {
	return HardwareConfig{
		ID:                        HardwareConfigID,
		BoardType:                 BoardGPIO,
		DashboardUpdateIntervalMs: 5000,
		GraphDataRetentionMs:      3600000,
	}
}

// UpdateInterval returns the collector poll period as a duration.
func (c HardwareConfig) UpdateInterval() time.Duration {
	return time.Duration(c.DashboardUpdateIntervalMs) * time.Millisecond
}

// RetentionWindow returns the reaper cutoff window as a duration.
func (c HardwareConfig) RetentionWindow() time.Duration {
	return time.Duration(c.GraphDataRetentionMs) * time.Millisecond
}
