package model

import "time"

// SensorReading is a single (entity, value) sample. Append-only: the
// collector writes them, the retention reaper deletes old unattached ones.
//
// MeasurementID is the sole discriminator between background data
// (nil, subject to retention) and measurement-attached data (non-nil,
// retained until the owning measurement is deleted).
type SensorReading struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	EntityID      int64     `gorm:"index;not null" json:"entityId"`
	Value         float64   `gorm:"not null" json:"value"`
	Quality       float64   `gorm:"not null;default:1" json:"quality"`
	Timestamp     time.Time `gorm:"index;not null" json:"timestamp"`
	MeasurementID *int64    `gorm:"index" json:"measurementId"`

	// Associations
	Measurement *Measurement `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
