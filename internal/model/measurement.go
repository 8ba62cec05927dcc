package model

import "time"

// MeasurementStatus is the lifecycle state of a measurement session.
type MeasurementStatus string

const (
	StatusStarting  MeasurementStatus = "starting"
	StatusRunning   MeasurementStatus = "running"
	StatusCompleted MeasurementStatus = "completed"
	StatusError     MeasurementStatus = "error"
	StatusStopped   MeasurementStatus = "stopped"
)

// ActiveStatuses are the states in which a measurement is eligible to
// receive attributed readings from the collector.
var ActiveStatuses = []MeasurementStatus{StatusStarting, StatusRunning}

// IsTerminal reports whether no further transitions are allowed from s.
func (s MeasurementStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusStopped
}

// Measurement is a bounded recording period binding specific sensors (and
// optionally test objects) together. Its SessionID surfaces externally and
// is the identifier the hardware backend knows the session by.
type Measurement struct {
	ID             int64             `gorm:"primaryKey" json:"id"`
	SessionID      string            `gorm:"uniqueIndex;size:64;not null" json:"sessionId"`
	Title          string            `gorm:"size:256;not null" json:"title"`
	Description    string            `gorm:"type:text" json:"description"`
	Status         MeasurementStatus `gorm:"size:16;not null;index" json:"status"`
	SampleInterval float64           `gorm:"not null;default:1" json:"sampleInterval"` // seconds
	Duration       *float64          `json:"duration"`                                 // seconds; nil = unbounded
	StartedAt      *time.Time        `json:"startedAt"`
	EndedAt        *time.Time        `json:"endedAt"`
	ReadingsCount  int64             `gorm:"not null;default:0" json:"readingsCount"`
	ErrorCount     int64             `gorm:"not null;default:0" json:"errorCount"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`

	// Associations
	Sensors []MeasurementSensor `gorm:"foreignKey:MeasurementID;constraint:OnDelete:CASCADE" json:"sensors"`
}

// MeasurementSensor binds a Measurement to a Sensor and, optionally, to the
// test object being measured. This binding is the sole mechanism the
// collector uses to attribute live readings to a session.
type MeasurementSensor struct {
	ID            int64  `gorm:"primaryKey" json:"id"`
	MeasurementID int64  `gorm:"index;not null" json:"measurementId"`
	SensorID      int64  `gorm:"index;not null" json:"sensorId"`
	TestObjectID  *int64 `gorm:"index" json:"testObjectId"`
}
