package model

import "time"

// ConnectionType describes how a sensor is wired to the board.
type ConnectionType string

const (
	ConnectionI2C ConnectionType = "i2c"
	ConnectionADC ConnectionType = "adc"
	ConnectionIO  ConnectionType = "io"
)

// BoardType is the selected hardware platform. Only sensors whose BoardType
// matches the configured board are polled.
type BoardType string

const (
	BoardGPIO   BoardType = "GPIO"
	BoardCustom BoardType = "CUSTOM"
)

// Sensor represents a configured physical sensor. Its Name doubles as the
// identifier the hardware backend knows the sensor by.
type Sensor struct {
	ID               int64          `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Driver           string         `gorm:"size:128;not null" json:"driver"`
	ConnectionType   ConnectionType `gorm:"size:16;not null" json:"connectionType"`
	BoardType        BoardType      `gorm:"size:16;not null;index" json:"boardType"`
	ConnectionParams string         `gorm:"type:text" json:"connectionParams"` // JSON blob (pin, address, bus, ...)
	PollInterval     float64        `gorm:"not null;default:1" json:"pollInterval"`
	Enabled          bool           `gorm:"not null;default:true;index" json:"enabled"`
	Calibration      string         `gorm:"type:text" json:"calibration"` // JSON blob of offsets/multipliers
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`

	// Associations
	Entities []SensorEntity `gorm:"foreignKey:SensorID;constraint:OnDelete:CASCADE" json:"entities"`
}

// SensorEntity is a named sub-channel of a sensor (e.g. a combo sensor
// exposes temperature and humidity separately). Entity membership is
// established once at sensor creation and is immutable afterwards.
type SensorEntity struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	SensorID  int64     `gorm:"index;not null" json:"sensorId"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Unit      string    `gorm:"size:32" json:"unit"`
	Type      string    `gorm:"size:32" json:"type"`
	Color     string    `gorm:"size:16" json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}
