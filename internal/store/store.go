package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"sensor-dashboard-backend/internal/model"
)

// ErrActiveMeasurementExists is returned by CreateMeasurement when another
// measurement is already in a starting or running state.
var ErrActiveMeasurementExists = errors.New("another measurement is already active")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the database operations used by the collector, the
// scheduler, the retention reaper and the measurement session service.
// CRUD handlers go through DB() directly.
type Store interface {
	// DB exposes the underlying connection for the API layer.
	DB() *gorm.DB

	// HardwareConfig returns the singleton runtime config row.
	HardwareConfig(ctx context.Context) (model.HardwareConfig, error)

	// EnabledSensors returns all enabled sensors for the given board type,
	// with their entities preloaded.
	EnabledSensors(ctx context.Context, boardType model.BoardType) ([]model.Sensor, error)

	// ActiveMeasurement returns the measurement currently in a starting or
	// running state, with its sensor bindings preloaded, or nil if none.
	ActiveMeasurement(ctx context.Context) (*model.Measurement, error)

	// GetMeasurement loads a measurement by primary key.
	GetMeasurement(ctx context.Context, id int64) (*model.Measurement, error)

	// CreateMeasurement inserts a measurement and its sensor bindings,
	// refusing if another measurement is already active.
	CreateMeasurement(ctx context.Context, m *model.Measurement) error

	// TransitionMeasurement moves a measurement from one of the given
	// states to another, optionally setting timestamps. It reports whether
	// a row actually changed.
	TransitionMeasurement(ctx context.Context, id int64, from []model.MeasurementStatus, to model.MeasurementStatus, updates map[string]any) (bool, error)

	// InsertReadings appends a batch of readings.
	InsertReadings(ctx context.Context, readings []model.SensorReading) error

	// AddMeasurementReadings atomically increments a measurement's
	// readings_count by n. A single additive update, never read-modify-write.
	AddMeasurementReadings(ctx context.Context, measurementID int64, n int64) error

	// AddMeasurementErrors atomically increments a measurement's
	// error_count by n, one per failed read of a bound sensor.
	AddMeasurementErrors(ctx context.Context, measurementID int64, n int64) error

	// PurgeBackgroundReadings deletes unattached readings older than cutoff
	// and returns the number of rows removed.
	PurgeBackgroundReadings(ctx context.Context, cutoff time.Time) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) HardwareConfig(ctx context.Context) (model.HardwareConfig, error) {
	var cfg model.HardwareConfig
	if err := s.db.WithContext(ctx).First(&cfg, model.HardwareConfigID).Error; err != nil {
		return model.HardwareConfig{}, fmt.Errorf("failed to load hardware config: %w", err)
	}
	return cfg, nil
}

func (s *gormStore) EnabledSensors(ctx context.Context, boardType model.BoardType) ([]model.Sensor, error) {
	var sensors []model.Sensor
	err := s.db.WithContext(ctx).
		Preload("Entities").
		Where("enabled = ? AND board_type = ?", true, boardType).
		Find(&sensors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled sensors: %w", err)
	}
	return sensors, nil
}

func (s *gormStore) ActiveMeasurement(ctx context.Context) (*model.Measurement, error) {
	var m model.Measurement
	err := s.db.WithContext(ctx).
		Preload("Sensors").
		Where("status IN ?", model.ActiveStatuses).
		Order("id").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active measurement: %w", err)
	}
	return &m, nil
}

func (s *gormStore) GetMeasurement(ctx context.Context, id int64) (*model.Measurement, error) {
	var m model.Measurement
	err := s.db.WithContext(ctx).Preload("Sensors").First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load measurement %d: %w", id, err)
	}
	return &m, nil
}

func (s *gormStore) CreateMeasurement(ctx context.Context, m *model.Measurement) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&model.Measurement{}).
			Where("status IN ?", model.ActiveStatuses).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to check for active measurements: %w", err)
		}
		if active > 0 {
			return ErrActiveMeasurementExists
		}
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("failed to create measurement: %w", err)
		}
		return nil
	})
}

func (s *gormStore) TransitionMeasurement(ctx context.Context, id int64, from []model.MeasurementStatus, to model.MeasurementStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := s.db.WithContext(ctx).
		Model(&model.Measurement{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("failed to transition measurement %d to %s: %w", id, to, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) InsertReadings(ctx context.Context, readings []model.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&readings).Error; err != nil {
		return fmt.Errorf("failed to insert %d readings: %w", len(readings), err)
	}
	return nil
}

func (s *gormStore) AddMeasurementReadings(ctx context.Context, measurementID int64, n int64) error {
	err := s.db.WithContext(ctx).
		Model(&model.Measurement{}).
		Where("id = ?", measurementID).
		UpdateColumn("readings_count", gorm.Expr("readings_count + ?", n)).Error
	if err != nil {
		return fmt.Errorf("failed to add %d readings to measurement %d: %w", n, measurementID, err)
	}
	return nil
}

func (s *gormStore) AddMeasurementErrors(ctx context.Context, measurementID int64, n int64) error {
	err := s.db.WithContext(ctx).
		Model(&model.Measurement{}).
		Where("id = ?", measurementID).
		UpdateColumn("error_count", gorm.Expr("error_count + ?", n)).Error
	if err != nil {
		return fmt.Errorf("failed to add %d errors to measurement %d: %w", n, measurementID, err)
	}
	return nil
}

func (s *gormStore) PurgeBackgroundReadings(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("timestamp < ? AND measurement_id IS NULL", cutoff).
		Delete(&model.SensorReading{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge background readings: %w", res.Error)
	}
	return res.RowsAffected, nil
}
