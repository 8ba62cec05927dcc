package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"sensor-dashboard-backend/internal/backend"
	"sensor-dashboard-backend/internal/model"
	"sensor-dashboard-backend/internal/store"
)

// SensorReader is the slice of the hardware backend client the collector
// needs. Narrowed to an interface so tests can substitute a fake.
type SensorReader interface {
	ReadSensor(ctx context.Context, sensorName string) ([]backend.Reading, error)
}

// CycleResult summarizes one completed collection cycle.
type CycleResult struct {
	Timestamp      time.Time `json:"timestamp"`
	SensorsScanned int       `json:"sensorsScanned"`
	ReadingsStored int       `json:"readingsStored"`
	Attributed     int       `json:"attributed"`
	SensorErrors   int       `json:"sensorErrors"`
}

// Service executes poll-and-persist cycles against the hardware backend.
type Service struct {
	store   store.Store
	backend SensorReader
}

// NewService creates a collector service.
func NewService(s store.Store, b SensorReader) *Service {
	return &Service{store: s, backend: b}
}

// CollectOnce runs exactly one cycle: read every enabled sensor for the
// current board, resolve entities, attribute readings to the active
// measurement, and persist the batch under one shared timestamp.
//
// Per-sensor and per-reading problems are logged and skipped; only
// store-level failures make the cycle itself fail.
func (s *Service) CollectOnce(ctx context.Context) (CycleResult, error) {
	now := time.Now().UTC()
	result := CycleResult{Timestamp: now}

	cfg, err := s.store.HardwareConfig(ctx)
	if err != nil {
		return result, err
	}

	sensors, err := s.store.EnabledSensors(ctx, cfg.BoardType)
	if err != nil {
		return result, err
	}
	if len(sensors) == 0 {
		log.Printf("Collection cycle: no enabled sensors for board %s, nothing to do", cfg.BoardType)
		return result, nil
	}

	active, err := s.store.ActiveMeasurement(ctx)
	if err != nil {
		return result, err
	}
	boundSensors := make(map[int64]struct{})
	if active != nil {
		for _, ms := range active.Sensors {
			boundSensors[ms.SensorID] = struct{}{}
		}
	}

	var batch []model.SensorReading
	attributed := 0
	readErrors := 0
	for _, sensor := range sensors {
		result.SensorsScanned++

		readings, err := s.backend.ReadSensor(ctx, sensor.Name)
		if err != nil {
			log.Printf("Warning: skipping sensor %q for this cycle: %v", sensor.Name, err)
			if _, bound := boundSensors[sensor.ID]; bound {
				readErrors++
			}
			continue
		}

		entityByName := make(map[string]int64, len(sensor.Entities))
		for _, e := range sensor.Entities {
			entityByName[e.Name] = e.ID
		}

		for _, r := range readings {
			entityName, err := backend.ParseEntityID(sensor.Name, r.EntityID)
			if err != nil {
				log.Printf("Warning: skipping reading from sensor %q: %v", sensor.Name, err)
				continue
			}
			entityID, ok := entityByName[entityName]
			if !ok {
				// Registry/backend drift: the backend reports an entity the
				// local catalog does not know about.
				log.Printf("Warning: sensor %q reported unknown entity %q, skipping reading", sensor.Name, entityName)
				continue
			}

			quality := 1.0
			if r.Quality != nil {
				quality = *r.Quality
			}

			reading := model.SensorReading{
				EntityID:  entityID,
				Value:     r.Value,
				Quality:   quality,
				Timestamp: now,
			}
			if active != nil {
				if _, bound := boundSensors[sensor.ID]; bound {
					id := active.ID
					reading.MeasurementID = &id
					attributed++
				}
			}
			batch = append(batch, reading)
		}
	}

	if err := s.store.InsertReadings(ctx, batch); err != nil {
		return result, err
	}
	result.ReadingsStored = len(batch)
	result.Attributed = attributed

	if attributed > 0 {
		if err := s.store.AddMeasurementReadings(ctx, active.ID, int64(attributed)); err != nil {
			return result, fmt.Errorf("stored readings but failed to update counter: %w", err)
		}
	}
	if readErrors > 0 {
		if err := s.store.AddMeasurementErrors(ctx, active.ID, int64(readErrors)); err != nil {
			return result, fmt.Errorf("failed to update error counter: %w", err)
		}
	}
	result.SensorErrors = readErrors

	log.Printf("Collection cycle finished: %d sensors scanned, %d readings stored (%d attributed to measurement, %d bound sensors failed)",
		result.SensorsScanned, result.ReadingsStored, result.Attributed, result.SensorErrors)
	return result, nil
}
