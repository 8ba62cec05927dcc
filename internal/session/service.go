package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"sensor-dashboard-backend/internal/backend"
	"sensor-dashboard-backend/internal/model"
	"sensor-dashboard-backend/internal/store"
)

// ErrUnknownSensor is returned when a start request names a sensor that
// does not exist.
var ErrUnknownSensor = errors.New("unknown sensor in start request")

// ErrAlreadyFinished is returned when stopping a measurement that is
// already in a terminal state.
var ErrAlreadyFinished = errors.New("measurement already finished")

// MeasurementController is the slice of the hardware backend client the
// session service needs.
type MeasurementController interface {
	StartMeasurement(ctx context.Context, req backend.StartRequest) error
	StopMeasurement(ctx context.Context, sessionID string) error
}

// Dispatcher receives the id of a finished measurement for notification
// fan-out.
type Dispatcher interface {
	Dispatch(measurementID int64)
}

// StartInput describes a start-measurement request after HTTP binding.
type StartInput struct {
	Title          string
	Description    string
	SampleInterval float64
	Duration       *float64 // seconds; nil = unbounded
	Sensors        []SensorBinding
}

// SensorBinding names one sensor to record and, optionally, the test
// object mounted on it.
type SensorBinding struct {
	SensorID     int64
	TestObjectID *int64
}

// Service owns the measurement lifecycle: starting → running on backend
// acknowledgement (or deliberately also on backend failure), completed on
// stop or duration expiry.
type Service struct {
	store    store.Store
	backend  MeasurementController
	notifier Dispatcher
}

// NewService creates a measurement session service. notifier may be nil.
func NewService(s store.Store, b MeasurementController, notifier Dispatcher) *Service {
	return &Service{store: s, backend: b, notifier: notifier}
}

// Start validates the requested sensors, creates the measurement in
// starting state with its bindings, asks the hardware backend to begin
// sampling and transitions to running. The transition happens even when
// the backend call fails: collecting whatever data is available beats
// leaving the measurement stuck.
func (s *Service) Start(ctx context.Context, in StartInput) (*model.Measurement, error) {
	if len(in.Sensors) == 0 {
		return nil, fmt.Errorf("%w: at least one sensor is required", ErrUnknownSensor)
	}
	if in.SampleInterval <= 0 {
		in.SampleInterval = 1.0
	}

	sensorIDs := make([]int64, len(in.Sensors))
	for i, b := range in.Sensors {
		sensorIDs[i] = b.SensorID
	}
	var sensors []model.Sensor
	if err := s.store.DB().WithContext(ctx).Find(&sensors, sensorIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to validate sensors: %w", err)
	}
	if len(sensors) != len(in.Sensors) {
		return nil, ErrUnknownSensor
	}
	sensorNames := make([]string, len(sensors))
	for i, sensor := range sensors {
		sensorNames[i] = sensor.Name
	}

	now := time.Now().UTC()
	m := &model.Measurement{
		SessionID:      uuid.NewString(),
		Title:          in.Title,
		Description:    in.Description,
		Status:         model.StatusStarting,
		SampleInterval: in.SampleInterval,
		Duration:       in.Duration,
		StartedAt:      &now,
	}
	for _, b := range in.Sensors {
		m.Sensors = append(m.Sensors, model.MeasurementSensor{
			SensorID:     b.SensorID,
			TestObjectID: b.TestObjectID,
		})
	}

	if err := s.store.CreateMeasurement(ctx, m); err != nil {
		return nil, err
	}

	if err := s.backend.StartMeasurement(ctx, backend.StartRequest{
		SessionID: m.SessionID,
		SensorIDs: sensorNames,
		Interval:  m.SampleInterval,
		Duration:  m.Duration,
	}); err != nil {
		log.Printf("Warning: hardware backend rejected start of session %s: %v. Running with best-effort data.", m.SessionID, err)
	}

	ok, err := s.store.TransitionMeasurement(ctx, m.ID,
		[]model.MeasurementStatus{model.StatusStarting}, model.StatusRunning, nil)
	if err != nil {
		return nil, err
	}
	if ok {
		m.Status = model.StatusRunning
	}
	log.Printf("Measurement %d (session %s) is running with %d sensors", m.ID, m.SessionID, len(m.Sensors))
	return m, nil
}

// Stop transitions a starting/running measurement to completed, tells the
// hardware backend to stop sampling (best effort) and dispatches finish
// notifications.
func (s *Service) Stop(ctx context.Context, id int64) (*model.Measurement, error) {
	m, err := s.store.GetMeasurement(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status.IsTerminal() {
		return nil, ErrAlreadyFinished
	}
	return s.finish(ctx, m)
}

// ExpireOverdue completes the active measurement if its duration cap has
// elapsed. Invoked by the scheduler before every collection cycle.
func (s *Service) ExpireOverdue(ctx context.Context) error {
	m, err := s.store.ActiveMeasurement(ctx)
	if err != nil {
		return err
	}
	if m == nil || m.Duration == nil || m.StartedAt == nil {
		return nil
	}
	deadline := m.StartedAt.Add(time.Duration(*m.Duration * float64(time.Second)))
	if time.Now().UTC().Before(deadline) {
		return nil
	}
	log.Printf("Measurement %d exceeded its duration cap, completing", m.ID)
	_, err = s.finish(ctx, m)
	return err
}

func (s *Service) finish(ctx context.Context, m *model.Measurement) (*model.Measurement, error) {
	now := time.Now().UTC()
	ok, err := s.store.TransitionMeasurement(ctx, m.ID,
		model.ActiveStatuses, model.StatusCompleted,
		map[string]any{"ended_at": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent stop.
		return nil, ErrAlreadyFinished
	}
	m.Status = model.StatusCompleted
	m.EndedAt = &now

	if err := s.backend.StopMeasurement(ctx, m.SessionID); err != nil {
		log.Printf("Warning: hardware backend stop for session %s failed: %v", m.SessionID, err)
	}

	if s.notifier != nil {
		s.notifier.Dispatch(m.ID)
	}
	log.Printf("Measurement %d (session %s) completed", m.ID, m.SessionID)
	return m, nil
}
