package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sensor-dashboard-backend/internal/model"
	"sensor-dashboard-backend/internal/session"
	"sensor-dashboard-backend/internal/store"
)

type startMeasurementSensor struct {
	SensorID     int64  `json:"sensorId" binding:"required"`
	TestObjectID *int64 `json:"testObjectId"`
}

type startMeasurementRequest struct {
	Title          string                   `json:"title" binding:"required"`
	Description    string                   `json:"description"`
	SampleInterval float64                  `json:"sampleInterval"`
	Duration       *float64                 `json:"duration"`
	Sensors        []startMeasurementSensor `json:"sensors" binding:"required,min=1"`
}

// StartMeasurement handles POST /api/measurements.
func (h *Handler) StartMeasurement(c *gin.Context) {
	var req startMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := session.StartInput{
		Title:          req.Title,
		Description:    req.Description,
		SampleInterval: req.SampleInterval,
		Duration:       req.Duration,
	}
	for _, s := range req.Sensors {
		in.Sensors = append(in.Sensors, session.SensorBinding{
			SensorID:     s.SensorID,
			TestObjectID: s.TestObjectID,
		})
	}

	m, err := h.sessions.Start(c.Request.Context(), in)
	switch {
	case errors.Is(err, session.ErrUnknownSensor):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrActiveMeasurementExists):
		c.JSON(http.StatusConflict, gin.H{"error": "another measurement is already active"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start measurement"})
	default:
		c.JSON(http.StatusCreated, m)
	}
}

// StopMeasurement handles POST /api/measurements/{id}/stop.
func (h *Handler) StopMeasurement(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurement id"})
		return
	}

	m, err := h.sessions.Stop(c.Request.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "measurement not found"})
	case errors.Is(err, session.ErrAlreadyFinished):
		c.JSON(http.StatusConflict, gin.H{"error": "measurement already finished"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stop measurement"})
	default:
		c.JSON(http.StatusOK, m)
	}
}

// ListMeasurements handles GET /api/measurements.
func (h *Handler) ListMeasurements(c *gin.Context) {
	var measurements []model.Measurement
	if err := h.store.DB().Preload("Sensors").Order("id DESC").Find(&measurements).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve measurements"})
		return
	}
	c.JSON(http.StatusOK, measurements)
}

// GetMeasurement handles GET /api/measurements/{id}.
func (h *Handler) GetMeasurement(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurement id"})
		return
	}

	m, err := h.store.GetMeasurement(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "measurement not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve measurement"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMeasurement handles DELETE /api/measurements/{id}. Attached
// readings and sensor bindings cascade with it.
func (h *Handler) DeleteMeasurement(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurement id"})
		return
	}

	m, err := h.store.GetMeasurement(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "measurement not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve measurement"})
		return
	}
	if !m.Status.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "measurement is still active"})
		return
	}

	db := h.store.DB()
	if err := db.Where("measurement_id = ?", id).Delete(&model.SensorReading{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete measurement readings"})
		return
	}
	if err := db.Where("measurement_id = ?", id).Delete(&model.MeasurementSensor{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete measurement bindings"})
		return
	}
	if err := db.Delete(&model.Measurement{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete measurement"})
		return
	}
	c.Status(http.StatusNoContent)
}
