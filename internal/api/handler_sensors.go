package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sensor-dashboard-backend/internal/model"
)

type sensorEntityRequest struct {
	Name  string `json:"name" binding:"required"`
	Unit  string `json:"unit"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

type createSensorRequest struct {
	Name             string                `json:"name" binding:"required"`
	Driver           string                `json:"driver" binding:"required"`
	ConnectionType   model.ConnectionType  `json:"connectionType" binding:"required,oneof=i2c adc io"`
	BoardType        model.BoardType       `json:"boardType" binding:"required,oneof=GPIO CUSTOM"`
	ConnectionParams string                `json:"connectionParams"`
	PollInterval     float64               `json:"pollInterval"`
	Enabled          *bool                 `json:"enabled"`
	Calibration      string                `json:"calibration"`
	Entities         []sensorEntityRequest `json:"entities"`
}

// CreateSensor handles POST /api/sensors. Entity membership is established
// here, once, and is immutable afterwards.
func (h *Handler) CreateSensor(c *gin.Context) {
	var req createSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sensor := model.Sensor{
		Name:             req.Name,
		Driver:           req.Driver,
		ConnectionType:   req.ConnectionType,
		BoardType:        req.BoardType,
		ConnectionParams: req.ConnectionParams,
		PollInterval:     req.PollInterval,
		Enabled:          true,
		Calibration:      req.Calibration,
	}
	if req.PollInterval <= 0 {
		sensor.PollInterval = 1.0
	}
	if req.Enabled != nil {
		sensor.Enabled = *req.Enabled
	}
	for _, e := range req.Entities {
		sensor.Entities = append(sensor.Entities, model.SensorEntity{
			Name:  e.Name,
			Unit:  e.Unit,
			Type:  e.Type,
			Color: e.Color,
		})
	}

	if err := h.store.DB().Create(&sensor).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create sensor"})
		return
	}
	c.JSON(http.StatusCreated, sensor)
}

// ListSensors handles GET /api/sensors.
func (h *Handler) ListSensors(c *gin.Context) {
	var sensors []model.Sensor
	if err := h.store.DB().Preload("Entities").Find(&sensors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve sensors"})
		return
	}
	c.JSON(http.StatusOK, sensors)
}

// GetSensor handles GET /api/sensors/{id}.
func (h *Handler) GetSensor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sensor id"})
		return
	}

	var sensor model.Sensor
	if err := h.store.DB().Preload("Entities").First(&sensor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sensor not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve sensor"})
		}
		return
	}
	c.JSON(http.StatusOK, sensor)
}

type updateSensorRequest struct {
	Driver           *string  `json:"driver"`
	ConnectionParams *string  `json:"connectionParams"`
	PollInterval     *float64 `json:"pollInterval"`
	Enabled          *bool    `json:"enabled"`
	Calibration      *string  `json:"calibration"`
}

// UpdateSensor handles PUT /api/sensors/{id}. Name, board type, connection
// type and entities are fixed at creation.
func (h *Handler) UpdateSensor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sensor id"})
		return
	}

	var req updateSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if req.Driver != nil {
		updates["driver"] = *req.Driver
	}
	if req.ConnectionParams != nil {
		updates["connection_params"] = *req.ConnectionParams
	}
	if req.PollInterval != nil && *req.PollInterval > 0 {
		updates["poll_interval"] = *req.PollInterval
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.Calibration != nil {
		updates["calibration"] = *req.Calibration
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields in request"})
		return
	}

	res := h.store.DB().Model(&model.Sensor{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update sensor"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "sensor not found"})
		return
	}

	var sensor model.Sensor
	if err := h.store.DB().Preload("Entities").First(&sensor, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reload sensor"})
		return
	}
	c.JSON(http.StatusOK, sensor)
}

// DeleteSensor handles DELETE /api/sensors/{id}. Entities cascade.
func (h *Handler) DeleteSensor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sensor id"})
		return
	}

	err = h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sensor_id = ?", id).Delete(&model.SensorEntity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Sensor{}, id).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete sensor"})
		return
	}
	c.Status(http.StatusNoContent)
}
