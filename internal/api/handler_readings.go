package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sensor-dashboard-backend/internal/model"
)

// latestReadingResponse is the flattened structure for the live dashboard.
type latestReadingResponse struct {
	EntityID   int64      `json:"entityId"`
	EntityName string     `json:"entityName"`
	SensorID   int64      `json:"sensorId"`
	SensorName string     `json:"sensorName"`
	Unit       string     `json:"unit"`
	Color      string     `json:"color"`
	Value      *float64   `json:"value"`
	Quality    *float64   `json:"quality"`
	Timestamp  *time.Time `json:"timestamp"`
}

// LatestReadings handles GET /api/readings/latest: the newest reading per
// entity, one row per registered entity even when no data has arrived yet.
func (h *Handler) LatestReadings(c *gin.Context) {
	db := h.store.DB()

	var entities []model.SensorEntity
	if err := db.Find(&entities).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve entities"})
		return
	}

	var sensors []model.Sensor
	if err := db.Find(&sensors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve sensors"})
		return
	}
	sensorByID := make(map[int64]model.Sensor, len(sensors))
	for _, s := range sensors {
		sensorByID[s.ID] = s
	}

	// One aggregated query instead of a lookup per entity.
	newest := db.Model(&model.SensorReading{}).Select("MAX(id)").Group("entity_id")
	var readings []model.SensorReading
	if err := db.Where("id IN (?)", newest).Find(&readings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve readings"})
		return
	}
	readingByEntity := make(map[int64]model.SensorReading, len(readings))
	for _, r := range readings {
		readingByEntity[r.EntityID] = r
	}

	response := make([]latestReadingResponse, 0, len(entities))
	for _, e := range entities {
		row := latestReadingResponse{
			EntityID:   e.ID,
			EntityName: e.Name,
			SensorID:   e.SensorID,
			Unit:       e.Unit,
			Color:      e.Color,
		}
		if s, ok := sensorByID[e.SensorID]; ok {
			row.SensorName = s.Name
		}
		if r, ok := readingByEntity[e.ID]; ok {
			v, q, ts := r.Value, r.Quality, r.Timestamp
			row.Value = &v
			row.Quality = &q
			row.Timestamp = &ts
		}
		response = append(response, row)
	}
	c.JSON(http.StatusOK, response)
}
