package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sensor-dashboard-backend/internal/model"
)

// GetHardwareConfig handles GET /api/hardware-config.
func (h *Handler) GetHardwareConfig(c *gin.Context) {
	cfg, err := h.store.HardwareConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve hardware config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type updateHardwareConfigRequest struct {
	BoardType                 *model.BoardType `json:"boardType" binding:"omitempty,oneof=GPIO CUSTOM"`
	DashboardUpdateIntervalMs *int64           `json:"dashboardUpdateInterval" binding:"omitempty,gt=0"`
	GraphDataRetentionMs      *int64           `json:"graphDataRetentionTime" binding:"omitempty,gt=0"`
}

// UpdateHardwareConfig handles PUT /api/hardware-config. The scheduler and
// reaper pick changes up on their next tick; no restart required.
func (h *Handler) UpdateHardwareConfig(c *gin.Context) {
	var req updateHardwareConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if req.BoardType != nil {
		updates["board_type"] = *req.BoardType
	}
	if req.DashboardUpdateIntervalMs != nil {
		updates["dashboard_update_interval_ms"] = *req.DashboardUpdateIntervalMs
	}
	if req.GraphDataRetentionMs != nil {
		updates["graph_data_retention_ms"] = *req.GraphDataRetentionMs
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields in request"})
		return
	}

	if err := h.store.DB().
		Model(&model.HardwareConfig{}).
		Where("id = ?", model.HardwareConfigID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update hardware config"})
		return
	}

	cfg, err := h.store.HardwareConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reload hardware config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}
