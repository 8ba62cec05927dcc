package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sensor-dashboard-backend/internal/model"
)

type labelRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// CreateLabel handles POST /api/labels.
func (h *Handler) CreateLabel(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	label := model.Label{Name: req.Name, Color: req.Color}
	if err := h.store.DB().Create(&label).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create label"})
		return
	}
	c.JSON(http.StatusCreated, label)
}

// ListLabels handles GET /api/labels.
func (h *Handler) ListLabels(c *gin.Context) {
	var labels []model.Label
	if err := h.store.DB().Find(&labels).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve labels"})
		return
	}
	c.JSON(http.StatusOK, labels)
}

// DeleteLabel handles DELETE /api/labels/{id}.
func (h *Handler) DeleteLabel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid label id"})
		return
	}

	if err := h.store.DB().Delete(&model.Label{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete label"})
		return
	}
	c.Status(http.StatusNoContent)
}
