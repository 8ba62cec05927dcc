package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sensor-dashboard-backend/internal/model"
)

type testObjectRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	LabelIDs    []int64 `json:"labelIds"`
}

// CreateTestObject handles POST /api/test-objects.
func (h *Handler) CreateTestObject(c *gin.Context) {
	var req testObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	obj := model.TestObject{Name: req.Name, Description: req.Description}
	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&obj).Error; err != nil {
			return err
		}
		return replaceLabels(tx, &obj, req.LabelIDs)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create test object"})
		return
	}
	c.JSON(http.StatusCreated, obj)
}

// ListTestObjects handles GET /api/test-objects.
func (h *Handler) ListTestObjects(c *gin.Context) {
	var objects []model.TestObject
	if err := h.store.DB().Preload("Labels").Find(&objects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve test objects"})
		return
	}
	c.JSON(http.StatusOK, objects)
}

// GetTestObject handles GET /api/test-objects/{id}.
func (h *Handler) GetTestObject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test object id"})
		return
	}

	var obj model.TestObject
	if err := h.store.DB().Preload("Labels").First(&obj, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "test object not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve test object"})
		}
		return
	}
	c.JSON(http.StatusOK, obj)
}

// UpdateTestObject handles PUT /api/test-objects/{id}.
func (h *Handler) UpdateTestObject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test object id"})
		return
	}

	var req testObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var obj model.TestObject
	if err := h.store.DB().First(&obj, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "test object not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve test object"})
		}
		return
	}

	obj.Name = req.Name
	obj.Description = req.Description
	err = h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&obj).Error; err != nil {
			return err
		}
		return replaceLabels(tx, &obj, req.LabelIDs)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update test object"})
		return
	}
	c.JSON(http.StatusOK, obj)
}

// DeleteTestObject handles DELETE /api/test-objects/{id}.
func (h *Handler) DeleteTestObject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test object id"})
		return
	}

	err = h.store.DB().Transaction(func(tx *gorm.DB) error {
		obj := model.TestObject{ID: id}
		if err := tx.Model(&obj).Association("Labels").Clear(); err != nil {
			return err
		}
		return tx.Delete(&obj).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete test object"})
		return
	}
	c.Status(http.StatusNoContent)
}

// replaceLabels sets a test object's label set, loading the referenced
// labels first so unknown ids are silently dropped rather than inserted.
func replaceLabels(tx *gorm.DB, obj *model.TestObject, labelIDs []int64) error {
	var labels []*model.Label
	if len(labelIDs) > 0 {
		if err := tx.Find(&labels, labelIDs).Error; err != nil {
			return err
		}
	}
	if err := tx.Model(obj).Association("Labels").Replace(labels); err != nil {
		return err
	}
	obj.Labels = labels
	return nil
}
