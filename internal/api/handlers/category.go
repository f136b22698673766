package handlers

import (
	"net/http"

	"wpm/internal/logger"
	"wpm/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewCategoryHandler(db *gorm.DB, logger *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		db:     db,
		logger: logger,
	}
}

func (h *CategoryHandler) List(c *gin.Context) {
	var categories []models.Category

	query := h.db.Model(&models.Category{})
	if shopID := c.Query("shop_id"); shopID != "" {
		query = query.Where("shop_id = ?", shopID)
	}

	if err := query.Order("name").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": categories})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
		return
	}

	var productCount int64
	h.db.Model(&models.ProductCategory{}).Where("category_id = ?", id).Count(&productCount)

	c.JSON(http.StatusOK, gin.H{"data": category, "product_count": productCount})
}

type categoryRequest struct {
	ShopID      string  `json:"shop_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := models.Category{
		ShopID:      req.ShopID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ParentID:    req.ParentID,
	}
	if err := h.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": category})
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Slug        *string `json:"slug"`
		Description *string `json:"description"`
		ParentID    *string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Slug != nil {
		category.Slug = *req.Slug
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.ParentID != nil {
		if *req.ParentID == category.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category cannot be its own parent"})
			return
		}
		category.ParentID = req.ParentID
	}

	if err := h.db.Save(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": category})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.ProductCategory{}).Error; err != nil {
			return err
		}
		// Orphan children instead of cascading.
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", id).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// Merge moves all product associations from this category onto the
// target, repoints children, then deletes the source.
func (h *CategoryHandler) Merge(c *gin.Context) {
	sourceID := c.Param("id")

	var req struct {
		TargetID string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TargetID == sourceID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot merge a category into itself"})
		return
	}

	var source, target models.Category
	if err := h.db.First(&source, "id = ?", sourceID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	if err := h.db.First(&target, "id = ?", req.TargetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target category not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var links []models.ProductCategory
		if err := tx.Where("category_id = ?", sourceID).Find(&links).Error; err != nil {
			return err
		}
		for _, link := range links {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.ProductCategory{ProductID: link.ProductID, CategoryID: target.ID}).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("category_id = ?", sourceID).Delete(&models.ProductCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", sourceID).
			Update("parent_id", target.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", sourceID).Error
	})
	if err != nil {
		h.logger.Error("Failed to merge category %s into %s: %v", sourceID, req.TargetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to merge categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": target})
}
