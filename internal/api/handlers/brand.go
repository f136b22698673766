package handlers

import (
	"net/http"

	"wpm/internal/logger"
	"wpm/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BrandHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewBrandHandler(db *gorm.DB, logger *logger.Logger) *BrandHandler {
	return &BrandHandler{
		db:     db,
		logger: logger,
	}
}

func (h *BrandHandler) List(c *gin.Context) {
	var brands []models.Brand

	query := h.db.Model(&models.Brand{})
	if shopID := c.Query("shop_id"); shopID != "" {
		query = query.Where("shop_id = ?", shopID)
	}

	if err := query.Order("name").Find(&brands).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch brands"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": brands})
}

func (h *BrandHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var brand models.Brand
	if err := h.db.First(&brand, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch brand"})
		return
	}

	var productCount int64
	h.db.Model(&models.ProductBrand{}).Where("brand_id = ?", id).Count(&productCount)

	c.JSON(http.StatusOK, gin.H{"data": brand, "product_count": productCount})
}

type brandRequest struct {
	ShopID      string  `json:"shop_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

func (h *BrandHandler) Create(c *gin.Context) {
	var req brandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	brand := models.Brand{
		ShopID:      req.ShopID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if err := h.db.Create(&brand).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create brand"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": brand})
}

func (h *BrandHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var brand models.Brand
	if err := h.db.First(&brand, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch brand"})
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Slug        *string `json:"slug"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		brand.Name = *req.Name
	}
	if req.Slug != nil {
		brand.Slug = *req.Slug
	}
	if req.Description != nil {
		brand.Description = req.Description
	}

	if err := h.db.Save(&brand).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update brand"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": brand})
}

func (h *BrandHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("brand_id = ?", id).Delete(&models.ProductBrand{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Brand{}, "id = ?", id).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete brand"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// Merge moves all product associations from this brand onto the target,
// then deletes the source.
func (h *BrandHandler) Merge(c *gin.Context) {
	sourceID := c.Param("id")

	var req struct {
		TargetID string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TargetID == sourceID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot merge a brand into itself"})
		return
	}

	var source, target models.Brand
	if err := h.db.First(&source, "id = ?", sourceID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
		return
	}
	if err := h.db.First(&target, "id = ?", req.TargetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target brand not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var links []models.ProductBrand
		if err := tx.Where("brand_id = ?", sourceID).Find(&links).Error; err != nil {
			return err
		}
		for _, link := range links {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.ProductBrand{ProductID: link.ProductID, BrandID: target.ID}).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("brand_id = ?", sourceID).Delete(&models.ProductBrand{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Brand{}, "id = ?", sourceID).Error
	})
	if err != nil {
		h.logger.Error("Failed to merge brand %s into %s: %v", sourceID, req.TargetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to merge brands"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": target})
}
