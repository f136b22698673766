package handlers

import (
	"net/http"

	"wpm/internal/logger"
	"wpm/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StatsHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewStatsHandler(db *gorm.DB, logger *logger.Logger) *StatsHandler {
	return &StatsHandler{
		db:     db,
		logger: logger,
	}
}

type shopStats struct {
	ShopID     string `json:"shop_id"`
	ShopName   string `json:"shop_name"`
	Products   int64  `json:"products"`
	Variants   int64  `json:"variants"`
	Categories int64  `json:"categories"`
	Brands     int64  `json:"brands"`
}

// Overview feeds the dashboard: per-shop catalog counts plus totals.
func (h *StatsHandler) Overview(c *gin.Context) {
	var shops []models.Shop
	if err := h.db.Order("created_at").Find(&shops).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shops"})
		return
	}

	perShop := make([]shopStats, 0, len(shops))
	for _, shop := range shops {
		stats := shopStats{ShopID: shop.ID, ShopName: shop.Name}
		h.db.Model(&models.Product{}).Where("shop_id = ?", shop.ID).Count(&stats.Products)
		h.db.Model(&models.ProductVariant{}).Where("shop_id = ?", shop.ID).Count(&stats.Variants)
		h.db.Model(&models.Category{}).Where("shop_id = ?", shop.ID).Count(&stats.Categories)
		h.db.Model(&models.Brand{}).Where("shop_id = ?", shop.ID).Count(&stats.Brands)
		perShop = append(perShop, stats)
	}

	var totals shopStats
	h.db.Model(&models.Product{}).Count(&totals.Products)
	h.db.Model(&models.ProductVariant{}).Count(&totals.Variants)
	h.db.Model(&models.Category{}).Count(&totals.Categories)
	h.db.Model(&models.Brand{}).Count(&totals.Brands)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"shops": perShop,
			"totals": gin.H{
				"shops":      len(shops),
				"products":   totals.Products,
				"variants":   totals.Variants,
				"categories": totals.Categories,
				"brands":     totals.Brands,
			},
		},
	})
}
