package handlers

import (
	"net/http"
	"time"

	"wpm/internal/crypto"
	"wpm/internal/logger"
	"wpm/internal/models"
	"wpm/internal/services/woocommerce"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ShopHandler struct {
	db     *gorm.DB
	logger *logger.Logger
	vault  *crypto.Vault
}

func NewShopHandler(db *gorm.DB, logger *logger.Logger, vault *crypto.Vault) *ShopHandler {
	return &ShopHandler{
		db:     db,
		logger: logger,
		vault:  vault,
	}
}

type shopRequest struct {
	Name           string `json:"name" binding:"required"`
	BaseURL        string `json:"base_url" binding:"required,url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

func (h *ShopHandler) List(c *gin.Context) {
	var shops []models.Shop
	if err := h.db.Order("created_at").Find(&shops).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shops"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shops})
}

func (h *ShopHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var shop models.Shop
	if err := h.db.First(&shop, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shop"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": shop})
}

func (h *ShopHandler) Create(c *gin.Context) {
	var req shopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ConsumerKey == "" || req.ConsumerSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "consumer_key and consumer_secret are required"})
		return
	}

	encryptedKey, err := h.vault.Encrypt(req.ConsumerKey)
	if err != nil {
		h.logger.Error("Failed to encrypt credentials: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credentials"})
		return
	}
	encryptedSecret, err := h.vault.Encrypt(req.ConsumerSecret)
	if err != nil {
		h.logger.Error("Failed to encrypt credentials: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credentials"})
		return
	}

	shop := models.Shop{
		Name:           req.Name,
		BaseURL:        req.BaseURL,
		ConsumerKey:    encryptedKey,
		ConsumerSecret: encryptedSecret,
		Status:         models.ConnectionStatusUnknown,
	}
	if err := h.db.Create(&shop).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shop"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": shop})
}

func (h *ShopHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var shop models.Shop
	if err := h.db.First(&shop, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shop"})
		return
	}

	var req shopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shop.Name = req.Name
	shop.BaseURL = req.BaseURL
	// Credentials only change when the caller sends new ones.
	if req.ConsumerKey != "" {
		encrypted, err := h.vault.Encrypt(req.ConsumerKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credentials"})
			return
		}
		shop.ConsumerKey = encrypted
	}
	if req.ConsumerSecret != "" {
		encrypted, err := h.vault.Encrypt(req.ConsumerSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credentials"})
			return
		}
		shop.ConsumerSecret = encrypted
	}

	if err := h.db.Save(&shop).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update shop"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": shop})
}

func (h *ShopHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var productIDs []string
		if err := tx.Model(&models.Product{}).Where("shop_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		if len(productIDs) > 0 {
			if err := tx.Where("product_id IN ?", productIDs).Delete(&models.ProductCategory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id IN ?", productIDs).Delete(&models.ProductBrand{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("shop_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id = ?", id).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id = ?", id).Delete(&models.Brand{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Shop{}, "id = ?", id).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete shop"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// TestConnection probes the shop's WooCommerce API and persists the
// outcome on the shop row.
func (h *ShopHandler) TestConnection(c *gin.Context) {
	id := c.Param("id")

	var shop models.Shop
	if err := h.db.First(&shop, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shop"})
		return
	}

	consumerKey, err := h.vault.Decrypt(shop.ConsumerKey)
	if err != nil {
		h.logger.Error("Failed to decrypt credentials for shop %s: %v", shop.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored credentials are unreadable"})
		return
	}
	consumerSecret, err := h.vault.Decrypt(shop.ConsumerSecret)
	if err != nil {
		h.logger.Error("Failed to decrypt credentials for shop %s: %v", shop.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored credentials are unreadable"})
		return
	}

	client := woocommerce.NewClient(shop.BaseURL, consumerKey, consumerSecret, h.logger)
	check := client.TestConnection(c.Request.Context())

	now := time.Now()
	shop.LastCheckedAt = &now
	switch {
	case check.Authenticated:
		shop.Status = models.ConnectionStatusConnected
	case check.Reachable:
		shop.Status = models.ConnectionStatusUnauthorized
	default:
		shop.Status = models.ConnectionStatusUnreachable
	}
	if err := h.db.Model(&shop).Updates(map[string]interface{}{
		"status":          shop.Status,
		"last_checked_at": now,
	}).Error; err != nil {
		h.logger.Error("Failed to persist connection status: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"status":        shop.Status,
			"reachable":     check.Reachable,
			"authenticated": check.Authenticated,
			"status_code":   check.StatusCode,
			"elapsed_ms":    check.Elapsed.Milliseconds(),
			"message":       check.Message,
		},
	})
}
