package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID               string     `json:"id" gorm:"type:uuid;primary_key"`
	ShopID           string     `json:"shop_id" gorm:"type:uuid;not null;uniqueIndex:idx_products_shop_woo,priority:1"`
	WooID            int64      `json:"woo_id" gorm:"not null;uniqueIndex:idx_products_shop_woo,priority:2"`
	SKU              string     `json:"sku"`
	Name             string     `json:"name" gorm:"not null"`
	Slug             string     `json:"slug"`
	Description      *string    `json:"description"`
	ShortDescription *string    `json:"short_description"`
	Price            string     `json:"price"`
	RegularPrice     string     `json:"regular_price"`
	SalePrice        string     `json:"sale_price"`
	Status           string     `json:"status" gorm:"default:publish"`
	Type             string     `json:"type" gorm:"default:simple"`
	StockStatus      string     `json:"stock_status" gorm:"default:instock"`
	FeaturedImage    *string    `json:"featured_image"`
	GalleryImages    []string   `json:"gallery_images" gorm:"serializer:json"`
	Dimensions       JSONMap    `json:"dimensions" gorm:"serializer:json"`
	WooPayload       JSONMap    `json:"woo_payload" gorm:"serializer:json"`
	LastSyncedAt     *time.Time `json:"last_synced_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ProductVariant struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	ProductID   string    `json:"product_id" gorm:"type:uuid;not null"`
	ShopID      string    `json:"shop_id" gorm:"type:uuid;not null;uniqueIndex:idx_variants_shop_woo,priority:1"`
	WooID       int64     `json:"woo_id" gorm:"not null;uniqueIndex:idx_variants_shop_woo,priority:2"`
	SKU         string    `json:"sku"`
	Price       string    `json:"price"`
	StockStatus string    `json:"stock_status" gorm:"default:instock"`
	Attributes  JSONMap   `json:"attributes" gorm:"serializer:json"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type JSONMap map[string]interface{}

const (
	ProductTypeSimple   = "simple"
	ProductTypeVariable = "variable"
	ProductTypeGrouped  = "grouped"
)

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
