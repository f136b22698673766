package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	ShopID      string    `json:"shop_id" gorm:"type:uuid;not null;uniqueIndex:idx_categories_shop_woo,priority:1"`
	WooID       int64     `json:"woo_id" gorm:"not null;uniqueIndex:idx_categories_shop_woo,priority:2"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	ParentID    *string   `json:"parent_id" gorm:"type:uuid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Brand struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	ShopID      string    `json:"shop_id" gorm:"type:uuid;not null;uniqueIndex:idx_brands_shop_woo,priority:1"`
	WooID       int64     `json:"woo_id" gorm:"not null;uniqueIndex:idx_brands_shop_woo,priority:2"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductCategory struct {
	ProductID  string `json:"product_id" gorm:"type:uuid;primaryKey"`
	CategoryID string `json:"category_id" gorm:"type:uuid;primaryKey"`
}

type ProductBrand struct {
	ProductID string `json:"product_id" gorm:"type:uuid;primaryKey"`
	BrandID   string `json:"brand_id" gorm:"type:uuid;primaryKey"`
}

func (ProductCategory) TableName() string {
	return "product_categories"
}

func (ProductBrand) TableName() string {
	return "product_brands"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
