package sync

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wpm/internal/models"
)

// Upsert helpers keyed by the (shop_id, woo_id) unique constraint. Each
// returns the canonical local row id and whether the row was created.
// The conflict clause, not the pre-read, carries the correctness: the
// pre-read only feeds created/updated counters and image-preserve policy.

var conflictShopWoo = clause.OnConflict{
	Columns: []clause.Column{{Name: "shop_id"}, {Name: "woo_id"}},
}

func upsertCategory(db *gorm.DB, cat *models.Category) (string, bool, error) {
	existingID, err := lookupID(db, &models.Category{}, cat.ShopID, cat.WooID)
	if err != nil {
		return "", false, err
	}

	conflict := conflictShopWoo
	conflict.DoUpdates = clause.AssignmentColumns([]string{"name", "slug", "description", "updated_at"})
	if err := db.Clauses(conflict).Create(cat).Error; err != nil {
		return "", false, fmt.Errorf("failed to upsert category %d: %w", cat.WooID, err)
	}

	if existingID != "" {
		return existingID, false, nil
	}
	return cat.ID, true, nil
}

func upsertBrand(db *gorm.DB, brand *models.Brand) (string, bool, error) {
	existingID, err := lookupID(db, &models.Brand{}, brand.ShopID, brand.WooID)
	if err != nil {
		return "", false, err
	}

	conflict := conflictShopWoo
	conflict.DoUpdates = clause.AssignmentColumns([]string{"name", "slug", "description", "updated_at"})
	if err := db.Clauses(conflict).Create(brand).Error; err != nil {
		return "", false, fmt.Errorf("failed to upsert brand %d: %w", brand.WooID, err)
	}

	if existingID != "" {
		return existingID, false, nil
	}
	return brand.ID, true, nil
}

func upsertProduct(db *gorm.DB, product *models.Product) (string, bool, error) {
	existingID, err := lookupID(db, &models.Product{}, product.ShopID, product.WooID)
	if err != nil {
		return "", false, err
	}

	conflict := conflictShopWoo
	conflict.DoUpdates = clause.AssignmentColumns([]string{
		"sku", "name", "slug", "description", "short_description",
		"price", "regular_price", "sale_price", "status", "type",
		"stock_status", "featured_image", "gallery_images",
		"dimensions", "woo_payload", "last_synced_at", "updated_at",
	})
	if err := db.Clauses(conflict).Create(product).Error; err != nil {
		return "", false, fmt.Errorf("failed to upsert product %d: %w", product.WooID, err)
	}

	if existingID != "" {
		return existingID, false, nil
	}
	return product.ID, true, nil
}

func upsertVariant(db *gorm.DB, variant *models.ProductVariant) (string, bool, error) {
	existingID, err := lookupID(db, &models.ProductVariant{}, variant.ShopID, variant.WooID)
	if err != nil {
		return "", false, err
	}

	conflict := conflictShopWoo
	conflict.DoUpdates = clause.AssignmentColumns([]string{
		"product_id", "sku", "price", "stock_status", "attributes", "updated_at",
	})
	if err := db.Clauses(conflict).Create(variant).Error; err != nil {
		return "", false, fmt.Errorf("failed to upsert variant %d: %w", variant.WooID, err)
	}

	if existingID != "" {
		return existingID, false, nil
	}
	return variant.ID, true, nil
}

func lookupID(db *gorm.DB, model interface{}, shopID string, wooID int64) (string, error) {
	var ids []string
	err := db.Model(model).
		Where("shop_id = ? AND woo_id = ?", shopID, wooID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// relinkCategories makes the local association set match the remote one:
// missing pairs are inserted with conflict-ignore, pairs absent from the
// remote payload are deleted so removals propagate.
func relinkCategories(db *gorm.DB, productID string, categoryIDs []string) error {
	for _, categoryID := range categoryIDs {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProductCategory{ProductID: productID, CategoryID: categoryID}).Error
		if err != nil {
			return fmt.Errorf("failed to link category: %w", err)
		}
	}

	stale := db.Where("product_id = ?", productID)
	if len(categoryIDs) > 0 {
		stale = stale.Where("category_id NOT IN ?", categoryIDs)
	}
	if err := stale.Delete(&models.ProductCategory{}).Error; err != nil {
		return fmt.Errorf("failed to unlink stale categories: %w", err)
	}
	return nil
}

func relinkBrands(db *gorm.DB, productID string, brandIDs []string) error {
	for _, brandID := range brandIDs {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProductBrand{ProductID: productID, BrandID: brandID}).Error
		if err != nil {
			return fmt.Errorf("failed to link brand: %w", err)
		}
	}

	stale := db.Where("product_id = ?", productID)
	if len(brandIDs) > 0 {
		stale = stale.Where("brand_id NOT IN ?", brandIDs)
	}
	if err := stale.Delete(&models.ProductBrand{}).Error; err != nil {
		return fmt.Errorf("failed to unlink stale brands: %w", err)
	}
	return nil
}
