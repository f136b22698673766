package woocommerce

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"wpm/internal/models"
)

// Mapper converts remote WooCommerce DTOs into local catalog entities.
// Required-field absence is rejected rather than silently coerced; loose
// meta values are coerced explicitly.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

func (m *Mapper) MapCategory(dto Category, shopID string) (*models.Category, error) {
	if dto.ID <= 0 {
		return nil, fmt.Errorf("woocommerce: category without remote id")
	}
	if dto.Name == "" {
		return nil, fmt.Errorf("woocommerce: category %d has no name", dto.ID)
	}

	cat := &models.Category{
		ShopID: shopID,
		WooID:  dto.ID,
		Name:   dto.Name,
		Slug:   dto.Slug,
	}
	if dto.Description != "" {
		cat.Description = &dto.Description
	}
	return cat, nil
}

func (m *Mapper) MapBrand(dto Brand, shopID string) (*models.Brand, error) {
	if dto.ID <= 0 {
		return nil, fmt.Errorf("woocommerce: brand without remote id")
	}
	if dto.Name == "" {
		return nil, fmt.Errorf("woocommerce: brand %d has no name", dto.ID)
	}

	brand := &models.Brand{
		ShopID: shopID,
		WooID:  dto.ID,
		Name:   dto.Name,
		Slug:   dto.Slug,
	}
	if dto.Description != "" {
		brand.Description = &dto.Description
	}
	return brand, nil
}

func (m *Mapper) MapProduct(dto Product, shopID string) (*models.Product, error) {
	if dto.ID <= 0 {
		return nil, fmt.Errorf("woocommerce: product without remote id")
	}
	if dto.Name == "" {
		return nil, fmt.Errorf("woocommerce: product %d has no name", dto.ID)
	}

	now := time.Now()
	product := &models.Product{
		ShopID:       shopID,
		WooID:        dto.ID,
		SKU:          dto.SKU,
		Name:         dto.Name,
		Slug:         dto.Slug,
		Price:        normalizePrice(dto.Price),
		RegularPrice: normalizePrice(dto.RegularPrice),
		SalePrice:    normalizePrice(dto.SalePrice),
		Status:       defaultString(dto.Status, "publish"),
		Type:         defaultString(dto.Type, models.ProductTypeSimple),
		StockStatus:  defaultString(dto.StockStatus, "instock"),
		Dimensions:   mapDimensions(dto),
		WooPayload:   mapPayload(dto),
		LastSyncedAt: &now,
	}
	if dto.Description != "" {
		product.Description = &dto.Description
	}
	if dto.ShortDescription != "" {
		product.ShortDescription = &dto.ShortDescription
	}

	featured, gallery := SplitImages(dto.Images)
	if featured != "" {
		product.FeaturedImage = &featured
	}
	product.GalleryImages = gallery

	return product, nil
}

func (m *Mapper) MapVariation(dto Variation, shopID, productID string) (*models.ProductVariant, error) {
	if dto.ID <= 0 {
		return nil, fmt.Errorf("woocommerce: variation without remote id")
	}

	attrs := models.JSONMap{}
	for _, attr := range dto.Attributes {
		if attr.Name == "" {
			continue
		}
		attrs[attr.Name] = attr.Option
	}

	return &models.ProductVariant{
		ProductID:   productID,
		ShopID:      shopID,
		WooID:       dto.ID,
		SKU:         dto.SKU,
		Price:       normalizePrice(dto.Price),
		StockStatus: defaultString(dto.StockStatus, "instock"),
		Attributes:  attrs,
	}, nil
}

// SplitImages separates the featured image (first position in the remote
// feed) from the gallery.
func SplitImages(images []Image) (featured string, gallery []string) {
	for i, img := range images {
		if img.Src == "" {
			continue
		}
		if i == 0 {
			featured = img.Src
			continue
		}
		gallery = append(gallery, img.Src)
	}
	return featured, gallery
}

// normalizePrice canonicalizes remote decimal strings ("19.9000" -> "19.9").
// Unparseable values map to empty, never to a fabricated zero.
func normalizePrice(raw string) string {
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return ""
	}
	return d.String()
}

func mapDimensions(dto Product) models.JSONMap {
	dims := models.JSONMap{}
	if dto.Dimensions.Length != "" {
		dims["length"] = dto.Dimensions.Length
	}
	if dto.Dimensions.Width != "" {
		dims["width"] = dto.Dimensions.Width
	}
	if dto.Dimensions.Height != "" {
		dims["height"] = dto.Dimensions.Height
	}
	if dto.Weight != "" {
		dims["weight"] = dto.Weight
	}
	if len(dims) == 0 {
		return nil
	}
	return dims
}

// mapPayload keeps the WooCommerce-specific leftovers (attributes,
// meta_data) as a loose document on the product row.
func mapPayload(dto Product) models.JSONMap {
	payload := models.JSONMap{}

	if len(dto.Attributes) > 0 {
		attrs := map[string]interface{}{}
		for _, attr := range dto.Attributes {
			if attr.Name != "" {
				attrs[attr.Name] = attr.Options
			}
		}
		payload["attributes"] = attrs
	}

	if len(dto.MetaData) > 0 {
		meta := map[string]interface{}{}
		for _, md := range dto.MetaData {
			if md.Key == "" {
				continue
			}
			// Meta values arrive as arbitrary JSON; store scalars as
			// strings and keep structured values as-is.
			switch md.Value.(type) {
			case map[string]interface{}, []interface{}, nil:
				meta[md.Key] = md.Value
			default:
				meta[md.Key] = cast.ToString(md.Value)
			}
		}
		payload["meta_data"] = meta
	}

	if len(payload) == 0 {
		return nil
	}
	return payload
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
