package woocommerce

import (
	"testing"
)

func TestMapProduct(t *testing.T) {
	m := NewMapper()

	dto := Product{
		ID:           42,
		Name:         "Hoodie",
		Slug:         "hoodie",
		SKU:          "HD-001",
		Price:        "29.9000",
		RegularPrice: "39.00",
		SalePrice:    "",
		Status:       "publish",
		Type:         "variable",
		StockStatus:  "instock",
		Weight:       "0.5",
		Dimensions:   Dimensions{Length: "30", Width: "20", Height: "5"},
		Images: []Image{
			{Src: "https://shop.example/a.jpg"},
			{Src: "https://shop.example/b.jpg"},
			{Src: "https://shop.example/c.jpg"},
		},
		MetaData: []MetaData{
			{Key: "_custom_badge", Value: 7},
			{Key: "_layout", Value: map[string]interface{}{"cols": 2.0}},
		},
	}

	product, err := m.MapProduct(dto, "shop-1")
	if err != nil {
		t.Fatal(err)
	}

	if product.WooID != 42 || product.ShopID != "shop-1" {
		t.Fatalf("identity mismatch: %+v", product)
	}
	if product.Price != "29.9" {
		t.Fatalf("price not normalized: %q", product.Price)
	}
	if product.RegularPrice != "39" {
		t.Fatalf("regular price not normalized: %q", product.RegularPrice)
	}
	if product.SalePrice != "" {
		t.Fatalf("empty sale price must stay empty, got %q", product.SalePrice)
	}
	if product.FeaturedImage == nil || *product.FeaturedImage != "https://shop.example/a.jpg" {
		t.Fatalf("featured image = %v", product.FeaturedImage)
	}
	if len(product.GalleryImages) != 2 || product.GalleryImages[0] != "https://shop.example/b.jpg" {
		t.Fatalf("gallery = %v", product.GalleryImages)
	}
	if product.Dimensions["weight"] != "0.5" {
		t.Fatalf("dimensions = %v", product.Dimensions)
	}

	meta, ok := product.WooPayload["meta_data"].(map[string]interface{})
	if !ok {
		t.Fatalf("payload = %v", product.WooPayload)
	}
	if meta["_custom_badge"] != "7" {
		t.Fatalf("scalar meta not coerced to string: %v", meta["_custom_badge"])
	}
	if _, ok := meta["_layout"].(map[string]interface{}); !ok {
		t.Fatalf("structured meta flattened: %v", meta["_layout"])
	}
}

func TestMapProductRejectsMissingRequiredFields(t *testing.T) {
	m := NewMapper()

	if _, err := m.MapProduct(Product{Name: "no id"}, "shop-1"); err == nil {
		t.Fatal("product without remote id must be rejected")
	}
	if _, err := m.MapProduct(Product{ID: 9}, "shop-1"); err == nil {
		t.Fatal("product without name must be rejected")
	}
	if _, err := m.MapCategory(Category{ID: 3}, "shop-1"); err == nil {
		t.Fatal("category without name must be rejected")
	}
	if _, err := m.MapVariation(Variation{}, "shop-1", "prod-1"); err == nil {
		t.Fatal("variation without remote id must be rejected")
	}
}

func TestMapProductUnparseablePrice(t *testing.T) {
	m := NewMapper()

	product, err := m.MapProduct(Product{ID: 5, Name: "Odd", Price: "free!"}, "shop-1")
	if err != nil {
		t.Fatal(err)
	}
	if product.Price != "" {
		t.Fatalf("unparseable price must map to empty, got %q", product.Price)
	}
}

func TestMapVariationAttributes(t *testing.T) {
	m := NewMapper()

	variant, err := m.MapVariation(Variation{
		ID:          77,
		SKU:         "HD-001-L",
		Price:       "31.00",
		StockStatus: "outofstock",
		Attributes: []VariationAttribute{
			{Name: "Size", Option: "L"},
			{Name: "Color", Option: "Black"},
		},
	}, "shop-1", "prod-1")
	if err != nil {
		t.Fatal(err)
	}

	if variant.WooID != 77 || variant.ProductID != "prod-1" || variant.ShopID != "shop-1" {
		t.Fatalf("identity mismatch: %+v", variant)
	}
	if variant.Price != "31" {
		t.Fatalf("price = %q", variant.Price)
	}
	if variant.Attributes["Size"] != "L" || variant.Attributes["Color"] != "Black" {
		t.Fatalf("attributes = %v", variant.Attributes)
	}
}
