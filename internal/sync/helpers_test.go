package sync_test

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"wpm/internal/crypto"
	"wpm/internal/database"
	"wpm/internal/logger"
	"wpm/internal/models"
	"wpm/internal/services/images"
	"wpm/internal/services/woocommerce"
	"wpm/internal/sync"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func testVault(t *testing.T) *crypto.Vault {
	t.Helper()
	v, err := crypto.NewVault(bytes.Repeat([]byte{0x24}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func testLogger() *logger.Logger {
	return logger.New("error")
}

func createShop(t *testing.T, db *gorm.DB, v *crypto.Vault) *models.Shop {
	t.Helper()
	key, err := v.Encrypt("ck_test")
	if err != nil {
		t.Fatal(err)
	}
	secret, err := v.Encrypt("cs_test")
	if err != nil {
		t.Fatal(err)
	}
	shop := &models.Shop{
		Name:           "Test Shop",
		BaseURL:        "https://shop.example",
		ConsumerKey:    key,
		ConsumerSecret: secret,
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatal(err)
	}
	return shop
}

// fakeClient serves canned pages. Its ForEach methods mirror the real
// client's contract: pages in order, walk stops on fn error.
type fakeClient struct {
	categories [][]woocommerce.Category
	brands     [][]woocommerce.Brand
	products   [][]woocommerce.Product
	variations map[int64][]woocommerce.Variation

	// failProductsAtPage aborts the product walk before serving that
	// page (1-based). Zero disables.
	failProductsAtPage int

	consumerKey    string
	consumerSecret string
}

func (f *fakeClient) factory() sync.ClientFactory {
	return func(baseURL, consumerKey, consumerSecret string) sync.CatalogClient {
		f.consumerKey = consumerKey
		f.consumerSecret = consumerSecret
		return f
	}
}

func (f *fakeClient) ForEachCategoryPage(ctx context.Context, perPage int, fn func(int, []woocommerce.Category) error) error {
	for i, page := range f.categories {
		if err := fn(i+1, page); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeClient) ForEachBrandPage(ctx context.Context, perPage int, fn func(int, []woocommerce.Brand) error) error {
	for i, page := range f.brands {
		if err := fn(i+1, page); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeClient) ForEachProductPage(ctx context.Context, perPage int, fn func(int, []woocommerce.Product) error) error {
	for i, page := range f.products {
		if f.failProductsAtPage == i+1 {
			return &woocommerce.APIError{Status: 500, Body: "remote exploded"}
		}
		if err := fn(i+1, page); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeClient) ForEachVariationPage(ctx context.Context, productID int64, perPage int, fn func(int, []woocommerce.Variation) error) error {
	items := f.variations[productID]
	if len(items) == 0 {
		return nil
	}
	return fn(1, items)
}

// fakeImages relocates deterministically without any network.
type fakeImages struct {
	fail  bool
	calls int
}

func (f *fakeImages) SyncProductImages(ctx context.Context, featured string, gallery []string, shopID string) images.ProductImages {
	f.calls++
	if f.fail {
		return images.ProductImages{}
	}
	result := images.ProductImages{}
	if featured != "" {
		result.Featured = central(featured, shopID)
	}
	for _, src := range gallery {
		result.Gallery = append(result.Gallery, central(src, shopID))
	}
	return result
}

func central(src, shopID string) string {
	parsed, _ := url.Parse(src)
	return "https://media.local/shops/" + shopID + "/" + path.Base(parsed.Path)
}

func newReconciler(db *gorm.DB, v *crypto.Vault, imgs sync.ImageSyncer, factory sync.ClientFactory) *sync.Reconciler {
	return sync.NewReconciler(db, v, imgs, nil, testLogger(), factory, 50)
}

// catalogFixture is a small two-category, one-brand, two-product remote
// catalog; product 101 is variable with two variations.
func catalogFixture() *fakeClient {
	return &fakeClient{
		categories: [][]woocommerce.Category{{
			// Child listed before parent on purpose.
			{ID: 11, Name: "Hoodies", Slug: "hoodies", Parent: 10},
			{ID: 10, Name: "Clothing", Slug: "clothing"},
		}},
		brands: [][]woocommerce.Brand{{
			{ID: 21, Name: "Acme", Slug: "acme"},
		}},
		products: [][]woocommerce.Product{{
			{
				ID: 101, Name: "Hoodie", Slug: "hoodie", SKU: "HD-1",
				Type: "variable", Price: "29.90",
				Categories: []woocommerce.TermRef{{ID: 10}, {ID: 11}},
				Brands:     []woocommerce.TermRef{{ID: 21}},
				Images: []woocommerce.Image{
					{Src: "https://shop.example/uploads/hoodie.jpg"},
					{Src: "https://shop.example/uploads/hoodie-back.jpg"},
				},
			},
			{
				ID: 102, Name: "Mug", Slug: "mug", SKU: "MG-1",
				Type: "simple", Price: "9.90",
				Categories: []woocommerce.TermRef{{ID: 10}},
			},
		}},
		variations: map[int64][]woocommerce.Variation{
			101: {
				{ID: 201, SKU: "HD-1-S", Price: "29.90", Attributes: []woocommerce.VariationAttribute{{Name: "Size", Option: "S"}}},
				{ID: 202, SKU: "HD-1-L", Price: "31.90", Attributes: []woocommerce.VariationAttribute{{Name: "Size", Option: "L"}}},
			},
		},
	}
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}
