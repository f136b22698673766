package sync_test

import (
	"context"
	"errors"
	"testing"

	"wpm/internal/database"
	"wpm/internal/models"
	"wpm/internal/services/woocommerce"
	"wpm/internal/sync"
)

func TestReconcilerFullRun(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shop := createShop(t, db, vault)
	client := catalogFixture()
	imgs := &fakeImages{}

	r := newReconciler(db, vault, imgs, client.factory())

	var progress []sync.Progress
	summary, err := r.Run(context.Background(), shop, func(p sync.Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatal(err)
	}

	if client.consumerKey != "ck_test" || client.consumerSecret != "cs_test" {
		t.Fatalf("client built with wrong decrypted credentials: %q %q", client.consumerKey, client.consumerSecret)
	}

	want := sync.Summary{
		CategoriesCreated: 2,
		BrandsCreated:     1,
		ProductsCreated:   2,
		VariantsCreated:   2,
	}
	if *summary != want {
		t.Fatalf("summary = %+v, want %+v", *summary, want)
	}

	// Parent linkage resolved even though the child came first.
	var child models.Category
	if err := db.First(&child, "shop_id = ? AND woo_id = ?", shop.ID, 11).Error; err != nil {
		t.Fatal(err)
	}
	var parent models.Category
	if err := db.First(&parent, "shop_id = ? AND woo_id = ?", shop.ID, 10).Error; err != nil {
		t.Fatal(err)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Fatalf("child parent = %v, want %s", child.ParentID, parent.ID)
	}

	// Associations in place.
	var hoodie models.Product
	if err := db.First(&hoodie, "shop_id = ? AND woo_id = ?", shop.ID, 101).Error; err != nil {
		t.Fatal(err)
	}
	if n := count(t, db, &models.ProductCategory{}, "product_id = ?", hoodie.ID); n != 2 {
		t.Fatalf("hoodie has %d category links, want 2", n)
	}
	if n := count(t, db, &models.ProductBrand{}, "product_id = ?", hoodie.ID); n != 1 {
		t.Fatalf("hoodie has %d brand links, want 1", n)
	}

	// Images rewritten to central URLs.
	if hoodie.FeaturedImage == nil || *hoodie.FeaturedImage != central("https://shop.example/uploads/hoodie.jpg", shop.ID) {
		t.Fatalf("featured = %v", hoodie.FeaturedImage)
	}
	if len(hoodie.GalleryImages) != 1 {
		t.Fatalf("gallery = %v", hoodie.GalleryImages)
	}

	// Stage ordering in the progress log.
	stagesSeen := map[sync.Stage]int{}
	lastIndex := map[sync.Stage]int{}
	for i, p := range progress {
		stagesSeen[p.Stage]++
		lastIndex[p.Stage] = i
	}
	for _, stage := range []sync.Stage{
		sync.StageFetchingCategories, sync.StageFetchingBrands,
		sync.StageFetchingProducts, sync.StageSyncingVariants, sync.StageCompleted,
	} {
		if stagesSeen[stage] == 0 {
			t.Fatalf("stage %s never reported", stage)
		}
	}
	if !(lastIndex[sync.StageFetchingCategories] < lastIndex[sync.StageFetchingBrands] &&
		lastIndex[sync.StageFetchingBrands] < lastIndex[sync.StageFetchingProducts] &&
		lastIndex[sync.StageFetchingProducts] < lastIndex[sync.StageSyncingVariants]) {
		t.Fatalf("stages out of order: %+v", progress)
	}
}

func TestReconcilerIdempotence(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shop := createShop(t, db, vault)
	client := catalogFixture()

	r := newReconciler(db, vault, &fakeImages{}, client.factory())

	if _, err := r.Run(context.Background(), shop, nil); err != nil {
		t.Fatal(err)
	}

	before := []int64{
		count(t, db, &models.Category{}, ""),
		count(t, db, &models.Brand{}, ""),
		count(t, db, &models.Product{}, ""),
		count(t, db, &models.ProductVariant{}, ""),
		count(t, db, &models.ProductCategory{}, ""),
		count(t, db, &models.ProductBrand{}, ""),
	}

	summary, err := r.Run(context.Background(), shop, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.CategoriesCreated+summary.BrandsCreated+summary.ProductsCreated+summary.VariantsCreated != 0 {
		t.Fatalf("second run created rows: %+v", summary)
	}

	after := []int64{
		count(t, db, &models.Category{}, ""),
		count(t, db, &models.Brand{}, ""),
		count(t, db, &models.Product{}, ""),
		count(t, db, &models.ProductVariant{}, ""),
		count(t, db, &models.ProductCategory{}, ""),
		count(t, db, &models.ProductBrand{}, ""),
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("row counts changed on idempotent re-run: before %v after %v", before, after)
		}
	}
}

func TestProductUniquenessConstraint(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shopA := createShop(t, db, vault)
	shopB := createShop(t, db, vault)

	first := &models.Product{ShopID: shopA.ID, WooID: 1, Name: "One"}
	if err := db.Create(first).Error; err != nil {
		t.Fatal(err)
	}

	dup := &models.Product{ShopID: shopA.ID, WooID: 1, Name: "One again"}
	err := db.Create(dup).Error
	if err == nil {
		t.Fatal("duplicate (shop, woo_id) insert must fail")
	}
	if !database.IsUniqueViolation(err) {
		t.Fatalf("want unique violation, got %v", err)
	}

	// The same remote id under another shop is fine.
	other := &models.Product{ShopID: shopB.ID, WooID: 1, Name: "One elsewhere"}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("cross-shop insert should succeed: %v", err)
	}
}

func TestVariantUniquenessConstraint(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shopA := createShop(t, db, vault)
	shopB := createShop(t, db, vault)

	parentA := &models.Product{ShopID: shopA.ID, WooID: 1, Name: "A", Type: "variable"}
	parentB := &models.Product{ShopID: shopB.ID, WooID: 1, Name: "B", Type: "variable"}
	if err := db.Create(parentA).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(parentB).Error; err != nil {
		t.Fatal(err)
	}

	if err := db.Create(&models.ProductVariant{ShopID: shopA.ID, ProductID: parentA.ID, WooID: 9}).Error; err != nil {
		t.Fatal(err)
	}
	err := db.Create(&models.ProductVariant{ShopID: shopA.ID, ProductID: parentA.ID, WooID: 9}).Error
	if !database.IsUniqueViolation(err) {
		t.Fatalf("want unique violation, got %v", err)
	}
	if err := db.Create(&models.ProductVariant{ShopID: shopB.ID, ProductID: parentB.ID, WooID: 9}).Error; err != nil {
		t.Fatalf("cross-shop variant insert should succeed: %v", err)
	}
}

func TestAssociationRemovalPropagates(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shop := createShop(t, db, vault)
	client := catalogFixture()

	r := newReconciler(db, vault, &fakeImages{}, client.factory())
	if _, err := r.Run(context.Background(), shop, nil); err != nil {
		t.Fatal(err)
	}

	// Remote drops the hoodie's child category and its brand.
	client.products[0][0].Categories = []woocommerce.TermRef{{ID: 10}}
	client.products[0][0].Brands = nil

	if _, err := r.Run(context.Background(), shop, nil); err != nil {
		t.Fatal(err)
	}

	var hoodie models.Product
	if err := db.First(&hoodie, "shop_id = ? AND woo_id = ?", shop.ID, 101).Error; err != nil {
		t.Fatal(err)
	}
	if n := count(t, db, &models.ProductCategory{}, "product_id = ?", hoodie.ID); n != 1 {
		t.Fatalf("category links = %d, want 1", n)
	}
	if n := count(t, db, &models.ProductBrand{}, "product_id = ?", hoodie.ID); n != 0 {
		t.Fatalf("brand links = %d, want 0", n)
	}
}

func TestPartialFailureDurability(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shop := createShop(t, db, vault)

	client := catalogFixture()
	// Split the products across two pages and blow up on page 2.
	client.products = [][]woocommerce.Product{
		{client.products[0][0]},
		{client.products[0][1]},
	}
	client.failProductsAtPage = 2

	r := newReconciler(db, vault, &fakeImages{}, client.factory())

	_, err := r.Run(context.Background(), shop, nil)
	var apiErr *woocommerce.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError from page 2, got %v", err)
	}

	// Page 1's product and the earlier stages survive the failure.
	if n := count(t, db, &models.Product{}, "shop_id = ?", shop.ID); n != 1 {
		t.Fatalf("products = %d, want 1 committed from page 1", n)
	}
	if n := count(t, db, &models.Category{}, "shop_id = ?", shop.ID); n != 2 {
		t.Fatalf("categories = %d, want 2", n)
	}
}

func TestFeaturedImagePreservedOnRelocationFailure(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shop := createShop(t, db, vault)
	client := catalogFixture()
	imgs := &fakeImages{}

	r := newReconciler(db, vault, imgs, client.factory())
	if _, err := r.Run(context.Background(), shop, nil); err != nil {
		t.Fatal(err)
	}

	var before models.Product
	if err := db.First(&before, "shop_id = ? AND woo_id = ?", shop.ID, 101).Error; err != nil {
		t.Fatal(err)
	}
	if before.FeaturedImage == nil {
		t.Fatal("first run should have stored a featured image")
	}

	// Second run: every relocation fails.
	imgs.fail = true
	if _, err := r.Run(context.Background(), shop, nil); err != nil {
		t.Fatal(err)
	}

	var after models.Product
	if err := db.First(&after, "shop_id = ? AND woo_id = ?", shop.ID, 101).Error; err != nil {
		t.Fatal(err)
	}
	if after.FeaturedImage == nil || *after.FeaturedImage != *before.FeaturedImage {
		t.Fatalf("featured image not preserved: before %v after %v", before.FeaturedImage, after.FeaturedImage)
	}
}

func TestProgressCallbackPanicIsSwallowed(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shop := createShop(t, db, vault)
	client := catalogFixture()

	r := newReconciler(db, vault, &fakeImages{}, client.factory())

	_, err := r.Run(context.Background(), shop, func(p sync.Progress) {
		panic("observer bug")
	})
	if err != nil {
		t.Fatalf("panicking progress callback aborted the sync: %v", err)
	}
}

func TestDecryptFailureAbortsRun(t *testing.T) {
	db := testDB(t)
	vault := testVault(t)
	shop := createShop(t, db, vault)
	shop.ConsumerKey = "not:a:valid-ciphertext"

	r := newReconciler(db, vault, &fakeImages{}, catalogFixture().factory())
	if _, err := r.Run(context.Background(), shop, nil); err == nil {
		t.Fatal("undecryptable credentials must abort the run")
	}
}
