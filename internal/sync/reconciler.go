package sync

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wpm/internal/crypto"
	"wpm/internal/events"
	"wpm/internal/logger"
	"wpm/internal/models"
	"wpm/internal/services/images"
	"wpm/internal/services/woocommerce"
)

// CatalogClient is the slice of the WooCommerce client the reconciler
// drives. Page walks are sequential; each stops on the first short or
// empty page.
type CatalogClient interface {
	ForEachCategoryPage(ctx context.Context, perPage int, fn func(page int, items []woocommerce.Category) error) error
	ForEachBrandPage(ctx context.Context, perPage int, fn func(page int, items []woocommerce.Brand) error) error
	ForEachProductPage(ctx context.Context, perPage int, fn func(page int, items []woocommerce.Product) error) error
	ForEachVariationPage(ctx context.Context, productID int64, perPage int, fn func(page int, items []woocommerce.Variation) error) error
}

// ClientFactory builds a catalog client from a shop's base URL and its
// decrypted credentials.
type ClientFactory func(baseURL, consumerKey, consumerSecret string) CatalogClient

// ImageSyncer relocates a product's media onto central storage.
type ImageSyncer interface {
	SyncProductImages(ctx context.Context, featured string, gallery []string, shopID string) images.ProductImages
}

// Reconciler pulls a shop's remote catalog and merges it into local
// storage: categories, brands, products with their associations and
// media, then variants. Stages run strictly in that order; a failure
// stops the run but keeps everything already committed.
type Reconciler struct {
	db        *gorm.DB
	vault     *crypto.Vault
	images    ImageSyncer
	publisher *events.Publisher
	mapper    *woocommerce.Mapper
	logger    *logger.Logger
	newClient ClientFactory
	pageSize  int
}

func NewReconciler(db *gorm.DB, vault *crypto.Vault, imageSyncer ImageSyncer, publisher *events.Publisher, log *logger.Logger, newClient ClientFactory, pageSize int) *Reconciler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Reconciler{
		db:        db,
		vault:     vault,
		images:    imageSyncer,
		publisher: publisher,
		mapper:    woocommerce.NewMapper(),
		logger:    log,
		newClient: newClient,
		pageSize:  pageSize,
	}
}

type variableProduct struct {
	wooID   int64
	localID string
}

func (r *Reconciler) Run(ctx context.Context, shop *models.Shop, report ProgressFunc) (*Summary, error) {
	consumerKey, err := r.vault.Decrypt(shop.ConsumerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt consumer key: %w", err)
	}
	consumerSecret, err := r.vault.Decrypt(shop.ConsumerSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt consumer secret: %w", err)
	}

	client := r.newClient(shop.BaseURL, consumerKey, consumerSecret)
	summary := &Summary{}

	if err := r.syncCategories(ctx, client, shop, summary, report); err != nil {
		return nil, err
	}
	if err := r.syncBrands(ctx, client, shop, summary, report); err != nil {
		return nil, err
	}
	variables, err := r.syncProducts(ctx, client, shop, summary, report)
	if err != nil {
		return nil, err
	}
	if err := r.syncVariants(ctx, client, shop, variables, summary, report); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := r.db.Model(shop).Update("last_synced_at", now).Error; err != nil {
		r.logger.Error("Failed to stamp last_synced_at for shop %s: %v", shop.ID, err)
	}

	emit(report, Progress{
		Stage:   StageCompleted,
		Message: summaryMessage(summary),
	})
	return summary, nil
}

func (r *Reconciler) syncCategories(ctx context.Context, client CatalogClient, shop *models.Shop, summary *Summary, report ProgressFunc) error {
	// Children can appear before their parents in the remote feed, so
	// parent linkage happens in a second pass once every category is in.
	parentByChild := map[int64]int64{}
	total := 0

	err := client.ForEachCategoryPage(ctx, r.pageSize, func(page int, items []woocommerce.Category) error {
		for _, dto := range items {
			cat, err := r.mapper.MapCategory(dto, shop.ID)
			if err != nil {
				r.logger.Error("Skipping category: %v", err)
				continue
			}
			_, created, err := upsertCategory(r.db, cat)
			if err != nil {
				return err
			}
			if created {
				summary.CategoriesCreated++
			} else {
				summary.CategoriesUpdated++
			}
			if dto.Parent > 0 {
				parentByChild[dto.ID] = dto.Parent
			}
		}
		total += len(items)
		emit(report, Progress{
			Stage:   StageFetchingCategories,
			Current: total,
			Message: fmt.Sprintf("page %d: %d categories", page, len(items)),
		})
		return nil
	})
	if err != nil {
		return err
	}

	for childWoo, parentWoo := range parentByChild {
		childID, err := lookupID(r.db, &models.Category{}, shop.ID, childWoo)
		if err != nil {
			return err
		}
		parentID, err := lookupID(r.db, &models.Category{}, shop.ID, parentWoo)
		if err != nil {
			return err
		}
		if childID == "" || parentID == "" {
			continue
		}
		err = r.db.Model(&models.Category{}).Where("id = ?", childID).
			Update("parent_id", parentID).Error
		if err != nil {
			return fmt.Errorf("failed to link category parent: %w", err)
		}
	}
	return nil
}

func (r *Reconciler) syncBrands(ctx context.Context, client CatalogClient, shop *models.Shop, summary *Summary, report ProgressFunc) error {
	total := 0
	return client.ForEachBrandPage(ctx, r.pageSize, func(page int, items []woocommerce.Brand) error {
		for _, dto := range items {
			brand, err := r.mapper.MapBrand(dto, shop.ID)
			if err != nil {
				r.logger.Error("Skipping brand: %v", err)
				continue
			}
			_, created, err := upsertBrand(r.db, brand)
			if err != nil {
				return err
			}
			if created {
				summary.BrandsCreated++
			} else {
				summary.BrandsUpdated++
			}
		}
		total += len(items)
		emit(report, Progress{
			Stage:   StageFetchingBrands,
			Current: total,
			Message: fmt.Sprintf("page %d: %d brands", page, len(items)),
		})
		return nil
	})
}

func (r *Reconciler) syncProducts(ctx context.Context, client CatalogClient, shop *models.Shop, summary *Summary, report ProgressFunc) ([]variableProduct, error) {
	var variables []variableProduct
	total := 0

	err := client.ForEachProductPage(ctx, r.pageSize, func(page int, items []woocommerce.Product) error {
		for _, dto := range items {
			product, err := r.mapper.MapProduct(dto, shop.ID)
			if err != nil {
				r.logger.Error("Skipping product: %v", err)
				continue
			}

			prior, err := r.loadPriorImages(shop.ID, dto.ID)
			if err != nil {
				return err
			}
			r.applyRelocatedImages(ctx, product, dto, prior, shop.ID)

			productID, created, err := upsertProduct(r.db, product)
			if err != nil {
				return err
			}
			if created {
				summary.ProductsCreated++
			} else {
				summary.ProductsUpdated++
			}

			if err := r.relink(shop.ID, productID, dto); err != nil {
				return err
			}

			if product.Type == models.ProductTypeVariable {
				variables = append(variables, variableProduct{wooID: dto.ID, localID: productID})
			}

			eventType := events.TypeProductUpdated
			if created {
				eventType = events.TypeProductCreated
			}
			r.publisher.Publish(ctx, events.Event{
				Type:      eventType,
				ShopID:    shop.ID,
				ProductID: productID,
				WooID:     dto.ID,
			})
		}
		total += len(items)
		emit(report, Progress{
			Stage:   StageFetchingProducts,
			Current: total,
			Message: fmt.Sprintf("page %d: %d products", page, len(items)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return variables, nil
}

type priorImages struct {
	exists   bool
	featured *string
}

func (r *Reconciler) loadPriorImages(shopID string, wooID int64) (priorImages, error) {
	var rows []models.Product
	err := r.db.Select("id", "featured_image").
		Where("shop_id = ? AND woo_id = ?", shopID, wooID).
		Limit(1).Find(&rows).Error
	if err != nil {
		return priorImages{}, err
	}
	if len(rows) == 0 {
		return priorImages{}, nil
	}
	return priorImages{exists: true, featured: rows[0].FeaturedImage}, nil
}

// applyRelocatedImages swaps remote image URLs for re-hosted central
// ones. A failed featured relocation keeps the previously stored value;
// a product with no remote featured image gets null.
func (r *Reconciler) applyRelocatedImages(ctx context.Context, product *models.Product, dto woocommerce.Product, prior priorImages, shopID string) {
	remoteFeatured, remoteGallery := woocommerce.SplitImages(dto.Images)
	if remoteFeatured == "" && len(remoteGallery) == 0 {
		product.FeaturedImage = nil
		product.GalleryImages = nil
		return
	}

	relocated := r.images.SyncProductImages(ctx, remoteFeatured, remoteGallery, shopID)

	switch {
	case relocated.Featured != "":
		product.FeaturedImage = &relocated.Featured
	case remoteFeatured != "" && prior.exists:
		product.FeaturedImage = prior.featured
	default:
		product.FeaturedImage = nil
	}
	product.GalleryImages = relocated.Gallery
}

func (r *Reconciler) relink(shopID, productID string, dto woocommerce.Product) error {
	categoryIDs := make([]string, 0, len(dto.Categories))
	for _, ref := range dto.Categories {
		id, err := lookupID(r.db, &models.Category{}, shopID, ref.ID)
		if err != nil {
			return err
		}
		if id != "" {
			categoryIDs = append(categoryIDs, id)
		}
	}
	if err := relinkCategories(r.db, productID, categoryIDs); err != nil {
		return err
	}

	brandIDs := make([]string, 0, len(dto.Brands))
	for _, ref := range dto.Brands {
		id, err := lookupID(r.db, &models.Brand{}, shopID, ref.ID)
		if err != nil {
			return err
		}
		if id != "" {
			brandIDs = append(brandIDs, id)
		}
	}
	return relinkBrands(r.db, productID, brandIDs)
}

func (r *Reconciler) syncVariants(ctx context.Context, client CatalogClient, shop *models.Shop, variables []variableProduct, summary *Summary, report ProgressFunc) error {
	for i, parent := range variables {
		err := client.ForEachVariationPage(ctx, parent.wooID, r.pageSize, func(page int, items []woocommerce.Variation) error {
			for _, dto := range items {
				variant, err := r.mapper.MapVariation(dto, shop.ID, parent.localID)
				if err != nil {
					r.logger.Error("Skipping variation: %v", err)
					continue
				}
				_, created, err := upsertVariant(r.db, variant)
				if err != nil {
					return err
				}
				if created {
					summary.VariantsCreated++
				} else {
					summary.VariantsUpdated++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		emit(report, Progress{
			Stage:   StageSyncingVariants,
			Current: i + 1,
			Total:   len(variables),
			Message: fmt.Sprintf("variants for product %d", parent.wooID),
		})
	}
	return nil
}

// emit shields the run from observer bugs: a panicking callback is
// swallowed, never propagated.
func emit(report ProgressFunc, progress Progress) {
	if report == nil {
		return
	}
	defer func() {
		recover()
	}()
	progress.At = time.Now()
	report(progress)
}

func summaryMessage(s *Summary) string {
	return fmt.Sprintf(
		"categories %d/%d, brands %d/%d, products %d/%d, variants %d/%d (created/updated)",
		s.CategoriesCreated, s.CategoriesUpdated,
		s.BrandsCreated, s.BrandsUpdated,
		s.ProductsCreated, s.ProductsUpdated,
		s.VariantsCreated, s.VariantsUpdated,
	)
}
