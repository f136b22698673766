package images

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wpm/internal/logger"
	"wpm/internal/storage"
)

const maxImageBytes = 25 << 20 // 25MB

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Relocator downloads remote product images and re-hosts them on central
// object storage. Every failure is soft: the caller gets ok=false and the
// sync keeps going.
type Relocator struct {
	store       storage.ObjectStore
	httpClient  *http.Client
	logger      *logger.Logger
	concurrency int
}

// ProductImages is the outcome of relocating one product's media.
// Featured is empty when the featured image could not be relocated.
type ProductImages struct {
	Featured string
	Gallery  []string
}

func NewRelocator(store storage.ObjectStore, log *logger.Logger, concurrency int) *Relocator {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Relocator{
		store: store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      log,
		concurrency: concurrency,
	}
}

// Relocate downloads sourceURL and uploads it under a deterministic key,
// returning the central URL. ok is false on any download or upload
// problem; the error is logged, never returned.
func (r *Relocator) Relocate(ctx context.Context, sourceURL, shopID string) (string, bool) {
	body, contentType, err := r.download(ctx, sourceURL)
	if err != nil {
		r.logger.Warn("Image relocation skipped for %s: %v", sourceURL, err)
		return "", false
	}

	key := ObjectKey(shopID, sourceURL)
	central, err := r.store.Put(ctx, key, body, contentType)
	if err != nil {
		r.logger.Error("Failed to upload relocated image %s: %v", key, err)
		return "", false
	}
	return central, true
}

// SyncProductImages relocates a product's featured and gallery images.
// Identical URLs within one call are fetched once; gallery order is
// preserved and failed entries are dropped.
func (r *Relocator) SyncProductImages(ctx context.Context, featured string, gallery []string, shopID string) ProductImages {
	distinct := make([]string, 0, len(gallery)+1)
	seen := make(map[string]struct{}, len(gallery)+1)
	for _, src := range append([]string{featured}, gallery...) {
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		distinct = append(distinct, src)
	}

	var mu sync.Mutex
	relocated := make(map[string]string, len(distinct))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, src := range distinct {
		src := src
		g.Go(func() error {
			if central, ok := r.Relocate(gctx, src, shopID); ok {
				mu.Lock()
				relocated[src] = central
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	result := ProductImages{}
	if central, ok := relocated[featured]; ok {
		result.Featured = central
	}
	for _, src := range gallery {
		if central, ok := relocated[src]; ok {
			result.Gallery = append(result.Gallery, central)
		}
	}
	return result
}

func (r *Relocator) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("disallowed content type %q", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(body) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return body, contentType, nil
}

// ObjectKey derives the storage key for a source URL. The key is a pure
// function of (shopID, sourceURL) so re-syncing a product overwrites the
// same object instead of accumulating copies.
func ObjectKey(shopID, sourceURL string) string {
	sum := sha1.Sum([]byte(sourceURL))
	digest := hex.EncodeToString(sum[:])[:8]

	name := "image"
	ext := ".jpg"
	if parsed, err := url.Parse(sourceURL); err == nil {
		base := path.Base(parsed.Path)
		if dot := strings.LastIndex(base, "."); dot > 0 {
			name = base[:dot]
			ext = strings.ToLower(base[dot:])
		} else if base != "" && base != "/" && base != "." {
			name = base
		}
	}

	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "image"
	}
	return fmt.Sprintf("shops/%s/products/%s-%s%s", shopID, slug, digest, ext)
}
