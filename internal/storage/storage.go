package storage

import (
	"context"
)

// ObjectStore is the blob service images are re-hosted on. Put returns
// the publicly resolvable URL for the stored object.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
