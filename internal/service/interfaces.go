// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shelfmatch/shelfmatch/internal/model"
)

// CatalogStore defines the contract for the durable, append-only product
// catalog. Implementations do not enforce productNumber uniqueness on
// Append; the classification engine performs the existence check before
// growing the catalog.
type CatalogStore interface {
	// LoadAll reads the entire catalog in insertion order. A read failure
	// is reported as common.ErrCatalogUnavailable; callers must degrade
	// to an empty catalog rather than abort.
	LoadAll(ctx context.Context) ([]model.CatalogProduct, error)

	// Append adds one record. A persist failure is reported as
	// common.ErrCatalogWriteFailed; catalog growth is best-effort and
	// callers log and continue.
	Append(ctx context.Context, product model.CatalogProduct) error
}

// LookupCache memoizes external lookup results by product key (SKU) so a
// given key is looked up at most once per cache lifetime. Writes are
// persisted immediately.
type LookupCache interface {
	Get(ctx context.Context, key string) (*model.ProductDetails, error)
	Put(ctx context.Context, key string, details model.ProductDetails) error
}

// RetryOptions configures retry behavior for transient failures.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
