// Package engine implements the core classification engine that resolves
// raw receipt line items to canonical catalog products.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/model"
	"github.com/shelfmatch/shelfmatch/internal/service"
)

// ClassificationEngine orchestrates the classification of receipt items:
// fuzzy match against the catalog first, external lookup as fallback,
// catalog growth on new products.
//
// The engine is the error boundary. Catalog and lookup failures are
// absorbed into degraded results and log lines; only a contract violation
// (an empty RawItem) returns an error to the caller.
type ClassificationEngine struct {
	catalog service.CatalogStore
	matcher Matcher
	lookup  Lookup
	config  Config
}

// Config holds configuration options for the classification engine.
type Config struct {
	// MatchThreshold is the strict upper bound a combined score must stay
	// under for the catalog match to be trusted without a lookup.
	MatchThreshold float64

	// LookupTimeout bounds one external lookup. A timeout is treated the
	// same as any other lookup failure.
	LookupTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MatchThreshold: 0.4,
		LookupTimeout:  45 * time.Second,
	}
}

// New creates a new classification engine with the given dependencies.
func New(catalog service.CatalogStore, matcher Matcher, lookup Lookup) *ClassificationEngine {
	return NewWithConfig(catalog, matcher, lookup, DefaultConfig())
}

// NewWithConfig creates a new classification engine with custom configuration.
func NewWithConfig(catalog service.CatalogStore, matcher Matcher, lookup Lookup, config Config) *ClassificationEngine {
	if config.MatchThreshold <= 0 {
		config.MatchThreshold = DefaultConfig().MatchThreshold
	}
	if config.LookupTimeout <= 0 {
		config.LookupTimeout = DefaultConfig().LookupTimeout
	}
	return &ClassificationEngine{
		catalog: catalog,
		matcher: matcher,
		lookup:  lookup,
		config:  config,
	}
}

// Classify resolves one raw item against the live catalog.
func (e *ClassificationEngine) Classify(ctx context.Context, item model.RawItem) (model.ClassifiedItem, error) {
	if err := validateItem(item); err != nil {
		return model.ClassifiedItem{}, err
	}

	catalog, err := e.catalog.LoadAll(ctx)
	if err != nil {
		// Degrade to an empty catalog: classification proceeds via the
		// fallback branch only.
		slog.Warn("Catalog unavailable, proceeding with empty catalog", "error", err)
		catalog = nil
	}

	match := e.matcher.Match(item, catalog)
	if match != nil && match.Score < e.config.MatchThreshold {
		slog.Info("Fuzzy matched item",
			"item_desc", item.ItemDescription,
			"product_number", match.Product.ProductNumber,
			"score", match.Score)
		return classifiedFromCatalog(match.Product), nil
	}

	if match != nil {
		slog.Info("Best match above threshold, falling back to lookup",
			"item_desc", item.ItemDescription,
			"score", match.Score)
	}

	classified := e.classifyViaLookup(ctx, item)
	e.growCatalog(ctx, catalog, classified)

	return classified, nil
}

// Result carries the outcome of a detached classification.
type Result struct {
	Err  error
	Item model.ClassifiedItem
}

// ClassifyDetached runs Classify without blocking the caller. The upstream
// item-persistence path must not depend on classification completing; the
// outcome is observable only through the returned channel and the logs.
func (e *ClassificationEngine) ClassifyDetached(ctx context.Context, item model.RawItem) <-chan Result {
	done := make(chan Result, 1)

	go func() {
		defer close(done)

		classified, err := e.Classify(ctx, item)
		if err != nil {
			slog.Error("Detached classification failed",
				"item_key", item.ItemKey,
				"error", err)
		}
		done <- Result{Item: classified, Err: err}
	}()

	return done
}

// classifyViaLookup runs the fallback branch: external lookup by SKU with
// price normalization. Lookup failures produce a result holding only what
// the raw item itself carries.
func (e *ClassificationEngine) classifyViaLookup(ctx context.Context, item model.RawItem) model.ClassifiedItem {
	degraded := model.ClassifiedItem{Price: common.ParsePrice(item.Price)}

	if item.ItemKey == "" {
		slog.Warn("No item key, skipping external lookup", "item_desc", item.ItemDescription)
		return degraded
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.config.LookupTimeout)
	defer cancel()

	details, err := e.lookup.Lookup(lookupCtx, item.ItemKey)
	if err != nil {
		slog.Warn("Failed to retrieve product information",
			"item_key", item.ItemKey,
			"error", err)
		return degraded
	}

	slog.Info("Retrieved product information", "item_key", item.ItemKey)

	classified := model.ClassifiedItem{
		Price:    common.ParsePrice(item.Price),
		ImageURL: details.ImageURL,
	}
	if details.Brand != nil {
		classified.Brand = *details.Brand
	}
	if details.Name != nil {
		classified.Name = *details.Name
	}
	if details.Price != nil {
		classified.ListPrice = common.ParsePrice(*details.Price)
	}
	if details.WasPrice != nil {
		classified.WasPrice = common.ParsePrice(*details.WasPrice)
	}
	if details.ProductNumber != nil {
		classified.ProductNumber = *details.ProductNumber
	}

	return classified
}

// growCatalog appends the fallback result as a new catalog product unless
// its product number is absent or already present in the loaded snapshot.
// The check-then-append is not transactional; concurrent classification of
// the same new product can still race into duplicate rows.
func (e *ClassificationEngine) growCatalog(ctx context.Context, catalog []model.CatalogProduct, classified model.ClassifiedItem) {
	if classified.ProductNumber == "" {
		return
	}

	for _, product := range catalog {
		if product.ProductNumber == classified.ProductNumber {
			return
		}
	}

	// The catalog records the price as scanned at the shelf; the list
	// price stays on the classified item only.
	product := model.CatalogProduct{
		ProductNumber: classified.ProductNumber,
		Brand:         classified.Brand,
		Name:          classified.Name,
		Price:         classified.Price,
		WasPrice:      classified.WasPrice,
		ImageURL:      classified.ImageURL,
	}

	if err := e.catalog.Append(ctx, product); err != nil {
		// Catalog growth is best-effort; the classified item still goes
		// back to the caller.
		if errors.Is(err, common.ErrCatalogWriteFailed) {
			common.LogError(err, "Failed to append classified product", common.Fields{"product_number": product.ProductNumber})
			return
		}
		common.LogError(err, "Catalog append rejected", common.Fields{"product_number": product.ProductNumber})
		return
	}

	common.LogInfo("Added classified product to catalog", common.Fields{"product_number": product.ProductNumber})
}

// classifiedFromCatalog builds the confident-match result directly from
// the matched product. ListPrice stays unset on this branch.
func classifiedFromCatalog(product *model.CatalogProduct) model.ClassifiedItem {
	return model.ClassifiedItem{
		Brand:         product.Brand,
		Name:          product.Name,
		Price:         product.Price,
		WasPrice:      product.WasPrice,
		ProductNumber: product.ProductNumber,
		ImageURL:      product.ImageURL,
	}
}

func validateItem(item model.RawItem) error {
	if strings.TrimSpace(item.ItemKey) == "" &&
		strings.TrimSpace(item.ItemDescription) == "" &&
		strings.TrimSpace(item.Price) == "" {
		return fmt.Errorf("%w: empty item", common.ErrInvalidItem)
	}
	return nil
}
