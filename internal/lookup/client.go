// Package lookup implements the external product lookup collaborator: the
// boundary that resolves a store SKU to authoritative product details when
// the catalog has no confident match. Providers scrape the storefront
// search page; results are per-field optional and memoized by SKU.
package lookup

import (
	"context"
	"time"

	"github.com/shelfmatch/shelfmatch/internal/model"
	"github.com/shelfmatch/shelfmatch/internal/service"
)

// Client defines the interface for lookup providers.
type Client interface {
	// Lookup retrieves product details for a store SKU. Individual fields
	// may be absent in the result; only a wholesale failure (transport,
	// timeout) returns an error.
	Lookup(ctx context.Context, productKey string) (model.ProductDetails, error)
}

// Config holds provider selection and shared settings.
type Config struct {
	// Provider selects the implementation: "http" or "browser".
	Provider string

	// BaseURL is the storefront root, e.g. "https://www.fortinos.ca".
	BaseURL string

	// BrowserURL optionally points the browser provider at a remote
	// Chrome instance instead of launching one.
	BrowserURL string

	// Timeout bounds a single lookup. Default 30s.
	Timeout time.Duration

	// Retry configures transient-failure retries for the HTTP provider.
	Retry service.RetryOptions
}

const defaultTimeout = 30 * time.Second

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}
