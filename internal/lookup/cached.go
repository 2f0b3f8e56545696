package lookup

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shelfmatch/shelfmatch/internal/model"
	"github.com/shelfmatch/shelfmatch/internal/service"
)

// CachedClient decorates a Client with SKU-keyed memoization. Reads go
// through an in-process map first, then the durable cache; successful
// live lookups are written through to durable storage immediately so a
// crash after a lookup does not lose the result.
//
// Concurrent lookups for the same uncached key are tolerated, not
// prevented: both may hit the live client and the last Put wins.
type CachedClient struct {
	inner   Client
	durable service.LookupCache
	entries map[string]model.ProductDetails
	mu      sync.RWMutex
}

// NewCachedClient wraps a client with the given durable cache.
func NewCachedClient(inner Client, durable service.LookupCache) *CachedClient {
	return &CachedClient{
		inner:   inner,
		durable: durable,
		entries: make(map[string]model.ProductDetails),
	}
}

// Lookup resolves the key cache-first; only a miss in both layers reaches
// the live client.
func (c *CachedClient) Lookup(ctx context.Context, productKey string) (model.ProductDetails, error) {
	c.mu.RLock()
	details, ok := c.entries[productKey]
	c.mu.RUnlock()
	if ok {
		slog.Debug("Lookup served from memory", "key", productKey)
		return details, nil
	}

	cached, err := c.durable.Get(ctx, productKey)
	if err != nil {
		slog.Warn("Durable lookup cache read failed", "key", productKey, "error", err)
	}
	if cached != nil {
		c.remember(productKey, *cached)
		slog.Info("Returning cached details", "key", productKey)
		return *cached, nil
	}

	details, err = c.inner.Lookup(ctx, productKey)
	if err != nil {
		return model.ProductDetails{}, err
	}

	if putErr := c.durable.Put(ctx, productKey, details); putErr != nil {
		slog.Warn("Durable lookup cache write failed", "key", productKey, "error", putErr)
	}
	c.remember(productKey, details)

	return details, nil
}

func (c *CachedClient) remember(key string, details model.ProductDetails) {
	c.mu.Lock()
	c.entries[key] = details
	c.mu.Unlock()
}

// Size returns the number of in-process entries.
func (c *CachedClient) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
