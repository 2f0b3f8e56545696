package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/model"
)

// JSONFileStorage implements CatalogStore over a flat JSON file holding an
// insertion-ordered array of products. This is the original catalog format
// and remains useful for small installs and for seeding; every Append
// rewrites the whole file.
type JSONFileStorage struct {
	path string
	mu   sync.Mutex
}

// NewJSONFileStorage creates a catalog store backed by the given file.
// The file does not need to exist yet; a missing file reads as an empty
// catalog.
func NewJSONFileStorage(path string) (*JSONFileStorage, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	return &JSONFileStorage{path: path}, nil
}

// LoadAll reads the entire catalog file.
func (s *JSONFileStorage) LoadAll(ctx context.Context) ([]model.CatalogProduct, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Append adds one record and rewrites the file.
func (s *JSONFileStorage) Append(ctx context.Context, product model.CatalogProduct) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProduct(&product); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		// An unreadable catalog must not be clobbered by a rewrite.
		return fmt.Errorf("%w: %v", common.ErrCatalogWriteFailed, err)
	}

	products = append(products, product)

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCatalogWriteFailed, err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCatalogWriteFailed, err)
	}

	return nil
}

func (s *JSONFileStorage) load() ([]model.CatalogProduct, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCatalogUnavailable, err)
	}

	var products []model.CatalogProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCatalogUnavailable, err)
	}

	return products, nil
}
