// Package testutil provides shared fixtures for shelfmatch tests.
package testutil

import (
	"context"
	"testing"

	"github.com/shelfmatch/shelfmatch/internal/model"
	"github.com/shelfmatch/shelfmatch/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite store, seeded with the
// given catalog products, and registers cleanup.
func SetupTestDB(t *testing.T, products ...model.CatalogProduct) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, p := range products {
		if err := store.Append(ctx, p); err != nil {
			t.Fatalf("failed to seed product %s: %v", p.ProductNumber, err)
		}
	}

	return store
}

// Float returns a pointer to v, for populating optional price fields.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s, for populating optional text fields.
func String(s string) *string {
	return &s
}

// Product builds a catalog product with the fields every test needs.
func Product(number, brand, name string, price float64) model.CatalogProduct {
	return model.CatalogProduct{
		ProductNumber: number,
		Brand:         brand,
		Name:          name,
		Price:         Float(price),
	}
}
