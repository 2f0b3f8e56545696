package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmatch/shelfmatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

func TestCatalogAppendAndLoadAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	products, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	first := model.CatalogProduct{
		ProductNumber: "06038318640",
		Brand:         "PC Organics",
		Name:          "Whole Cremini Mushrooms 227g",
		Price:         floatPtr(1.99),
		WasPrice:      floatPtr(2.49),
		ImageURL:      strPtr("http://example.com/cremini.jpg"),
	}
	second := model.CatalogProduct{
		ProductNumber: "06038318641",
		Name:          "White Mushrooms 227g",
	}

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	products, err = store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)

	// Insertion order is preserved.
	assert.Equal(t, "06038318640", products[0].ProductNumber)
	assert.Equal(t, "06038318641", products[1].ProductNumber)

	require.NotNil(t, products[0].Price)
	assert.InDelta(t, 1.99, *products[0].Price, 0.0001)
	require.NotNil(t, products[0].WasPrice)
	assert.InDelta(t, 2.49, *products[0].WasPrice, 0.0001)
	require.NotNil(t, products[0].ImageURL)
	assert.Equal(t, "http://example.com/cremini.jpg", *products[0].ImageURL)

	assert.Nil(t, products[1].Price)
	assert.Nil(t, products[1].WasPrice)
	assert.Nil(t, products[1].ImageURL)
}

func TestCatalogAppendDoesNotEnforceUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := model.CatalogProduct{ProductNumber: "111", Name: "Duplicate"}
	require.NoError(t, store.Append(ctx, product))
	require.NoError(t, store.Append(ctx, product))

	products, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2, "the existence check belongs to the engine, not the store")
}

func TestCatalogAppendRejectsMissingProductNumber(t *testing.T) {
	store := newTestStore(t)

	err := store.Append(context.Background(), model.CatalogProduct{Name: "No Number"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestLookupCacheGetMiss(t *testing.T) {
	store := newTestStore(t)

	details, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestLookupCachePutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := model.ProductDetails{
		Brand:         strPtr("Fortinos"),
		Name:          strPtr("PC Cremini"),
		Price:         strPtr("$1.99"),
		ProductNumber: strPtr("06038318640"),
	}
	require.NoError(t, store.Put(ctx, "06038318640", in))

	out, err := store.Get(ctx, "06038318640")
	require.NoError(t, err)
	require.NotNil(t, out)

	require.NotNil(t, out.Brand)
	assert.Equal(t, "Fortinos", *out.Brand)
	require.NotNil(t, out.Price)
	assert.Equal(t, "$1.99", *out.Price)
	assert.Nil(t, out.WasPrice)
	assert.Nil(t, out.ImageURL)
}

func TestLookupCachePutReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", model.ProductDetails{Name: strPtr("old")}))
	require.NoError(t, store.Put(ctx, "key", model.ProductDetails{Name: strPtr("new")}))

	out, err := store.Get(ctx, "key")
	require.NoError(t, err)
	require.NotNil(t, out)
	require.NotNil(t, out.Name)
	assert.Equal(t, "new", *out.Name)
}

func TestLookupCachePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelfmatch.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Put(ctx, "06038318640", model.ProductDetails{
		Name:  strPtr("PC Cremini"),
		Price: strPtr("$1.99"),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()
	require.NoError(t, reopened.Migrate(ctx))

	out, err := reopened.Get(ctx, "06038318640")
	require.NoError(t, err)
	require.NotNil(t, out)
	require.NotNil(t, out.Name)
	assert.Equal(t, "PC Cremini", *out.Name)
	require.NotNil(t, out.Price)
	assert.Equal(t, "$1.99", *out.Price)
}

func TestValidation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)
}
