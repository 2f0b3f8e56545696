package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/fuzzy"
	"github.com/shelfmatch/shelfmatch/internal/model"
	"github.com/shelfmatch/shelfmatch/internal/testutil"
)

// stubMatcher returns a fixed match for every item.
type stubMatcher struct {
	match *fuzzy.Match
}

func (s *stubMatcher) Match(_ model.RawItem, _ []model.CatalogProduct) *fuzzy.Match {
	return s.match
}

// failingCatalog simulates an unreadable backing store.
type failingCatalog struct {
	appended []model.CatalogProduct
}

func (f *failingCatalog) LoadAll(_ context.Context) ([]model.CatalogProduct, error) {
	return nil, common.ErrCatalogUnavailable
}

func (f *failingCatalog) Append(_ context.Context, product model.CatalogProduct) error {
	f.appended = append(f.appended, product)
	return nil
}

func creminiDetails() model.ProductDetails {
	return model.ProductDetails{
		Brand:         testutil.String("Fortinos"),
		Name:          testutil.String("PC Cremini"),
		Price:         testutil.String("$1.99"),
		ProductNumber: testutil.String("06038318640"),
		ImageURL:      testutil.String("http://example.com/cremini.jpg"),
	}
}

func creminiItem() model.RawItem {
	return model.RawItem{
		ItemKey:         "06038318640",
		ItemDescription: "PCO CREMINI 227",
		Price:           "1.99",
	}
}

func TestClassifyConfidentMatchSkipsLookup(t *testing.T) {
	store := testutil.SetupTestDB(t,
		testutil.Product("06038318640", "PC Organics", "Whole Cremini Mushrooms 227g", 1.99))
	lookup := &MockLookup{}

	matched := testutil.Product("06038318640", "PC Organics", "Whole Cremini Mushrooms 227g", 1.99)
	eng := New(store, &stubMatcher{match: &fuzzy.Match{Product: &matched, Score: 0.15}}, lookup)

	classified, err := eng.Classify(context.Background(), creminiItem())
	require.NoError(t, err)

	assert.Equal(t, "PC Organics", classified.Brand)
	assert.Equal(t, "Whole Cremini Mushrooms 227g", classified.Name)
	assert.Equal(t, "06038318640", classified.ProductNumber)
	require.NotNil(t, classified.Price)
	assert.InDelta(t, 1.99, *classified.Price, 0.0001)
	assert.Nil(t, classified.ListPrice, "confident match must leave list price unset")
	assert.Empty(t, lookup.Calls(), "confident match must not touch the external lookup")
}

func TestClassifyThresholdIsStrict(t *testing.T) {
	// A combined score of exactly 0.4 must take the fallback branch.
	store := testutil.SetupTestDB(t,
		testutil.Product("06038318640", "PC Organics", "Whole Cremini Mushrooms 227g", 1.99))
	lookup := &MockLookup{Details: creminiDetails()}

	matched := testutil.Product("06038318640", "PC Organics", "Whole Cremini Mushrooms 227g", 1.99)
	eng := New(store, &stubMatcher{match: &fuzzy.Match{Product: &matched, Score: 0.4}}, lookup)

	classified, err := eng.Classify(context.Background(), creminiItem())
	require.NoError(t, err)

	assert.Equal(t, []string{"06038318640"}, lookup.Calls())
	require.NotNil(t, classified.ListPrice)
	assert.InDelta(t, 1.99, *classified.ListPrice, 0.0001)
}

func TestClassifyFallbackPopulatesAndGrowsCatalog(t *testing.T) {
	store := testutil.SetupTestDB(t)
	lookup := &MockLookup{Details: creminiDetails()}

	eng := New(store, fuzzy.NewMatcher(), lookup)

	classified, err := eng.Classify(context.Background(), creminiItem())
	require.NoError(t, err)

	assert.Equal(t, "Fortinos", classified.Brand)
	assert.Equal(t, "PC Cremini", classified.Name)
	assert.Equal(t, "06038318640", classified.ProductNumber)
	require.NotNil(t, classified.Price)
	assert.InDelta(t, 1.99, *classified.Price, 0.0001, "price comes from the scanned item")
	require.NotNil(t, classified.ListPrice)
	assert.InDelta(t, 1.99, *classified.ListPrice, 0.0001, "list price comes from the lookup")
	require.NotNil(t, classified.ImageURL)

	products, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "06038318640", products[0].ProductNumber)
}

func TestGrowCatalogPersistsScannedPrice(t *testing.T) {
	store := testutil.SetupTestDB(t)
	details := creminiDetails()
	details.Price = testutil.String("$2.49")
	lookup := &MockLookup{Details: details}

	eng := New(store, fuzzy.NewMatcher(), lookup)

	classified, err := eng.Classify(context.Background(), creminiItem())
	require.NoError(t, err)

	require.NotNil(t, classified.ListPrice)
	assert.InDelta(t, 2.49, *classified.ListPrice, 0.0001)

	products, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Price)
	assert.InDelta(t, 1.99, *products[0].Price, 0.0001, "the catalog keeps the shelf price, not the list price")
}

func TestClassifySameUnknownItemTwiceAppendsOnce(t *testing.T) {
	store := testutil.SetupTestDB(t)
	lookup := &MockLookup{Details: creminiDetails()}

	eng := New(store, fuzzy.NewMatcher(), lookup)
	ctx := context.Background()

	_, err := eng.Classify(ctx, creminiItem())
	require.NoError(t, err)
	_, err = eng.Classify(ctx, creminiItem())
	require.NoError(t, err)

	products, err := store.LoadAll(ctx)
	require.NoError(t, err)

	var count int
	for _, p := range products {
		if p.ProductNumber == "06038318640" {
			count++
		}
	}
	assert.Equal(t, 1, count, "sequential reclassification must not duplicate the catalog entry")
}

func TestClassifyEmptyCatalogAlwaysFallsBack(t *testing.T) {
	store := testutil.SetupTestDB(t)
	lookup := &MockLookup{Details: creminiDetails()}

	eng := New(store, fuzzy.NewMatcher(), lookup)

	_, err := eng.Classify(context.Background(), creminiItem())
	require.NoError(t, err)

	assert.Equal(t, []string{"06038318640"}, lookup.Calls())
}

func TestClassifyLookupFailureIsDegradedNotEscalated(t *testing.T) {
	store := testutil.SetupTestDB(t)
	lookup := &MockLookup{Err: errors.New("storefront unreachable")}

	eng := New(store, fuzzy.NewMatcher(), lookup)

	classified, err := eng.Classify(context.Background(), creminiItem())
	require.NoError(t, err, "lookup failure must not surface to the caller")

	assert.Empty(t, classified.Brand)
	assert.Empty(t, classified.ProductNumber)
	require.NotNil(t, classified.Price, "the scanned price is all the item itself carries")
	assert.InDelta(t, 1.99, *classified.Price, 0.0001)

	products, loadErr := store.LoadAll(context.Background())
	require.NoError(t, loadErr)
	assert.Empty(t, products, "no product number means no catalog append")
}

func TestClassifyAbsentProductNumberNotAppended(t *testing.T) {
	store := testutil.SetupTestDB(t)
	lookup := &MockLookup{Details: model.ProductDetails{
		Brand: testutil.String("Fortinos"),
		Name:  testutil.String("PC Cremini"),
		Price: testutil.String("$1.99"),
		// ProductNumber deliberately absent
	}}

	eng := New(store, fuzzy.NewMatcher(), lookup)

	classified, err := eng.Classify(context.Background(), creminiItem())
	require.NoError(t, err)
	assert.Empty(t, classified.ProductNumber)

	products, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestClassifyCatalogUnavailableDegradesToFallback(t *testing.T) {
	catalog := &failingCatalog{}
	lookup := &MockLookup{Details: creminiDetails()}

	eng := New(catalog, fuzzy.NewMatcher(), lookup)

	classified, err := eng.Classify(context.Background(), creminiItem())
	require.NoError(t, err, "catalog unavailability must not abort classification")

	assert.Equal(t, []string{"06038318640"}, lookup.Calls())
	assert.Equal(t, "06038318640", classified.ProductNumber)
	require.Len(t, catalog.appended, 1, "growth still proceeds against the empty snapshot")
}

func TestClassifyEmptyItemFailsFast(t *testing.T) {
	store := testutil.SetupTestDB(t)
	eng := New(store, fuzzy.NewMatcher(), &MockLookup{})

	_, err := eng.Classify(context.Background(), model.RawItem{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidItem)
}

func TestClassifyNoItemKeySkipsLookup(t *testing.T) {
	store := testutil.SetupTestDB(t)
	lookup := &MockLookup{Details: creminiDetails()}

	eng := New(store, fuzzy.NewMatcher(), lookup)

	classified, err := eng.Classify(context.Background(), model.RawItem{
		ItemDescription: "PCO CREMINI 227",
		Price:           "1.99",
	})
	require.NoError(t, err)

	assert.Empty(t, lookup.Calls())
	require.NotNil(t, classified.Price)
	assert.InDelta(t, 1.99, *classified.Price, 0.0001)
}

func TestClassifyDetached(t *testing.T) {
	store := testutil.SetupTestDB(t)
	lookup := &MockLookup{Details: creminiDetails()}

	eng := New(store, fuzzy.NewMatcher(), lookup)

	done := eng.ClassifyDetached(context.Background(), creminiItem())

	select {
	case result := <-done:
		require.NoError(t, result.Err)
		assert.Equal(t, "06038318640", result.Item.ProductNumber)
	case <-time.After(5 * time.Second):
		t.Fatal("detached classification did not complete")
	}

	products, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
}
