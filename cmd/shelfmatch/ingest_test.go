package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/testutil"
)

func TestReadReceiptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trip.csv")
	content := "item_key,item_desc,price\n" +
		"06038318640,PCO CREMINI 227,1.99\n" +
		"06038318999,ZIGGY POT SALAD,4.49\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	items, err := readReceiptFile(path)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "06038318640", items[0].ItemKey)
	assert.Equal(t, "PCO CREMINI 227", items[0].ItemDescription)
	assert.Equal(t, "1.99", items[0].Price)
	assert.Equal(t, "ZIGGY POT SALAD", items[1].ItemDescription)
}

func TestReadReceiptFileMissingFile(t *testing.T) {
	_, err := readReceiptFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	var userErr *common.UserError
	assert.True(t, errors.As(err, &userErr), "CLI input failures carry a user-facing message")
}

func TestReadReceiptFileBadColumnCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trip.csv")
	require.NoError(t, os.WriteFile(path, []byte("just,two\n"), 0600))

	_, err := readReceiptFile(path)
	require.Error(t, err)
}

func TestSeedCatalog(t *testing.T) {
	store := testutil.SetupTestDB(t,
		testutil.Product("06038318640", "PC Organics", "Whole Cremini Mushrooms 227g", 1.99))

	path := filepath.Join(t.TempDir(), "products.json")
	dump := `[
		{"product_number":"06038318640","brand":"PC Organics","name":"Whole Cremini Mushrooms 227g","price":"$1.99"},
		{"product_number":"06038318999","brand":"Ziggy's","name":"Potato Salad 454g","price":"$4.49","was_price":"$4.99"},
		{"brand":"No Number","name":"Skipped"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(dump), 0600))

	ctx := context.Background()
	require.NoError(t, seedCatalog(ctx, store, path))

	products, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2, "existing and keyless entries are skipped")

	assert.Equal(t, "06038318999", products[1].ProductNumber)
	require.NotNil(t, products[1].Price)
	assert.InDelta(t, 4.49, *products[1].Price, 0.0001)
	require.NotNil(t, products[1].WasPrice)
	assert.InDelta(t, 4.99, *products[1].WasPrice, 0.0001)
}

func TestSeedCatalogNumericPrices(t *testing.T) {
	store := testutil.SetupTestDB(t)

	path := filepath.Join(t.TempDir(), "products.json")
	dump := `[
		{"product_number":"06038318999","brand":"Ziggy's","name":"Potato Salad 454g","price":4.49,"was_price":4.99},
		{"product_number":"06038318640","brand":"PC Organics","name":"Whole Cremini Mushrooms 227g","price":1.99,"was_price":null}
	]`
	require.NoError(t, os.WriteFile(path, []byte(dump), 0600))

	ctx := context.Background()
	require.NoError(t, seedCatalog(ctx, store, path))

	products, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)

	require.NotNil(t, products[0].Price)
	assert.InDelta(t, 4.49, *products[0].Price, 0.0001)
	require.NotNil(t, products[0].WasPrice)
	assert.InDelta(t, 4.99, *products[0].WasPrice, 0.0001)

	require.NotNil(t, products[1].Price)
	assert.InDelta(t, 1.99, *products[1].Price, 0.0001)
	assert.Nil(t, products[1].WasPrice)
}

func TestSeedCatalogMalformedDump(t *testing.T) {
	store := testutil.SetupTestDB(t)

	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"`), 0600))

	err := seedCatalog(context.Background(), store, path)
	require.Error(t, err)

	var userErr *common.UserError
	assert.True(t, errors.As(err, &userErr))
}
