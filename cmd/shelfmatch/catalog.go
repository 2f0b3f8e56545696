package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/model"
	"github.com/shelfmatch/shelfmatch/internal/storage"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and seed the product catalog",
	}

	cmd.AddCommand(catalogListCmd())
	cmd.AddCommand(catalogSeedCmd())

	return cmd
}

func catalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the catalog as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openMigratedStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			products, err := store.LoadAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}

			out, err := json.MarshalIndent(products, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode catalog: %w", err)
			}
			fmt.Println(string(out))

			return nil
		},
	}
}

func catalogSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <products.json>",
		Short: "Union a JSON product dump into the catalog",
		Long: `Load a JSON array of products and append every record whose product
number is not already present. Currency-formatted price strings in the
dump are normalized to decimals.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openMigratedStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			return seedCatalog(ctx, store, args[0])
		},
	}
}

// seedProduct mirrors the dump format: prices may be currency text or, in
// dumps written after normalization, bare JSON numbers.
type seedProduct struct {
	ProductNumber string    `json:"product_number"`
	Brand         string    `json:"brand"`
	Name          string    `json:"name"`
	Price         flexPrice `json:"price"`
	WasPrice      flexPrice `json:"was_price"`
	ImageURL      *string   `json:"image_url"`
}

// flexPrice accepts a price encoded as either a JSON string or a JSON
// number and holds its textual form for normalization.
type flexPrice string

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = flexPrice(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = flexPrice(n)
	return nil
}

func seedCatalog(ctx context.Context, store *storage.SQLiteStorage, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied input file
	if err != nil {
		return common.NewUserError("could not read product dump", err)
	}

	var dump []seedProduct
	if err := json.Unmarshal(data, &dump); err != nil {
		return common.NewUserError("product dump is not valid JSON", err)
	}

	existing, err := store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.ProductNumber] = true
	}

	var added, skipped int
	for _, sp := range dump {
		if sp.ProductNumber == "" || known[sp.ProductNumber] {
			skipped++
			continue
		}

		product := model.CatalogProduct{
			ProductNumber: sp.ProductNumber,
			Brand:         sp.Brand,
			Name:          sp.Name,
			Price:         common.ParsePrice(string(sp.Price)),
			WasPrice:      common.ParsePrice(string(sp.WasPrice)),
			ImageURL:      sp.ImageURL,
		}

		if err := store.Append(ctx, product); err != nil {
			return fmt.Errorf("failed to append product %s: %w", sp.ProductNumber, err)
		}
		known[sp.ProductNumber] = true
		added++
	}

	slog.Info("Catalog seeded", "added", added, "skipped", skipped)

	return nil
}

func openMigratedStore(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError("could not open the catalog database", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStore(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}
