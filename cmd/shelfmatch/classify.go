package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfmatch/shelfmatch/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single receipt line item",
		Long: `Classify one scanned line item against the product catalog.

A confident fuzzy match resolves from the catalog directly; otherwise the
item key is looked up on the storefront and the result is appended to the
catalog for next time.

Examples:
  shelfmatch classify --key 06038318640 --desc "PCO CREMINI 227" --price 1.99`,
		RunE: runClassify,
	}

	cmd.Flags().StringP("key", "k", "", "store-assigned item key (SKU)")
	cmd.Flags().StringP("desc", "d", "", "scanned item description")
	cmd.Flags().StringP("price", "p", "", "scanned price")

	_ = viper.BindPFlag("classify.key", cmd.Flags().Lookup("key"))
	_ = viper.BindPFlag("classify.desc", cmd.Flags().Lookup("desc"))
	_ = viper.BindPFlag("classify.price", cmd.Flags().Lookup("price"))

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	item := model.RawItem{
		ItemKey:         viper.GetString("classify.key"),
		ItemDescription: viper.GetString("classify.desc"),
		Price:           viper.GetString("classify.price"),
	}

	store, err := openMigratedStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	eng, err := buildEngine(store)
	if err != nil {
		return err
	}

	classified, err := eng.Classify(ctx, item)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	out, err := json.MarshalIndent(classified, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))

	return nil
}
