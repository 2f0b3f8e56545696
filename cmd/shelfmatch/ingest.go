package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/model"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.csv>",
		Short: "Classify every line item in a scanned receipt file",
		Long: `Classify all line items from a receipt export.

The file is CSV with three columns per row: item key, item description,
price. A header row is detected and skipped. Each item runs through the
full classification flow, so unknown products grow the catalog.

Examples:
  shelfmatch ingest trip-2024-03-02.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	items, err := readReceiptFile(args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		slog.Info("No line items to classify")
		return nil
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

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Classifying line items..."),
	)

	var classified, failed int
	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, classifyErr := eng.Classify(ctx, item); classifyErr != nil {
			slog.Warn("Skipping invalid line item",
				"item_desc", item.ItemDescription,
				"error", classifyErr)
			failed++
		} else {
			classified++
		}

		_ = bar.Add(1)
	}

	slog.Info("Ingest complete",
		"total", len(items),
		"classified", classified,
		"failed", failed)

	return nil
}

// readReceiptFile parses the CSV export: itemKey, itemDescription, price.
func readReceiptFile(path string) ([]model.RawItem, error) {
	f, err := os.Open(path) // #nosec G304 -- user-supplied input file
	if err != nil {
		return nil, common.NewUserError("could not open the receipt file", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	var items []model.RawItem
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse receipt file: %w", err)
		}

		// Header row
		if record[0] == "item_key" {
			continue
		}

		items = append(items, model.RawItem{
			ItemKey:         record[0],
			ItemDescription: record[1],
			Price:           record[2],
		})
	}

	return items, nil
}
