package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/shelfmatch/shelfmatch/internal/config"
	"github.com/shelfmatch/shelfmatch/internal/engine"
	"github.com/shelfmatch/shelfmatch/internal/fuzzy"
	"github.com/shelfmatch/shelfmatch/internal/lookup"
	"github.com/shelfmatch/shelfmatch/internal/service"
	"github.com/shelfmatch/shelfmatch/internal/storage"
)

// databasePath resolves the catalog database location from config.
func databasePath() (string, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "shelfmatch", "shelfmatch.db")
	}
	return config.ExpandPath(dbPath), nil
}

// buildEngine wires the classification engine: fuzzy matcher, cache-first
// storefront lookup, catalog store.
func buildEngine(store *storage.SQLiteStorage) (*engine.ClassificationEngine, error) {
	lookupCfg := lookup.Config{
		Provider:   viper.GetString("lookup.provider"),
		BaseURL:    viper.GetString("lookup.base_url"),
		BrowserURL: viper.GetString("lookup.browser_url"),
		Timeout:    viper.GetDuration("lookup.timeout"),
		Retry: service.RetryOptions{
			MaxAttempts:  viper.GetInt("lookup.retry.max_attempts"),
			InitialDelay: viper.GetDuration("lookup.retry.initial_delay"),
			MaxDelay:     viper.GetDuration("lookup.retry.max_delay"),
		},
	}
	if lookupCfg.BaseURL == "" {
		lookupCfg.BaseURL = "https://www.fortinos.ca"
	}

	client, err := lookup.NewClient(lookupCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup client: %w", err)
	}

	engineCfg := engine.DefaultConfig()
	if threshold := viper.GetFloat64("classification.match_threshold"); threshold > 0 {
		engineCfg.MatchThreshold = threshold
	}
	if timeout := viper.GetDuration("classification.lookup_timeout"); timeout > 0 {
		engineCfg.LookupTimeout = timeout
	}

	// The catalog can live in a flat JSON file (the legacy format) while
	// the lookup cache stays in SQLite.
	var catalog service.CatalogStore = store
	if jsonPath := viper.GetString("catalog.json_path"); jsonPath != "" {
		jsonStore, jsonErr := storage.NewJSONFileStorage(config.ExpandPath(jsonPath))
		if jsonErr != nil {
			return nil, fmt.Errorf("failed to open JSON catalog: %w", jsonErr)
		}
		catalog = jsonStore
	}

	cached := lookup.NewCachedClient(client, store)
	return engine.NewWithConfig(catalog, fuzzy.NewMatcher(), cached, engineCfg), nil
}
