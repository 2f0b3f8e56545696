package lookup

import (
	"fmt"
	"strings"

	"github.com/shelfmatch/shelfmatch/internal/common"
)

// NewClient creates a lookup client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: lookup base URL", common.ErrMissingConfig)
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "http":
		return newHTTPClient(cfg), nil
	case "browser":
		return newBrowserClient(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unsupported lookup provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}
