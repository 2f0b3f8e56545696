package engine

import (
	"context"

	"github.com/shelfmatch/shelfmatch/internal/fuzzy"
	"github.com/shelfmatch/shelfmatch/internal/model"
)

// Matcher defines the contract for scoring a raw item against a catalog
// snapshot. A nil result means no candidate survived.
type Matcher interface {
	Match(item model.RawItem, catalog []model.CatalogProduct) *fuzzy.Match
}

// Lookup defines the contract for the external product lookup collaborator.
type Lookup interface {
	Lookup(ctx context.Context, productKey string) (model.ProductDetails, error)
}
