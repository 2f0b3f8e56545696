// Package fuzzy implements the weighted multi-key matcher that resolves a
// noisy receipt line item to its best catalog candidate.
//
// Three independent indexes are queried per item: product name, the
// brand-qualified "brand name" concatenation, and the price rendered as a
// comparable token. Scores follow the fuzzy-distance convention: 0 is a
// perfect match, 1 a complete miss. A candidate only survives when both a
// name-side and a price-side hit land on the same catalog entry; the two
// are combined 0.6/0.4 in the name side's favor.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/model"
)

const (
	nameWeight  = 0.6
	priceWeight = 0.4

	// maxIndexScore is the per-index cutoff: hits scoring worse are not
	// returned by the index at all.
	maxIndexScore = 0.6
)

// Match is the single best catalog candidate for a raw item.
type Match struct {
	Product *model.CatalogProduct
	Score   float64
}

// hit is one ranked index result, identified by catalog position.
type hit struct {
	score float64
	entry int
}

// candidate is a name-side hit joined with its price-side counterpart.
type candidate struct {
	combinedScore float64
	entry         int
}

// Matcher scores raw items against a catalog snapshot. It is stateless
// apart from the configured string metric and safe for concurrent use.
type Matcher struct {
	metric strutil.StringMetric
}

// NewMatcher creates a matcher using Jaro-Winkler distance, which favors
// shared prefixes; receipt abbreviations tend to keep the leading
// characters of the product name.
func NewMatcher() *Matcher {
	return &Matcher{metric: metrics.NewJaroWinkler()}
}

// Match returns the best-scoring catalog candidate for the item, or nil
// when no candidate survives the price-agreement requirement. An empty
// catalog always yields nil. Ties resolve to the first candidate in
// name-index hit order.
func (m *Matcher) Match(item model.RawItem, catalog []model.CatalogProduct) *Match {
	if len(catalog) == 0 {
		return nil
	}

	nameHits := m.search(item.ItemDescription, catalog, func(p model.CatalogProduct) string {
		return p.Name
	})
	brandNameHits := m.search(item.ItemDescription, catalog, func(p model.CatalogProduct) string {
		return strings.TrimSpace(p.Brand + " " + p.Name)
	})
	priceHits := m.search(item.Price, catalog, func(p model.CatalogProduct) string {
		return common.FormatPrice(p.Price)
	})

	candidates := make([]candidate, 0, len(nameHits))
	for _, nameHit := range nameHits {
		// Prefer the brand-qualified score for the same product when it
		// is strictly better.
		for _, brandHit := range brandNameHits {
			if catalog[nameHit.entry].ProductNumber == catalog[brandHit.entry].ProductNumber &&
				brandHit.score < nameHit.score {
				nameHit = hit{score: brandHit.score, entry: nameHit.entry}
			}
		}

		// Price agreement on the identical catalog entry is mandatory;
		// name-only hits are dropped no matter how strong.
		for _, priceHit := range priceHits {
			if priceHit.entry == nameHit.entry {
				candidates = append(candidates, candidate{
					entry:         nameHit.entry,
					combinedScore: nameHit.score*nameWeight + priceHit.score*priceWeight,
				})
			}
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].combinedScore < candidates[j].combinedScore
	})

	best := candidates[0]
	return &Match{
		Product: &catalog[best.entry],
		Score:   best.combinedScore,
	}
}

// search queries one index: every catalog entry's key is scored against
// the query and hits within the cutoff are returned ranked ascending.
// Ranking is stable so equal scores keep catalog order.
func (m *Matcher) search(query string, catalog []model.CatalogProduct, key func(model.CatalogProduct) string) []hit {
	if query == "" {
		return nil
	}

	var hits []hit
	for i, product := range catalog {
		target := key(product)
		if target == "" {
			continue
		}

		score := m.distance(query, target)
		if score <= maxIndexScore {
			hits = append(hits, hit{score: score, entry: i})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score < hits[j].score
	})

	return hits
}

// distance converts the metric's similarity into a [0,1] dissimilarity,
// case-insensitively.
func (m *Matcher) distance(query, target string) float64 {
	return 1 - strutil.Similarity(strings.ToLower(query), strings.ToLower(target), m.metric)
}
