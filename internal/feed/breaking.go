package feed

import (
	"math"
	"sort"

	"github.com/polydebate/frontend/internal/models"
)

// DefaultBreakingTopN caps the breaking view when no limit is configured
const DefaultBreakingTopN = 20

// RankBreaking orders markets by absolute 24h price change, largest first.
// Ties, and markets without a change value, keep server order; markets
// without a change rank after every market that has one. The result is
// capped to topN (DefaultBreakingTopN when topN <= 0).
func RankBreaking(markets []models.Market, topN int) []models.Market {
	if topN <= 0 {
		topN = DefaultBreakingTopN
	}
	ranked := make([]models.Market, len(markets))
	copy(ranked, markets)

	sort.SliceStable(ranked, func(i, j int) bool {
		return magnitude(ranked[i]) > magnitude(ranked[j])
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// RankBreakingItems applies RankBreaking ordering to accumulated feed items
func RankBreakingItems(items []Item, topN int) []Item {
	if topN <= 0 {
		topN = DefaultBreakingTopN
	}
	ranked := make([]Item, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		return magnitude(ranked[i].Market) > magnitude(ranked[j].Market)
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func magnitude(m models.Market) float64 {
	if m.PriceChange24h == nil {
		return -1
	}
	return math.Abs(*m.PriceChange24h)
}
