package suggest

import (
	"math"
	"sort"

	"FlipScout/internal/model"
)

// Options bound the recommendation list.
type Options struct {
	// TopK caps the number of suggestions returned.
	TopK int
	// MaxQuantityCap is the absolute per-item safety cap.
	MaxQuantityCap int64
	// MinTotalProfit is the acceptance floor on projected profit.
	MinTotalProfit float64
}

// Build combines candidates, optional scorer output and the budget
// constraints into a bounded ranked suggestion list, sorted descending
// by total projected profit with ties preserving input order.
//
// scores may be nil (no scorer ran); when present it must be
// index-aligned with candidates. With a scorer the per-unit value is
// the predicted profit and candidates the scorer values at zero or
// below are dropped; without one the per-unit value is the raw
// potential profit.
func Build(candidates []model.Candidate, scores []float64, budget int64, opts Options) []model.Suggestion {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.MaxQuantityCap <= 0 {
		opts.MaxQuantityCap = 1000
	}

	suggestions := make([]model.Suggestion, 0, len(candidates))
	for i, c := range candidates {
		qty := maxAffordable(&c, budget, opts.MaxQuantityCap)
		if qty <= 0 {
			continue
		}

		unit := c.PotentialProfit
		s := model.Suggestion{Candidate: c, MaxQuantity: qty}
		if scores != nil {
			if scores[i] <= 0 {
				continue
			}
			s.PredictedProfit = scores[i]
			unit = scores[i]
		}
		s.TotalProjectedProfit = unit * float64(qty)
		if s.TotalProjectedProfit < opts.MinTotalProfit {
			continue
		}
		suggestions = append(suggestions, s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].TotalProjectedProfit > suggestions[j].TotalProjectedProfit
	})
	if len(suggestions) > opts.TopK {
		suggestions = suggestions[:opts.TopK]
	}
	return suggestions
}

// maxAffordable is min(buy limit, floor(budget / buy price), safety
// cap). A zero buy limit means unknown/unlimited and does not bind.
func maxAffordable(c *model.Candidate, budget, cap int64) int64 {
	if c.EffectiveBuy <= 0 {
		return 0
	}
	qty := int64(math.Floor(float64(budget) / c.EffectiveBuy))
	if c.BuyLimit > 0 && c.BuyLimit < qty {
		qty = c.BuyLimit
	}
	if qty > cap {
		qty = cap
	}
	return qty
}
