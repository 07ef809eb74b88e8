package suggest

import (
	"fmt"
	"strings"

	"FlipScout/internal/model"
)

// Format renders the suggestion list as a human-readable text block.
func Format(suggestions []model.Suggestion) string {
	if len(suggestions) == 0 {
		return "No item suggestions found."
	}

	var b strings.Builder
	b.WriteString("Item Suggestions:\n")
	for _, s := range suggestions {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Item #%d", s.ItemID)
		}
		fmt.Fprintf(&b, "- %s\n", name)
		fmt.Fprintf(&b, "  Buy Price: %.0f\n", s.EffectiveBuy)
		fmt.Fprintf(&b, "  Sell Price: %.0f\n", s.EffectiveSell)
		fmt.Fprintf(&b, "  Potential Profit: %.1f per item\n", s.PotentialProfit)
		if s.PredictedProfit > 0 {
			fmt.Fprintf(&b, "  Predicted Profit: %.1f per item\n", s.PredictedProfit)
		}
		fmt.Fprintf(&b, "  Buy Limit: %d\n", s.BuyLimit)
		fmt.Fprintf(&b, "  Max Quantity: %d\n", s.MaxQuantity)
		fmt.Fprintf(&b, "  Total Projected Profit: %.0f\n", s.TotalProjectedProfit)
	}
	return b.String()
}
