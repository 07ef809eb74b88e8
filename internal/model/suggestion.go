package model

// Suggestion is a ranked flip recommendation: a candidate plus the
// budget-constrained quantity math and, when a scorer ran, its
// predicted profit.
type Suggestion struct {
	Candidate
	// PredictedProfit is the scorer output; 0 when no scorer ran.
	PredictedProfit      float64 `json:"predicted_profit"`
	MaxQuantity          int64   `json:"max_quantity"`
	TotalProjectedProfit float64 `json:"total_projected_profit"`
}

// Progress reports pipeline invocation milestones to observers.
type Progress struct {
	RunID string `json:"run_id"`
	Pct   int    `json:"pct"` // 0, 50, 80, 100
	Stage string `json:"stage"`
	Err   string `json:"error,omitempty"`
}
