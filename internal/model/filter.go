package model

// FilterConfig is the admission filter: every derived metric must meet
// its threshold (all comparisons are >=) for a snapshot to become a
// Candidate. Passed explicitly per ingestion call so that multiple
// filter profiles can run side by side.
type FilterConfig struct {
	MinProfitMargin float64 `yaml:"min_profit_margin"`
	MinFluctuation  float64 `yaml:"min_fluctuation"`
	MinROI          float64 `yaml:"min_roi"`
	MinSellVolume   int64   `yaml:"min_sell_volume"`
	MinBuyVolume    int64   `yaml:"min_buy_volume"`
}

// Admit reports whether a candidate's metrics clear every threshold.
// The five checks are independent; failing any one rejects.
func (f FilterConfig) Admit(c *Candidate) bool {
	if c.ProfitMargin < f.MinProfitMargin {
		return false
	}
	if c.Fluctuation < f.MinFluctuation {
		return false
	}
	if c.ROI < f.MinROI {
		return false
	}
	if c.SellVolume < f.MinSellVolume {
		return false
	}
	if c.BuyVolume < f.MinBuyVolume {
		return false
	}
	return true
}
