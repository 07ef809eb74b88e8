package model

import "time"

// ItemSnapshot is one item's market state at a point in time, joined
// from the latest-price feed, the 5-minute average feed and the item
// catalog. Fields absent upstream are zero, never null.
type ItemSnapshot struct {
	ItemID       int     `json:"item_id"`
	Name         string  `json:"name"`
	HighPrice    float64 `json:"high"`
	LowPrice     float64 `json:"low"`
	AvgHighPrice float64 `json:"avg_high_price"`
	AvgLowPrice  float64 `json:"avg_low_price"`
	HighVolume   int64   `json:"high_volume"`
	LowVolume    int64   `json:"low_volume"`
	// BuyLimit is the per-window purchase cap; 0 means unknown/unlimited.
	BuyLimit int64 `json:"buy_limit"`
}

// Candidate is an ItemSnapshot that passed the admission filter, with
// all derived flip metrics computed. Only constructed when effective
// buy/sell and the average-price window are strictly positive.
type Candidate struct {
	ItemID          int     `json:"item_id"`
	Name            string  `json:"name"`
	EffectiveSell   float64 `json:"effective_sell"`
	EffectiveBuy    float64 `json:"effective_buy"`
	AvgPrice        float64 `json:"avg_price"`
	PotentialProfit float64 `json:"potential_profit"`
	ProfitMargin    float64 `json:"profit_margin"`
	Fluctuation     float64 `json:"fluctuation"`
	ROI             float64 `json:"roi"`
	SellVolume      int64   `json:"sell_volume"`
	BuyVolume       int64   `json:"buy_volume"`
	BuyLimit        int64   `json:"buy_limit"`
}

// PriceObservation is one immutable row of the per-item price history.
type PriceObservation struct {
	ID        int64     `json:"id"`
	ItemID    int       `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
}
