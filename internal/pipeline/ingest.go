package pipeline

import (
	"math"
	"time"

	"FlipScout/internal/logger"
	"FlipScout/internal/model"
	"FlipScout/internal/store"
)

var log = logger.WithComponent("pipeline")

// Ingestor turns raw market snapshots into admitted candidates and
// persists every admitted record.
type Ingestor struct {
	Store   store.Store
	Haircut float64 // fractional discount modelling market fees/slippage
}

// NewIngestor creates an Ingestor. haircut must be in [0, 1).
func NewIngestor(st store.Store, haircut float64) *Ingestor {
	return &Ingestor{Store: st, Haircut: haircut}
}

// Derive computes the full metric set for one snapshot. It returns
// false when the candidate cannot be constructed: effective buy or sell
// not strictly positive, or an empty average-price window.
func (ing *Ingestor) Derive(snap *model.ItemSnapshot) (model.Candidate, bool) {
	effSell := snap.AvgHighPrice * (1 - ing.Haircut)
	effBuy := snap.AvgLowPrice * (1 - ing.Haircut)
	if effSell <= 0 || effBuy <= 0 {
		return model.Candidate{}, false
	}

	avgPrice := snap.AvgHighPrice
	if avgPrice <= 0 {
		return model.Candidate{}, false
	}

	profit := effSell - effBuy
	return model.Candidate{
		ItemID:          snap.ItemID,
		Name:            snap.Name,
		EffectiveSell:   effSell,
		EffectiveBuy:    effBuy,
		AvgPrice:        avgPrice,
		PotentialProfit: profit,
		ProfitMargin:    profit / effBuy,
		Fluctuation:     math.Abs(effSell-avgPrice) / avgPrice,
		ROI:             profit / avgPrice,
		SellVolume:      snap.HighVolume,
		BuyVolume:       snap.LowVolume,
		BuyLimit:        snap.BuyLimit,
	}, true
}

// Ingest derives metrics for each snapshot, applies the admission
// filter, and persists every admitted candidate (item upsert plus one
// appended price observation). Output preserves input order; ranking
// happens downstream. A bad snapshot or a storage failure is logged
// and never aborts the rest of the batch.
func (ing *Ingestor) Ingest(snapshots []model.ItemSnapshot, filter model.FilterConfig) []model.Candidate {
	now := time.Now()
	candidates := make([]model.Candidate, 0, len(snapshots))

	for i := range snapshots {
		snap := &snapshots[i]
		if snap.ItemID <= 0 {
			log.WithField("index", i).Warn("dropping snapshot with missing item id")
			continue
		}

		cand, ok := ing.Derive(snap)
		if !ok {
			continue
		}
		if !filter.Admit(&cand) {
			continue
		}

		ing.persist(&cand, now)
		candidates = append(candidates, cand)
	}

	log.WithField("snapshots", len(snapshots)).
		WithField("admitted", len(candidates)).
		Info("ingestion cycle complete")
	return candidates
}

func (ing *Ingestor) persist(c *model.Candidate, at time.Time) {
	if err := ing.Store.UpsertItem(c); err != nil {
		log.WithError(err).WithField("item", c.ItemID).Error("upsert item failed")
		return
	}
	obs := model.PriceObservation{
		ItemID:    c.ItemID,
		Timestamp: at,
		Price:     c.EffectiveSell,
		Volume:    c.SellVolume,
	}
	if err := ing.Store.AppendPrice(c.ItemID, obs); err != nil {
		log.WithError(err).WithField("item", c.ItemID).Error("append price failed")
	}
}
