package store

import "FlipScout/internal/model"

// Store is the durable record of items and their price history. It is
// also the fallback data source when the market feeds are unavailable:
// AllItems returns candidates strictly as of the last successful fetch.
type Store interface {
	// UpsertItem is idempotent; last write wins per item identifier.
	UpsertItem(c *model.Candidate) error
	// AppendPrice adds one immutable price observation; it never updates.
	AppendPrice(itemID int, obs model.PriceObservation) error
	AllItems() ([]model.Candidate, error)
	Prices(itemID int) ([]model.PriceObservation, error)
	Close() error
}
