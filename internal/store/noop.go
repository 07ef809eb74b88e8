package store

import "FlipScout/internal/model"

// NoopStore is used when no database path is configured. It persists
// nothing and offers no fallback data.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) UpsertItem(_ *model.Candidate) error               { return nil }
func (n *NoopStore) AppendPrice(_ int, _ model.PriceObservation) error { return nil }
func (n *NoopStore) AllItems() ([]model.Candidate, error)              { return nil, nil }
func (n *NoopStore) Prices(_ int) ([]model.PriceObservation, error)    { return nil, nil }
func (n *NoopStore) Close() error                                      { return nil }
