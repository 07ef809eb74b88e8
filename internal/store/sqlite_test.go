package store

import (
	"path/filepath"
	"testing"
	"time"

	"FlipScout/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	return s
}

func TestSQLiteStore_UpsertLastWriteWins(t *testing.T) {
	s := newTestStore(t)

	first := model.Candidate{ItemID: 1001, Name: "Air rune", EffectiveSell: 5, PotentialProfit: 1}
	second := model.Candidate{ItemID: 1001, Name: "Air rune", EffectiveSell: 7, PotentialProfit: 2}

	if err := s.UpsertItem(&first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertItem(&second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	items, err := s.AllItems()
	if err != nil {
		t.Fatalf("AllItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("upsert must not duplicate rows, got %d", len(items))
	}
	if items[0].EffectiveSell != 7 || items[0].PotentialProfit != 2 {
		t.Errorf("second write should win, got %+v", items[0])
	}
}

func TestSQLiteStore_AllItemsSortedByID(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []int{30, 10, 20} {
		if err := s.UpsertItem(&model.Candidate{ItemID: id}); err != nil {
			t.Fatalf("upsert %d: %v", id, err)
		}
	}
	items, err := s.AllItems()
	if err != nil {
		t.Fatalf("AllItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []int{10, 20, 30} {
		if items[i].ItemID != want {
			t.Errorf("position %d: got %d, want %d", i, items[i].ItemID, want)
		}
	}
}

func TestSQLiteStore_PricesAppendOnly(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertItem(&model.Candidate{ItemID: 1001, Name: "Air rune"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		obs := model.PriceObservation{
			ItemID:    1001,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Price:     float64(100 + i),
			Volume:    int64(10 * i),
		}
		if err := s.AppendPrice(1001, obs); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	obs, err := s.Prices(1001)
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("observations must accumulate, got %d rows", len(obs))
	}
	for i := range obs {
		if obs[i].Price != float64(100+i) {
			t.Errorf("row %d: price %v, want %d", i, obs[i].Price, 100+i)
		}
		if !obs[i].Timestamp.Equal(base.Add(time.Duration(i) * time.Minute)) {
			t.Errorf("row %d: timestamp not preserved", i)
		}
	}

	other, err := s.Prices(9999)
	if err != nil {
		t.Fatalf("Prices(9999): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no rows for unknown item, got %d", len(other))
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.UpsertItem(&model.Candidate{ItemID: 7, Name: "Bond"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	items, err := reopened.AllItems()
	if err != nil {
		t.Fatalf("AllItems: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Bond" {
		t.Errorf("data lost after reopen: %+v", items)
	}
}
