package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:       baseURL,
		UserAgent:     "flipscout-test",
		Timeout:       2 * time.Second,
		Retries:       1,
		RetryDelay:    time.Millisecond,
		RatePerSecond: 1000,
	})
}

func marketHandler(latest, fiveMin, mapping string) http.Handler {
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}
	}
	mux.Handle("/latest", serve(latest))
	mux.Handle("/5m", serve(fiveMin))
	mux.Handle("/mapping", serve(mapping))
	return mux
}

func TestFetchSnapshot_UnionJoin(t *testing.T) {
	srv := httptest.NewServer(marketHandler(
		`{"data":{"2":{"high":200,"low":180},"1":{"high":100,"low":90}}}`,
		`{"data":{"2":{"avgHighPrice":195,"highPriceVolume":50,"avgLowPrice":185,"lowPriceVolume":40},"3":{"avgHighPrice":10,"highPriceVolume":5,"avgLowPrice":8,"lowPriceVolume":4}}}`,
		`[{"id":2,"name":"Cannonball","limit":9000}]`,
	))
	defer srv.Close()

	snaps, err := newTestClient(srv.URL).FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("union join should yield 3 items, got %d", len(snaps))
	}
	// Sorted by id.
	for i, want := range []int{1, 2, 3} {
		if snaps[i].ItemID != want {
			t.Fatalf("position %d: item %d, want %d", i, snaps[i].ItemID, want)
		}
	}

	// Item 1: instantaneous feed only, averages default to 0.
	if snaps[0].HighPrice != 100 || snaps[0].AvgHighPrice != 0 || snaps[0].HighVolume != 0 {
		t.Errorf("item 1 fields wrong: %+v", snaps[0])
	}
	// Item 2: both feeds plus catalog.
	if snaps[1].HighPrice != 200 || snaps[1].AvgHighPrice != 195 || snaps[1].HighVolume != 50 {
		t.Errorf("item 2 fields wrong: %+v", snaps[1])
	}
	if snaps[1].Name != "Cannonball" || snaps[1].BuyLimit != 9000 {
		t.Errorf("item 2 catalog join wrong: %+v", snaps[1])
	}
	// Item 3: windowed feed only, instantaneous prices default to 0.
	if snaps[2].HighPrice != 0 || snaps[2].AvgLowPrice != 8 {
		t.Errorf("item 3 fields wrong: %+v", snaps[2])
	}
	// No catalog record: name and limit stay zero values.
	if snaps[2].Name != "" || snaps[2].BuyLimit != 0 {
		t.Errorf("item 3 should have no catalog data: %+v", snaps[2])
	}
}

func TestFetchSnapshot_NullAndBadKeys(t *testing.T) {
	srv := httptest.NewServer(marketHandler(
		`{"data":{"1":{"high":null,"low":90},"abc":{"high":5,"low":5},"0":{"high":5,"low":5}}}`,
		`{"data":{}}`,
		`[]`,
	))
	defer srv.Close()

	snaps, err := newTestClient(srv.URL).FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if len(snaps) != 1 || snaps[0].ItemID != 1 {
		t.Fatalf("unparseable identifiers must be dropped, got %+v", snaps)
	}
	if snaps[0].HighPrice != 0 || snaps[0].LowPrice != 90 {
		t.Errorf("null price should collapse to 0: %+v", snaps[0])
	}
}

func TestFetchSnapshot_OneFeedDownStillSucceeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/latest", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/5m", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"1":{"avgHighPrice":100,"highPriceVolume":5,"avgLowPrice":80,"lowPriceVolume":4}}}`))
	})
	mux.HandleFunc("/mapping", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	snaps, err := newTestClient(srv.URL).FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("one live feed must be enough: %v", err)
	}
	if len(snaps) != 1 || snaps[0].AvgHighPrice != 100 {
		t.Errorf("unexpected snapshots: %+v", snaps)
	}
	if snaps[0].HighPrice != 0 {
		t.Errorf("dead feed's fields must default to 0: %+v", snaps[0])
	}
}

func TestFetchSnapshot_BothFeedsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchSnapshot(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchSnapshot_RetriesThenGivesUp(t *testing.T) {
	var latestHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/latest", func(w http.ResponseWriter, _ *http.Request) {
		latestHits.Add(1)
		http.Error(w, "flaky", http.StatusInternalServerError)
	})
	mux.HandleFunc("/5m", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "flaky", http.StatusInternalServerError)
	})
	mux.HandleFunc("/mapping", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(Options{
		BaseURL:       srv.URL,
		Retries:       3,
		RetryDelay:    time.Millisecond,
		RatePerSecond: 1000,
	})
	_, err := client.FetchSnapshot(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := latestHits.Load(); got != 3 {
		t.Errorf("expected 3 attempts against the feed, got %d", got)
	}
}

func TestFetchSnapshot_CatalogCachedAcrossCalls(t *testing.T) {
	var mappingHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"1":{"high":10,"low":9}}}`))
	})
	mux.HandleFunc("/5m", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	})
	mux.HandleFunc("/mapping", func(w http.ResponseWriter, _ *http.Request) {
		mappingHits.Add(1)
		w.Write([]byte(`[{"id":1,"name":"Feather","limit":30000}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		snaps, err := client.FetchSnapshot(context.Background())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(snaps) != 1 || snaps[0].Name != "Feather" {
			t.Fatalf("call %d: catalog join missing: %+v", i, snaps)
		}
	}
	if got := mappingHits.Load(); got != 1 {
		t.Errorf("catalog should be fetched once, got %d fetches", got)
	}
}

func TestFetchSnapshot_MalformedPayloadIsNoData(t *testing.T) {
	srv := httptest.NewServer(marketHandler(
		`not json at all`,
		`{"data":{"1":{"avgHighPrice":100,"highPriceVolume":1,"avgLowPrice":90,"lowPriceVolume":1}}}`,
		`[]`,
	))
	defer srv.Close()

	snaps, err := newTestClient(srv.URL).FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("malformed feed must degrade, not fail: %v", err)
	}
	if len(snaps) != 1 || snaps[0].ItemID != 1 {
		t.Errorf("expected the healthy feed's item, got %+v", snaps)
	}
}
