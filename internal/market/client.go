package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"FlipScout/internal/logger"
	"FlipScout/internal/model"
)

// ErrUnavailable is reported when both price feeds return no data after
// the retry budget is exhausted. Callers fall back to the store.
var ErrUnavailable = errors.New("market data unavailable")

var log = logger.WithComponent("market")

// Options configures the market client.
type Options struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	Retries       int
	RetryDelay    time.Duration
	RatePerSecond float64
}

// Client fetches price/volume/catalog snapshots from the market-data
// service. It performs no persistence; failures resolve to "no data"
// per feed rather than escaping the client boundary.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter

	mu      sync.Mutex
	catalog map[int]catalogEntry // fetched once, cached for the client's lifetime
}

type catalogEntry struct {
	Name  string
	Limit int64
}

// NewClient creates a market client with bounded retry and a politeness
// rate limit on outbound calls.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Second
	}
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = 2
	}

	hc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetRetryCount(opts.Retries - 1).
		SetRetryWaitTime(opts.RetryDelay).
		SetRetryMaxWaitTime(opts.RetryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
	}
}

// latestEntry mirrors one record of the instantaneous-price feed.
// Pointer fields distinguish absent/null from zero; both collapse to 0.
type latestEntry struct {
	High *float64 `json:"high"`
	Low  *float64 `json:"low"`
}

// fiveMinEntry mirrors one record of the 5-minute windowed-average feed.
type fiveMinEntry struct {
	AvgHighPrice    *float64 `json:"avgHighPrice"`
	HighPriceVolume *int64   `json:"highPriceVolume"`
	AvgLowPrice     *float64 `json:"avgLowPrice"`
	LowPriceVolume  *int64   `json:"lowPriceVolume"`
}

// mappingEntry mirrors one record of the item catalog.
type mappingEntry struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Limit int64  `json:"limit"`
}

// FetchSnapshot pulls both price feeds plus the cached catalog and
// joins them by item identifier. The join is a union: an identifier
// present in only one feed is still included with the other feed's
// fields defaulted to 0. Returns ErrUnavailable only when both feeds
// yielded no data.
func (c *Client) FetchSnapshot(ctx context.Context) ([]model.ItemSnapshot, error) {
	latest := c.fetchLatest(ctx)
	fiveMin := c.fetchFiveMin(ctx)
	if latest == nil && fiveMin == nil {
		return nil, ErrUnavailable
	}

	catalog := c.fetchCatalog(ctx)

	ids := make(map[int]struct{}, len(latest)+len(fiveMin))
	for id := range latest {
		ids[id] = struct{}{}
	}
	for id := range fiveMin {
		ids[id] = struct{}{}
	}
	ordered := make([]int, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Ints(ordered)

	snapshots := make([]model.ItemSnapshot, 0, len(ordered))
	for _, id := range ordered {
		snap := model.ItemSnapshot{ItemID: id}
		if le, ok := latest[id]; ok {
			snap.HighPrice = deref(le.High)
			snap.LowPrice = deref(le.Low)
		}
		if fe, ok := fiveMin[id]; ok {
			snap.AvgHighPrice = deref(fe.AvgHighPrice)
			snap.AvgLowPrice = deref(fe.AvgLowPrice)
			snap.HighVolume = derefInt(fe.HighPriceVolume)
			snap.LowVolume = derefInt(fe.LowPriceVolume)
		}
		if ce, ok := catalog[id]; ok {
			snap.Name = ce.Name
			snap.BuyLimit = ce.Limit
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// fetchLatest returns nil when the feed is unreachable or malformed.
func (c *Client) fetchLatest(ctx context.Context) map[int]latestEntry {
	var body struct {
		Data map[string]latestEntry `json:"data"`
	}
	if err := c.getJSON(ctx, "/latest", &body); err != nil {
		log.WithError(err).Warn("latest feed resolved to no data")
		return nil
	}
	if body.Data == nil {
		log.Warn("latest feed returned empty payload")
		return nil
	}
	return keyByID(body.Data)
}

func (c *Client) fetchFiveMin(ctx context.Context) map[int]fiveMinEntry {
	var body struct {
		Data map[string]fiveMinEntry `json:"data"`
	}
	if err := c.getJSON(ctx, "/5m", &body); err != nil {
		log.WithError(err).Warn("5m feed resolved to no data")
		return nil
	}
	if body.Data == nil {
		log.Warn("5m feed returned empty payload")
		return nil
	}
	return keyByID(body.Data)
}

// fetchCatalog returns the cached mapping, fetching it on first use.
// A failed fetch leaves the cache empty so a later call retries.
func (c *Client) fetchCatalog(ctx context.Context) map[int]catalogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog != nil {
		return c.catalog
	}

	var entries []mappingEntry
	if err := c.getJSON(ctx, "/mapping", &entries); err != nil {
		log.WithError(err).Warn("item catalog unavailable, names and buy limits defaulted")
		return nil
	}
	catalog := make(map[int]catalogEntry, len(entries))
	for _, e := range entries {
		catalog[e.ID] = catalogEntry{Name: e.Name, Limit: e.Limit}
	}
	c.catalog = catalog
	log.WithField("items", len(catalog)).Info("item catalog loaded")
	return catalog
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("get %s: status %d", path, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// keyByID converts string identifier keys to ints, dropping records
// whose identifier does not parse.
func keyByID[T any](in map[string]T) map[int]T {
	out := make(map[int]T, len(in))
	for k, v := range in {
		var id int
		if _, err := fmt.Sscanf(k, "%d", &id); err != nil || id <= 0 {
			continue
		}
		out[id] = v
	}
	return out
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
