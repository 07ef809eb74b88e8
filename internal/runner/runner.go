package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"FlipScout/internal/logger"
	"FlipScout/internal/market"
	"FlipScout/internal/model"
	"FlipScout/internal/pipeline"
	"FlipScout/internal/scorer"
	"FlipScout/internal/store"
	"FlipScout/internal/suggest"
)

var (
	// ErrBusy rejects re-entrant invocation: one pipeline run (or
	// training run) in flight at a time.
	ErrBusy = errors.New("a pipeline invocation is already running")
	// ErrInvalidBudget rejects non-positive starting budgets before any
	// fetch or training work begins.
	ErrInvalidBudget = errors.New("starting budget must be a positive integer")
	// ErrNoData is reported when the market is unavailable and the store
	// holds nothing to fall back on.
	ErrNoData = errors.New("no market data and no stored history")
)

var log = logger.WithComponent("runner")

// Fetcher is the market-data dependency of the runner.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) ([]model.ItemSnapshot, error)
}

// Config carries the per-installation pipeline settings.
type Config struct {
	Haircut   float64
	Filter    model.FilterConfig
	Suggest   suggest.Options
	ModelFile string
	QLearn    scorer.QLearnParams
}

// Result is the outcome of one suggestion run.
type Result struct {
	RunID       string             `json:"run_id"`
	Suggestions []model.Suggestion `json:"suggestions"`
	// Stale is set when the market was unavailable and the store served
	// as-of-last-fetch data instead.
	Stale  bool   `json:"stale"`
	Scored bool   `json:"scored"`
	Report string `json:"report"`
}

// Runner executes pipeline invocations one at a time and publishes
// progress milestones to observers.
type Runner struct {
	fetcher  Fetcher
	store    store.Store
	ingestor *pipeline.Ingestor
	cfg      Config

	busy atomic.Bool

	mu        sync.Mutex
	observers map[chan model.Progress]struct{}
	last      model.Progress
}

// New creates a Runner.
func New(fetcher Fetcher, st store.Store, cfg Config) *Runner {
	return &Runner{
		fetcher:   fetcher,
		store:     st,
		ingestor:  pipeline.NewIngestor(st, cfg.Haircut),
		cfg:       cfg,
		observers: make(map[chan model.Progress]struct{}),
	}
}

// acquire takes the single execution slot.
func (r *Runner) acquire() error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (r *Runner) release() { r.busy.Store(false) }

// Run executes one full suggestion cycle: fetch, ingest, score, build.
// The market being unavailable falls back to the store and still
// produces a (possibly stale) list; every failure mode is a typed
// outcome, never a panic escaping to the caller.
func (r *Runner) Run(ctx context.Context, budget int64, useRL bool) (*Result, error) {
	if budget <= 0 {
		return nil, ErrInvalidBudget
	}
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	runID := uuid.NewString()
	r.publish(model.Progress{RunID: runID, Pct: 0, Stage: "fetching market data"})

	candidates, stale, err := r.collect(ctx)
	if err != nil {
		r.publish(model.Progress{RunID: runID, Pct: 100, Stage: "failed", Err: err.Error()})
		return nil, err
	}
	r.publish(model.Progress{RunID: runID, Pct: 50, Stage: "candidates ingested"})

	scores, scored := r.score(candidates, useRL)
	r.publish(model.Progress{RunID: runID, Pct: 80, Stage: "candidates ranked"})

	suggestions := suggest.Build(candidates, scores, budget, r.cfg.Suggest)
	r.publish(model.Progress{RunID: runID, Pct: 100, Stage: "done"})

	return &Result{
		RunID:       runID,
		Suggestions: suggestions,
		Stale:       stale,
		Scored:      scored,
		Report:      suggest.Format(suggestions),
	}, nil
}

// Refresh runs a fetch-and-ingest cycle without building suggestions;
// used by the scheduled background refresh to grow the price history.
func (r *Runner) Refresh(ctx context.Context) error {
	if err := r.acquire(); err != nil {
		return err
	}
	defer r.release()

	snapshots, err := r.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("refresh fetch: %w", err)
	}
	r.ingestor.Ingest(snapshots, r.cfg.Filter)
	return nil
}

// Train fits the selected scorer variant on current plus stored data
// and persists the model artifact. Too little data is informational
// (ErrInsufficientData), not a failure.
func (r *Runner) Train(ctx context.Context, useRL bool) (string, error) {
	if err := r.acquire(); err != nil {
		return "", err
	}
	defer r.release()

	runID := uuid.NewString()
	r.publish(model.Progress{RunID: runID, Pct: 0, Stage: "collecting training data"})

	candidates, _, err := r.collect(ctx)
	if err != nil {
		r.publish(model.Progress{RunID: runID, Pct: 100, Stage: "failed", Err: err.Error()})
		return "", err
	}
	r.publish(model.Progress{RunID: runID, Pct: 50, Stage: "training"})

	var trainee interface {
		scorer.Scorer
		scorer.Trainer
	}
	if useRL {
		trainee = scorer.NewQLearnScorer(r.cfg.QLearn)
	} else {
		trainee = scorer.NewForestScorer()
	}

	if err := trainee.Train(candidates); err != nil {
		if errors.Is(err, scorer.ErrInsufficientData) {
			r.publish(model.Progress{RunID: runID, Pct: 100, Stage: "skipped", Err: err.Error()})
			return "Not enough data to train a model.", nil
		}
		r.publish(model.Progress{RunID: runID, Pct: 100, Stage: "failed", Err: err.Error()})
		return "", fmt.Errorf("train %s scorer: %w", trainee.Kind(), err)
	}
	r.publish(model.Progress{RunID: runID, Pct: 80, Stage: "saving model"})

	if err := scorer.Save(r.cfg.ModelFile, trainee); err != nil {
		r.publish(model.Progress{RunID: runID, Pct: 100, Stage: "failed", Err: err.Error()})
		return "", err
	}
	r.publish(model.Progress{RunID: runID, Pct: 100, Stage: "done"})
	return fmt.Sprintf("Model training completed (%s, %d samples).", trainee.Kind(), len(candidates)), nil
}

// collect fetches live snapshots and ingests them; when the market is
// unavailable it substitutes the store's last-known candidates.
func (r *Runner) collect(ctx context.Context) (cands []model.Candidate, stale bool, err error) {
	snapshots, err := r.fetcher.FetchSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, market.ErrUnavailable) {
			return nil, false, fmt.Errorf("fetch snapshot: %w", err)
		}
		log.Warn("market unavailable, falling back to stored items")
		stored, serr := r.store.AllItems()
		if serr != nil {
			return nil, false, fmt.Errorf("fallback load: %w", serr)
		}
		if len(stored) == 0 {
			return nil, false, ErrNoData
		}
		return stored, true, nil
	}
	return r.ingestor.Ingest(snapshots, r.cfg.Filter), false, nil
}

// score loads the persisted model matching the requested variant. Any
// load problem, including a mid-write artifact, degrades to "no scorer".
func (r *Runner) score(candidates []model.Candidate, useRL bool) ([]float64, bool) {
	sc, err := scorer.Load(r.cfg.ModelFile)
	if err != nil {
		log.WithError(err).Warn("model artifact unreadable, ranking by raw profit")
		return nil, false
	}
	if sc == nil {
		return nil, false
	}
	want := "forest"
	if useRL {
		want = "qlearn"
	}
	if sc.Kind() != want {
		log.WithField("have", sc.Kind()).WithField("want", want).
			Info("stored model does not match requested variant, ranking by raw profit")
		return nil, false
	}
	return sc.Score(candidates), true
}
