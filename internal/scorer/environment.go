package scorer

import (
	"math/rand"

	"FlipScout/internal/model"
)

// replayEnv replays historical candidates as a two-action market
// environment: the agent walks a shuffled pass over the items, buying
// at the effective buy price and selling at the effective sell price.
// Rewards are ROI-denominated so expensive and cheap items weigh the
// same.
type replayEnv struct {
	items   []model.Candidate
	order   []int
	pos     int
	holding bool
	held    *model.Candidate
	cash    float64
}

func newReplayEnv(items []model.Candidate, rng *rand.Rand) *replayEnv {
	return &replayEnv{
		items: items,
		order: rng.Perm(len(items)),
	}
}

func (e *replayEnv) reset() int {
	e.pos = 0
	e.holding = false
	e.held = nil
	e.cash = 0
	return stateOf(e.current())
}

func (e *replayEnv) current() *model.Candidate {
	return &e.items[e.order[e.pos]]
}

// step applies one action and returns (nextState, reward, done). An
// episode ends after a single pass over the replayed items.
func (e *replayEnv) step(action int) (int, float64, bool) {
	cur := e.current()
	var reward float64

	switch action {
	case actionBuy:
		if e.holding {
			reward = -0.1 // already committed, wasted turn
		} else {
			e.holding = true
			e.held = cur
			e.cash -= cur.EffectiveBuy
		}
	case actionSell:
		if !e.holding {
			reward = -0.1 // nothing to sell
		} else {
			e.cash += e.held.EffectiveSell
			reward = e.held.ROI
			e.holding = false
			e.held = nil
		}
	}

	e.pos++
	done := e.pos >= len(e.order)
	next := 0
	if !done {
		next = stateOf(e.current())
	}
	return next, reward, done
}
