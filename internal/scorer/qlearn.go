package scorer

import (
	"math/rand"

	"FlipScout/internal/model"
)

const (
	numStates  = 2 // low-ROI vs high-ROI bucket
	numActions = 2

	actionBuy  = 0
	actionSell = 1

	// roiBucketCut splits candidates into the two coarse states.
	roiBucketCut = 0.02
)

// QLearnParams configure the temporal-difference training loop.
type QLearnParams struct {
	Episodes     int     `json:"episodes"`
	Epsilon      float64 `json:"epsilon"`
	EpsilonFloor float64 `json:"epsilon_floor"`
	EpsilonDecay float64 `json:"epsilon_decay"`
	Alpha        float64 `json:"alpha"`
	Gamma        float64 `json:"gamma"`
}

// DefaultQLearnParams mirror the historically tuned training settings.
func DefaultQLearnParams() QLearnParams {
	return QLearnParams{
		Episodes:     500,
		Epsilon:      0.3,
		EpsilonFloor: 0.01,
		EpsilonDecay: 0.995,
		Alpha:        0.3,
		Gamma:        0.9,
	}
}

// QLearnScorer is a tabular Q-learning policy trained by replaying
// historical candidates as a simplified buy/sell environment.
type QLearnScorer struct {
	Params QLearnParams                   `json:"params"`
	Q      [numStates][numActions]float64 `json:"q"`
}

// NewQLearnScorer returns an untrained policy with the given params.
func NewQLearnScorer(params QLearnParams) *QLearnScorer {
	if params.Episodes <= 0 {
		params = DefaultQLearnParams()
	}
	return &QLearnScorer{Params: params}
}

func (q *QLearnScorer) Kind() string { return "qlearn" }

// Train runs epsilon-greedy temporal-difference updates over many
// simulated episodes against the historical data replayed as an
// environment. Epsilon decays toward its floor each episode.
func (q *QLearnScorer) Train(historical []model.Candidate) error {
	if len(historical) < 2 {
		return ErrInsufficientData
	}

	rng := rand.New(rand.NewSource(42))
	epsilon := q.Params.Epsilon

	for ep := 0; ep < q.Params.Episodes; ep++ {
		env := newReplayEnv(historical, rng)
		state := env.reset()
		for {
			action := q.chooseAction(state, epsilon, rng)
			next, reward, done := env.step(action)
			q.update(state, action, reward, next)
			state = next
			if done {
				break
			}
		}
		epsilon *= q.Params.EpsilonDecay
		if epsilon < q.Params.EpsilonFloor {
			epsilon = q.Params.EpsilonFloor
		}
	}

	log.WithField("episodes", q.Params.Episodes).
		WithField("samples", len(historical)).
		Info("q-learning scorer trained")
	return nil
}

func (q *QLearnScorer) chooseAction(state int, epsilon float64, rng *rand.Rand) int {
	if rng.Float64() < epsilon {
		return rng.Intn(numActions)
	}
	return q.greedy(state)
}

func (q *QLearnScorer) greedy(state int) int {
	best := 0
	for a := 1; a < numActions; a++ {
		if q.Q[state][a] > q.Q[state][best] {
			best = a
		}
	}
	return best
}

func (q *QLearnScorer) update(state, action int, reward float64, next int) {
	old := q.Q[state][action]
	nextMax := q.Q[next][q.greedy(next)]
	q.Q[state][action] = (1-q.Params.Alpha)*old +
		q.Params.Alpha*(reward+q.Params.Gamma*nextMax)
}

// Score values each candidate as its unit profit weighted by the
// learned buy-action value of the candidate's state bucket.
func (q *QLearnScorer) Score(candidates []model.Candidate) []float64 {
	out := make([]float64, len(candidates))
	for i := range candidates {
		state := stateOf(&candidates[i])
		out[i] = candidates[i].PotentialProfit * q.Q[state][actionBuy]
	}
	return out
}

func stateOf(c *model.Candidate) int {
	if c.ROI >= roiBucketCut {
		return 1
	}
	return 0
}
