package scorer

import (
	"errors"

	"FlipScout/internal/logger"
	"FlipScout/internal/model"
)

// ErrInsufficientData is reported when training is requested with fewer
// rows than the minimum viable sample count. Informational: callers
// surface it as a message, not a failure.
var ErrInsufficientData = errors.New("not enough historical data to train")

var log = logger.WithComponent("scorer")

// Scorer ranks candidates by predicted value. The two concrete
// implementations (tree-ensemble regression, tabular Q-learning) are
// mutually substitutable; the pipeline also works with no scorer at
// all, ranking directly by projected profit.
type Scorer interface {
	// Score returns one predicted value per candidate, index-aligned.
	Score(candidates []model.Candidate) []float64
	// Kind identifies the artifact flavour for persistence.
	Kind() string
}

// Trainer is the optional training capability of a Scorer.
type Trainer interface {
	Train(historical []model.Candidate) error
}
