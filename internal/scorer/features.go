package scorer

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"FlipScout/internal/model"
)

const numFeatures = 8

// profitEpsilon clamps the training target before the log transform so
// non-positive profits stay in the log domain.
const profitEpsilon = 1e-6

// featureVector maps a candidate to the 8 raw metrics the scorers
// train on.
func featureVector(c *model.Candidate) [numFeatures]float64 {
	return [numFeatures]float64{
		c.EffectiveSell,
		c.EffectiveBuy,
		float64(c.SellVolume),
		float64(c.BuyVolume),
		c.AvgPrice,
		c.Fluctuation,
		float64(c.BuyLimit),
		c.ROI,
	}
}

// featureMatrix builds the design matrix for a candidate set.
func featureMatrix(cands []model.Candidate) [][]float64 {
	rows := make([][]float64, len(cands))
	for i := range cands {
		v := featureVector(&cands[i])
		rows[i] = v[:]
	}
	return rows
}

// targets returns the log1p-transformed potential-profit targets.
func targets(cands []model.Candidate) []float64 {
	y := make([]float64, len(cands))
	for i := range cands {
		y[i] = math.Log1p(math.Max(cands[i].PotentialProfit, profitEpsilon))
	}
	return y
}

// fitStandardizer computes per-column mean and standard deviation over
// the training rows. Constant columns get a unit deviation so scaling
// stays finite.
func fitStandardizer(rows [][]float64) (mean, std []float64) {
	mean = make([]float64, numFeatures)
	std = make([]float64, numFeatures)
	col := make([]float64, len(rows))
	for j := 0; j < numFeatures; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		m, s := stat.MeanStdDev(col, nil)
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		mean[j], std[j] = m, s
	}
	return mean, std
}

func standardize(rows [][]float64, mean, std []float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		scaled := make([]float64, numFeatures)
		for j := range r {
			scaled[j] = (r[j] - mean[j]) / std[j]
		}
		out[i] = scaled
	}
	return out
}

// meanAbsError is the cross-validation objective.
func meanAbsError(pred, truth []float64) float64 {
	if len(pred) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range pred {
		sum += math.Abs(pred[i] - truth[i])
	}
	return sum / float64(len(pred))
}
