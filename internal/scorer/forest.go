package scorer

import (
	"math"
	"math/rand"
	"sort"

	"FlipScout/internal/model"
)

// ForestParams are the hyperparameters explored by the grid search.
type ForestParams struct {
	Trees    int `json:"trees"`
	MaxDepth int `json:"max_depth"`
	MinLeaf  int `json:"min_leaf"`
}

// paramGrid is the small family of tree-ensemble configurations the
// cross-validated search selects among.
var paramGrid = []ForestParams{
	{Trees: 25, MaxDepth: 4, MinLeaf: 5},
	{Trees: 25, MaxDepth: 6, MinLeaf: 2},
	{Trees: 50, MaxDepth: 4, MinLeaf: 5},
	{Trees: 50, MaxDepth: 6, MinLeaf: 2},
	{Trees: 50, MaxDepth: 8, MinLeaf: 2},
	{Trees: 100, MaxDepth: 6, MinLeaf: 5},
}

const cvFolds = 3

// treeNode is one node of a regression tree. Leaves carry the mean
// target of their training rows.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Value     float64   `json:"v"`
	Leaf      bool      `json:"leaf"`
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// ForestScorer is a bootstrap ensemble of regression trees trained on
// standardized candidate features against log-transformed profit.
type ForestScorer struct {
	Params ForestParams `json:"params"`
	Mean   []float64    `json:"mean"`
	Std    []float64    `json:"std"`
	Roots  []*treeNode  `json:"roots"`
}

// NewForestScorer returns an untrained ensemble; Train must run before
// Score produces useful values.
func NewForestScorer() *ForestScorer { return &ForestScorer{} }

func (f *ForestScorer) Kind() string { return "forest" }

// Train runs the grid search with k-fold cross-validation, picks the
// parameter set minimizing mean absolute error, and refits the winning
// ensemble on the full sample.
func (f *ForestScorer) Train(historical []model.Candidate) error {
	if len(historical) < 2 {
		return ErrInsufficientData
	}

	rows := featureMatrix(historical)
	mean, std := fitStandardizer(rows)
	x := standardize(rows, mean, std)
	y := targets(historical)

	rng := rand.New(rand.NewSource(42))
	best := paramGrid[0]
	bestMAE := math.Inf(1)
	for _, p := range paramGrid {
		mae := crossValidate(x, y, p, rng)
		log.WithField("trees", p.Trees).
			WithField("depth", p.MaxDepth).
			WithField("min_leaf", p.MinLeaf).
			WithField("mae", mae).
			Debug("grid search step")
		if mae < bestMAE {
			bestMAE = mae
			best = p
		}
	}

	f.Params = best
	f.Mean = mean
	f.Std = std
	f.Roots = fitEnsemble(x, y, best, rng)
	log.WithField("trees", best.Trees).
		WithField("depth", best.MaxDepth).
		WithField("min_leaf", best.MinLeaf).
		WithField("cv_mae", bestMAE).
		WithField("samples", len(historical)).
		Info("regression scorer trained")
	return nil
}

// Score predicts per-candidate profit, inverting the log transform so
// values are comparable with raw potential profit.
func (f *ForestScorer) Score(candidates []model.Candidate) []float64 {
	out := make([]float64, len(candidates))
	if len(f.Roots) == 0 {
		return out
	}
	x := standardize(featureMatrix(candidates), f.Mean, f.Std)
	for i, row := range x {
		var sum float64
		for _, root := range f.Roots {
			sum += root.predict(row)
		}
		out[i] = math.Expm1(sum / float64(len(f.Roots)))
	}
	return out
}

func crossValidate(x [][]float64, y []float64, p ForestParams, rng *rand.Rand) float64 {
	n := len(x)
	folds := cvFolds
	if folds > n {
		folds = n
	}
	perm := rng.Perm(n)

	var total float64
	for k := 0; k < folds; k++ {
		var trainX, testX [][]float64
		var trainY, testY []float64
		for i, idx := range perm {
			if i%folds == k {
				testX = append(testX, x[idx])
				testY = append(testY, y[idx])
			} else {
				trainX = append(trainX, x[idx])
				trainY = append(trainY, y[idx])
			}
		}
		if len(trainX) == 0 || len(testX) == 0 {
			continue
		}
		roots := fitEnsemble(trainX, trainY, p, rng)
		pred := make([]float64, len(testX))
		for i, row := range testX {
			var sum float64
			for _, root := range roots {
				sum += root.predict(row)
			}
			pred[i] = sum / float64(len(roots))
		}
		total += meanAbsError(pred, testY)
	}
	return total / float64(folds)
}

// fitEnsemble grows Trees regression trees, each on a bootstrap sample.
func fitEnsemble(x [][]float64, y []float64, p ForestParams, rng *rand.Rand) []*treeNode {
	roots := make([]*treeNode, p.Trees)
	n := len(x)
	for t := 0; t < p.Trees; t++ {
		bx := make([][]float64, n)
		by := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			bx[i] = x[j]
			by[i] = y[j]
		}
		roots[t] = growTree(bx, by, 0, p)
	}
	return roots
}

func growTree(x [][]float64, y []float64, depth int, p ForestParams) *treeNode {
	if depth >= p.MaxDepth || len(y) < 2*p.MinLeaf || constant(y) {
		return &treeNode{Leaf: true, Value: meanOf(y)}
	}

	feature, threshold, ok := bestSplit(x, y, p.MinLeaf)
	if !ok {
		return &treeNode{Leaf: true, Value: meanOf(y)}
	}

	var lx, rx [][]float64
	var ly, ry []float64
	for i, row := range x {
		if row[feature] <= threshold {
			lx = append(lx, row)
			ly = append(ly, y[i])
		} else {
			rx = append(rx, row)
			ry = append(ry, y[i])
		}
	}
	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(lx, ly, depth+1, p),
		Right:     growTree(rx, ry, depth+1, p),
	}
}

// bestSplit scans a bounded set of quantile thresholds per feature and
// returns the split with the lowest weighted squared error.
func bestSplit(x [][]float64, y []float64, minLeaf int) (feature int, threshold float64, ok bool) {
	const maxCuts = 16
	bestScore := math.Inf(1)

	for j := 0; j < numFeatures; j++ {
		vals := make([]float64, len(x))
		for i, row := range x {
			vals[i] = row[j]
		}
		for _, cut := range quantileCuts(vals, maxCuts) {
			var lSum, lSq, rSum, rSq float64
			var lN, rN int
			for i, row := range x {
				if row[j] <= cut {
					lSum += y[i]
					lSq += y[i] * y[i]
					lN++
				} else {
					rSum += y[i]
					rSq += y[i] * y[i]
					rN++
				}
			}
			if lN < minLeaf || rN < minLeaf {
				continue
			}
			score := (lSq - lSum*lSum/float64(lN)) + (rSq - rSum*rSum/float64(rN))
			if score < bestScore {
				bestScore = score
				feature = j
				threshold = cut
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// quantileCuts returns up to n distinct thresholds spread across the
// value range.
func quantileCuts(vals []float64, n int) []float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	var cuts []float64
	var last float64
	for i := 1; i <= n; i++ {
		idx := i * (len(sorted) - 1) / (n + 1)
		v := sorted[idx]
		if len(cuts) == 0 || v != last {
			cuts = append(cuts, v)
			last = v
		}
	}
	return cuts
}

func meanOf(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}

func constant(y []float64) bool {
	for i := 1; i < len(y); i++ {
		if y[i] != y[0] {
			return false
		}
	}
	return true
}
