package scorer

import (
	"errors"
	"math"
	"testing"

	"FlipScout/internal/model"
)

// syntheticCandidates builds two clearly separated populations: cheap
// items with tiny profits and expensive items with large profits.
func syntheticCandidates(n int) []model.Candidate {
	out := make([]model.Candidate, 0, n)
	for i := 0; i < n; i++ {
		jitter := float64(i%7) * 0.5
		if i%2 == 0 {
			out = append(out, model.Candidate{
				ItemID:          i + 1,
				EffectiveSell:   105 + jitter,
				EffectiveBuy:    100 + jitter,
				AvgPrice:        106 + jitter,
				PotentialProfit: 5 + jitter,
				ProfitMargin:    0.05,
				Fluctuation:     0.01,
				ROI:             0.05,
				SellVolume:      int64(100 + i),
				BuyVolume:       int64(90 + i),
				BuyLimit:        1000,
			})
		} else {
			out = append(out, model.Candidate{
				ItemID:          i + 1,
				EffectiveSell:   10500 + jitter,
				EffectiveBuy:    10000 + jitter,
				AvgPrice:        10600 + jitter,
				PotentialProfit: 500 + jitter,
				ProfitMargin:    0.05,
				Fluctuation:     0.01,
				ROI:             0.047,
				SellVolume:      int64(10 + i),
				BuyVolume:       int64(8 + i),
				BuyLimit:        100,
			})
		}
	}
	return out
}

func TestForest_InsufficientData(t *testing.T) {
	f := NewForestScorer()
	if err := f.Train(nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty sample: got %v", err)
	}
	if err := f.Train(syntheticCandidates(1)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("single row: got %v", err)
	}
}

func TestForest_UntrainedScoresZero(t *testing.T) {
	f := NewForestScorer()
	got := f.Score(syntheticCandidates(4))
	if len(got) != 4 {
		t.Fatalf("expected 4 scores, got %d", len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Errorf("untrained score %d should be 0, got %v", i, v)
		}
	}
}

func TestForest_TrainAndScore(t *testing.T) {
	data := syntheticCandidates(120)
	f := NewForestScorer()
	if err := f.Train(data); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(f.Roots) != f.Params.Trees {
		t.Fatalf("expected %d trees, got %d", f.Params.Trees, len(f.Roots))
	}

	scores := f.Score(data)
	if len(scores) != len(data) {
		t.Fatalf("score count mismatch: %d vs %d", len(scores), len(data))
	}

	var lowSum, highSum float64
	var lowN, highN int
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("score %d not finite: %v", i, s)
		}
		if data[i].PotentialProfit < 100 {
			lowSum += s
			lowN++
		} else {
			highSum += s
			highN++
		}
	}
	if highSum/float64(highN) <= lowSum/float64(lowN) {
		t.Errorf("high-profit population should score higher: low avg %v, high avg %v",
			lowSum/float64(lowN), highSum/float64(highN))
	}
}

func TestForest_TrainingIsDeterministic(t *testing.T) {
	data := syntheticCandidates(60)

	a := NewForestScorer()
	if err := a.Train(data); err != nil {
		t.Fatalf("Train a: %v", err)
	}
	b := NewForestScorer()
	if err := b.Train(data); err != nil {
		t.Fatalf("Train b: %v", err)
	}

	sa, sb := a.Score(data), b.Score(data)
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("score %d differs across identical trainings: %v vs %v", i, sa[i], sb[i])
		}
	}
}
