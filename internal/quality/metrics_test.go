package quality

import (
	"errors"
	"math"
	"testing"

	"paracluster/internal/core"
)

const epsilon = 1e-9

func TestPairedScoresWorkedExample(t *testing.T) {
	gold := core.Partition{{"a", "b"}, {"c", "d"}}
	predicted := core.Partition{{"a", "b", "c"}, {"d"}}

	s := PairedScores(gold, predicted)
	if math.Abs(s.Precision-1.0/3) > epsilon {
		t.Errorf("Expected precision 1/3, got %f", s.Precision)
	}
	if math.Abs(s.Recall-0.5) > epsilon {
		t.Errorf("Expected recall 1/2, got %f", s.Recall)
	}
	if math.Abs(s.FScore-0.4) > epsilon {
		t.Errorf("Expected F-score 0.4, got %f", s.FScore)
	}
}

func TestPairedFScoreIdentity(t *testing.T) {
	partitions := []core.Partition{
		{{"a", "b"}, {"c", "d"}},
		{{"a", "b", "c", "d"}},
		{{"a"}, {"b"}, {"c"}},
		{{"solo"}},
	}
	for _, p := range partitions {
		if f := PairedFScore(p, p); f != 1.0 {
			t.Errorf("Expected F(G,G)=1 for %v, got %f", p, f)
		}
	}
}

func TestPairedFScoreSymmetricUnderOrdering(t *testing.T) {
	gold := core.Partition{{"a", "b", "e"}, {"c", "d"}}
	predicted := core.Partition{{"a", "b"}, {"c", "d", "e"}}
	shuffled := core.Partition{{"e", "d", "c"}, {"b", "a"}}
	goldShuffled := core.Partition{{"d", "c"}, {"e", "a", "b"}}

	base := PairedFScore(gold, predicted)
	if got := PairedFScore(gold, shuffled); math.Abs(got-base) > epsilon {
		t.Errorf("Expected %f with reordered prediction, got %f", base, got)
	}
	if got := PairedFScore(goldShuffled, predicted); math.Abs(got-base) > epsilon {
		t.Errorf("Expected %f with reordered gold, got %f", base, got)
	}
}

func TestPairedScoresEmptyPairSets(t *testing.T) {
	gold := core.Partition{{"a", "b"}}
	singletons := core.Partition{{"a"}, {"b"}}

	s := PairedScores(gold, singletons)
	if s.Precision != 1 || s.Recall != 0 {
		t.Errorf("Expected precision 1 recall 0, got %+v", s)
	}
	if s.FScore != 0 {
		t.Errorf("Expected F-score 0, got %f", s.FScore)
	}

	s = PairedScores(singletons, gold)
	if s.Precision != 0 || s.Recall != 1 {
		t.Errorf("Expected precision 0 recall 1, got %+v", s)
	}
}

func TestPairsCanonical(t *testing.T) {
	pairs := Pairs(core.Partition{{"b", "a", "c"}, {"d"}})
	if len(pairs) != 3 {
		t.Fatalf("Expected 3 pairs, got %d", len(pairs))
	}
	for _, p := range []Pair{NewPair("a", "b"), NewPair("c", "a"), NewPair("b", "c")} {
		if _, ok := pairs[p]; !ok {
			t.Errorf("Expected pair %v", p)
		}
	}
	if NewPair("z", "a") != (Pair{A: "a", B: "z"}) {
		t.Error("Expected pair to be ordered")
	}
}

func TestWeightedAverage(t *testing.T) {
	got, err := WeightedAverage([]float64{0.8, 0.4}, []int{2, 4})
	if err != nil {
		t.Fatalf("WeightedAverage failed: %v", err)
	}
	if math.Abs(got-(0.8*2+0.4*4)/6) > epsilon {
		t.Errorf("Expected 0.5333, got %f", got)
	}
}

func TestWeightedAverageErrors(t *testing.T) {
	if _, err := WeightedAverage([]float64{0.5}, []int{1, 2}); !errors.Is(err, core.ErrInconsistentLengths) {
		t.Errorf("Expected ErrInconsistentLengths, got %v", err)
	}
	if _, err := WeightedAverage(nil, nil); !errors.Is(err, core.ErrNoOverlap) {
		t.Errorf("Expected ErrNoOverlap, got %v", err)
	}
	if _, err := WeightedAverage([]float64{0.5}, []int{0}); err == nil {
		t.Error("Expected error for zero total weight")
	}
}

func TestGrade(t *testing.T) {
	g := DefaultGradeThresholds()
	tests := map[float64]string{
		0.95: "A - EXCELLENT",
		0.6:  "B - GOOD",
		0.45: "C - FAIR",
		0.1:  "D - POOR",
	}
	for f, expected := range tests {
		if got := g.Grade(f); got != expected {
			t.Errorf("Grade(%f): expected %s, got %s", f, expected, got)
		}
	}
}
