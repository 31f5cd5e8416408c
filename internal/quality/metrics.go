package quality

import (
	"fmt"

	"paracluster/internal/core"
)

// Pair is an unordered pair of candidates sharing a cluster, stored with A <= B.
type Pair struct {
	A string
	B string
}

// NewPair returns the canonical pair of a and b.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Pairs returns every intra-cluster pair of p.
func Pairs(p core.Partition) map[Pair]struct{} {
	pairs := make(map[Pair]struct{})
	for _, cluster := range p {
		for i := 0; i < len(cluster); i++ {
			for j := i + 1; j < len(cluster); j++ {
				if cluster[i] == cluster[j] {
					continue
				}
				pairs[NewPair(cluster[i], cluster[j])] = struct{}{}
			}
		}
	}
	return pairs
}

// Score holds pairwise precision, recall and their harmonic mean.
type Score struct {
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	FScore    float64 `json:"f_score" yaml:"f_score"`
}

// PairedScores compares the pair sets of gold and predicted. An empty predicted pair set
// has precision 1, an empty gold pair set has recall 1.
func PairedScores(gold, predicted core.Partition) Score {
	goldPairs := Pairs(gold)
	predictedPairs := Pairs(predicted)

	overlap := 0
	for p := range predictedPairs {
		if _, ok := goldPairs[p]; ok {
			overlap++
		}
	}

	s := Score{Precision: 1, Recall: 1}
	if len(predictedPairs) > 0 {
		s.Precision = float64(overlap) / float64(len(predictedPairs))
	}
	if len(goldPairs) > 0 {
		s.Recall = float64(overlap) / float64(len(goldPairs))
	}
	if s.Precision+s.Recall > 0 {
		s.FScore = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// PairedFScore returns the paired F-score of predicted against gold, in [0, 1].
func PairedFScore(gold, predicted core.Partition) float64 {
	return PairedScores(gold, predicted).FScore
}

// WeightedAverage returns sum(scores[i]*weights[i]) / sum(weights).
func WeightedAverage(scores []float64, weights []int) (float64, error) {
	if len(scores) != len(weights) {
		return 0, fmt.Errorf("%w: %d scores, %d weights", core.ErrInconsistentLengths, len(scores), len(weights))
	}
	if len(scores) == 0 {
		return 0, core.ErrNoOverlap
	}

	total, weightSum := 0.0, 0
	for i, s := range scores {
		if weights[i] < 0 {
			return 0, fmt.Errorf("negative weight %d for score %d", weights[i], i)
		}
		total += s * float64(weights[i])
		weightSum += weights[i]
	}
	if weightSum == 0 {
		return 0, fmt.Errorf("weights sum to zero")
	}
	return total / float64(weightSum), nil
}

// GradeThresholds maps F-scores to letter grades
type GradeThresholds struct {
	A float64
	B float64
	C float64
}

// DefaultGradeThresholds returns the cut-offs used in printed reports
func DefaultGradeThresholds() GradeThresholds {
	return GradeThresholds{A: 0.8, B: 0.6, C: 0.4}
}

// Grade returns a letter grade with a short description for an F-score
func (g GradeThresholds) Grade(f float64) string {
	switch {
	case f >= g.A:
		return "A - EXCELLENT"
	case f >= g.B:
		return "B - GOOD"
	case f >= g.C:
		return "C - FAIR"
	default:
		return "D - POOR"
	}
}
