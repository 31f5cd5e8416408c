package clustering

import (
	"math"
)

// SilhouetteScore calculates the silhouette score for a single data point
// Returns a score between -1 and 1:
//
//	-1: Point likely in wrong cluster
//	 0: Point on the border between clusters, or alone in its cluster
//	+1: Point well matched to its cluster
func SilhouetteScore(
	pointIdx int,
	labels []int,
	distances [][]float64,
) float64 {
	n := len(labels)
	if n == 0 || pointIdx >= n {
		return 0.0
	}

	current := labels[pointIdx]
	a, sameCount := meanIntraClusterDistance(pointIdx, current, labels, distances)
	if sameCount == 0 {
		return 0.0
	}
	b, ok := minInterClusterDistance(pointIdx, current, labels, distances)
	if !ok {
		return 0.0
	}

	if a < b {
		return 1.0 - (a / b)
	} else if a > b {
		return (b / a) - 1.0
	}
	return 0.0
}

// meanIntraClusterDistance calculates mean distance to other points in same cluster
func meanIntraClusterDistance(
	pointIdx int,
	label int,
	labels []int,
	distances [][]float64,
) (float64, int) {
	sum := 0.0
	count := 0
	for i, l := range labels {
		if i == pointIdx || l != label {
			continue
		}
		sum += distances[pointIdx][i]
		count++
	}
	if count == 0 {
		return 0.0, 0
	}
	return sum / float64(count), count
}

// minInterClusterDistance finds minimum mean distance to points in other clusters
func minInterClusterDistance(
	pointIdx int,
	current int,
	labels []int,
	distances [][]float64,
) (float64, bool) {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i, l := range labels {
		if l == current {
			continue
		}
		sums[l] += distances[pointIdx][i]
		counts[l]++
	}
	if len(counts) == 0 {
		return 0, false
	}

	minDistance := math.MaxFloat64
	for l, c := range counts {
		if mean := sums[l] / float64(c); mean < minDistance {
			minDistance = mean
		}
	}
	return minDistance, true
}

// AverageSilhouetteScore calculates the mean silhouette score across all points
func AverageSilhouetteScore(
	labels []int,
	distances [][]float64,
) float64 {
	n := len(labels)
	if n == 0 {
		return 0.0
	}

	total := 0.0
	for i := 0; i < n; i++ {
		total += SilhouetteScore(i, labels, distances)
	}
	return total / float64(n)
}

// DistanceMatrix computes pairwise distances between all points
// Uses the provided distance function (e.g., cosine distance, euclidean)
func DistanceMatrix(
	features [][]float64,
	distanceFunc func(a, b []float64) float64,
) [][]float64 {
	n := len(features)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := distanceFunc(features[i], features[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}
	return matrix
}

// SilhouetteAnalysis summarizes how well separated a labelling is
type SilhouetteAnalysis struct {
	OverallScore float64 // Average across all points
	NumClusters  int     // Distinct labels, noise counted once
	NumPoints    int     // Total number of points
	Quality      string  // Interpretation: Excellent/Good/Fair/Poor
}

// PerformSilhouetteAnalysis scores labels over Euclidean distances of features.
func PerformSilhouetteAnalysis(features [][]float64, labels []int) *SilhouetteAnalysis {
	distances := DistanceMatrix(features, EuclideanDistance)
	overall := AverageSilhouetteScore(labels, distances)

	return &SilhouetteAnalysis{
		OverallScore: overall,
		NumClusters:  CountLabels(labels),
		NumPoints:    len(labels),
		Quality:      interpretSilhouetteScore(overall),
	}
}

// interpretSilhouetteScore provides human-readable interpretation
func interpretSilhouetteScore(score float64) string {
	if score >= 0.71 {
		return "Excellent - Strong cluster structure"
	} else if score >= 0.51 {
		return "Good - Reasonable cluster structure"
	} else if score >= 0.26 {
		return "Fair - Weak cluster structure"
	} else if score >= 0.0 {
		return "Poor - No substantial cluster structure"
	}
	return "Very Poor - Artificial/forced clustering"
}

// FindOptimalK runs fitter for every k in [minK, maxK] and returns the k with the highest
// average silhouette score together with its labels. minK is raised to 2 and maxK lowered
// to the number of points; when that range is empty it falls back to a single cluster.
func FindOptimalK(
	features [][]float64,
	minK int,
	maxK int,
	fitter Fitter,
) (int, []int, map[int]float64, error) {
	if minK < 2 {
		minK = 2
	}
	if maxK > len(features) {
		maxK = len(features)
	}
	if maxK < minK {
		labels, err := fitter.Fit(features, 1)
		return 1, labels, nil, err
	}

	distances := DistanceMatrix(features, EuclideanDistance)

	scores := make(map[int]float64)
	bestK := minK
	bestScore := -2.0 // Minimum possible silhouette score
	var bestLabels []int

	for k := minK; k <= maxK; k++ {
		labels, err := fitter.Fit(features, k)
		if err != nil {
			return 0, nil, nil, err
		}
		score := AverageSilhouetteScore(labels, distances)
		scores[k] = score
		if score > bestScore {
			bestScore = score
			bestK = k
			bestLabels = labels
		}
	}
	return bestK, bestLabels, scores, nil
}
