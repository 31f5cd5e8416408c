package clustering

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"paracluster/internal/core"
)

// KMeansConfig holds configuration for K-means clustering
type KMeansConfig struct {
	MaxIterations int     // Maximum Lloyd iterations per run
	Tolerance     float64 // Stop when no centroid moves further than this
	NInit         int     // Independent k-means++ restarts; the lowest inertia wins
}

// DefaultKMeansConfig returns sensible defaults for K-means clustering
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		MaxIterations: 300,
		Tolerance:     1e-4,
		NInit:         10,
	}
}

// KMeans implements K-means with k-means++ initialization over Euclidean distance.
type KMeans struct {
	config KMeansConfig
	rng    *rand.Rand
}

// NewKMeans creates a K-means fitter drawing randomness from rng.
func NewKMeans(config KMeansConfig, rng *rand.Rand) *KMeans {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultKMeansConfig().MaxIterations
	}
	if config.NInit <= 0 {
		config.NInit = 1
	}
	return &KMeans{config: config, rng: rng}
}

// Name returns the algorithm name.
func (km *KMeans) Name() string { return string(AlgorithmKMeans) }

// Fit clusters features into exactly k groups and returns labels in [0, k).
func (km *KMeans) Fit(features [][]float64, k int) ([]int, error) {
	if err := validateFeatures(features); err != nil {
		return nil, err
	}
	if k <= 0 || k > len(features) {
		return nil, fmt.Errorf("%w: k=%d (must be 1-%d)", core.ErrInvalidClusterCount, k, len(features))
	}

	var best []int
	bestInertia := math.Inf(1)
	for run := 0; run < km.config.NInit; run++ {
		assignments, inertia := km.runKMeans(features, k)
		if inertia < bestInertia {
			bestInertia = inertia
			best = assignments
		}
	}
	return best, nil
}

// runKMeans executes one K-means run and returns assignments and inertia.
func (km *KMeans) runKMeans(features [][]float64, k int) ([]int, float64) {
	dim := len(features[0])
	centroids := km.initializeCentroidsKMeansPP(features, k)
	assignments := make([]int, len(features))

	for iteration := 0; iteration < km.config.MaxIterations; iteration++ {
		for i, row := range features {
			assignments[i] = nearestCentroid(row, centroids)
		}

		updated := km.updateCentroids(features, assignments, centroids, k, dim)

		shift := 0.0
		for c := range centroids {
			shift = math.Max(shift, floats.Distance(centroids[c], updated[c], 2))
		}
		centroids = updated
		if shift <= km.config.Tolerance {
			break
		}
	}

	inertia := 0.0
	for i, row := range features {
		assignments[i] = nearestCentroid(row, centroids)
		inertia += squaredDistance(row, centroids[assignments[i]])
	}
	return assignments, inertia
}

// initializeCentroidsKMeansPP picks each next centroid with probability proportional to
// the squared distance to the nearest centroid chosen so far.
func (km *KMeans) initializeCentroidsKMeansPP(features [][]float64, k int) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := km.rng.Intn(len(features))
	centroids = append(centroids, append([]float64(nil), features[first]...))

	distances := make([]float64, len(features))
	for len(centroids) < k {
		total := 0.0
		for j, row := range features {
			minDist := math.Inf(1)
			for _, c := range centroids {
				if d := squaredDistance(row, c); d < minDist {
					minDist = d
				}
			}
			distances[j] = minDist
			total += minDist
		}

		if total == 0 {
			idx := km.rng.Intn(len(features))
			centroids = append(centroids, append([]float64(nil), features[idx]...))
			continue
		}

		target := km.rng.Float64() * total
		cumulative := 0.0
		selected := len(features) - 1
		for j, d := range distances {
			cumulative += d
			if cumulative >= target && d > 0 {
				selected = j
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), features[selected]...))
	}
	return centroids
}

// updateCentroids averages the members of each cluster. An empty cluster is reseeded at
// the point farthest from its current centroid.
func (km *KMeans) updateCentroids(
	features [][]float64,
	assignments []int,
	previous [][]float64,
	k int,
	dim int,
) [][]float64 {
	centroids := make([][]float64, k)
	counts := make([]int, k)
	for c := range centroids {
		centroids[c] = make([]float64, dim)
	}

	for i, row := range features {
		c := assignments[i]
		counts[c]++
		floats.Add(centroids[c], row)
	}

	for c := range centroids {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), centroids[c])
			continue
		}
		far, farDist := 0, -1.0
		for i, row := range features {
			if d := squaredDistance(row, previous[assignments[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		copy(centroids[c], features[far])
	}
	return centroids
}

// nearestCentroid finds the index of the nearest centroid by Euclidean distance
func nearestCentroid(row []float64, centroids [][]float64) int {
	nearest := 0
	minDist := math.Inf(1)
	for i, c := range centroids {
		if d := squaredDistance(row, c); d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest
}
