package clustering

import (
	"math"
	"sort"
)

// MeanShiftConfig holds configuration for mean-shift clustering
type MeanShiftConfig struct {
	Bandwidth     float64 // Kernel radius; 0 estimates it from the data
	Quantile      float64 // Neighbor quantile used for the bandwidth estimate
	MaxIterations int     // Iterations per seed
}

// DefaultMeanShiftConfig returns sensible defaults for mean-shift clustering
func DefaultMeanShiftConfig() MeanShiftConfig {
	return MeanShiftConfig{
		Quantile:      0.3,
		MaxIterations: 300,
	}
}

// MeanShift is mode-seeking clustering with a flat kernel. It ignores the requested k.
type MeanShift struct {
	config MeanShiftConfig
}

// NewMeanShift creates a mean-shift fitter.
func NewMeanShift(config MeanShiftConfig) *MeanShift {
	if config.Quantile <= 0 || config.Quantile > 1 {
		config.Quantile = DefaultMeanShiftConfig().Quantile
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMeanShiftConfig().MaxIterations
	}
	return &MeanShift{config: config}
}

// Name returns the algorithm name.
func (m *MeanShift) Name() string { return string(AlgorithmMeanShift) }

type mode struct {
	center    []float64
	intensity int
}

// Fit shifts a seed from every point to its local density mode, merges modes closer than
// the bandwidth (strongest first) and labels every point with its nearest mode.
func (m *MeanShift) Fit(features [][]float64, _ int) ([]int, error) {
	if err := validateFeatures(features); err != nil {
		return nil, err
	}

	bandwidth := m.config.Bandwidth
	if bandwidth <= 0 {
		bandwidth = EstimateBandwidth(features, m.config.Quantile)
	}
	if bandwidth <= 0 {
		// Degenerate estimate (coincident points or too few neighbors): one cluster.
		return make([]int, len(features)), nil
	}

	modes := make([]mode, 0, len(features))
	for _, seed := range features {
		if md, ok := m.climb(features, seed, bandwidth); ok {
			modes = append(modes, md)
		}
	}

	sort.SliceStable(modes, func(i, j int) bool {
		return modes[i].intensity > modes[j].intensity
	})

	var centers [][]float64
	for _, md := range modes {
		unique := true
		for _, c := range centers {
			if EuclideanDistance(md.center, c) < bandwidth {
				unique = false
				break
			}
		}
		if unique {
			centers = append(centers, md.center)
		}
	}

	labels := make([]int, len(features))
	for i, row := range features {
		labels[i] = nearestCentroid(row, centers)
	}
	return labels, nil
}

// climb moves seed to the mean of its bandwidth neighborhood until it settles.
func (m *MeanShift) climb(features [][]float64, seed []float64, bandwidth float64) (mode, bool) {
	center := append([]float64(nil), seed...)
	stop := 1e-3 * bandwidth
	bw2 := bandwidth * bandwidth

	var members int
	for iter := 0; iter < m.config.MaxIterations; iter++ {
		next := make([]float64, len(center))
		members = 0
		for _, row := range features {
			if squaredDistance(row, center) <= bw2 {
				for j, v := range row {
					next[j] += v
				}
				members++
			}
		}
		if members == 0 {
			return mode{}, false
		}
		for j := range next {
			next[j] /= float64(members)
		}

		shift := EuclideanDistance(next, center)
		center = next
		if shift <= stop {
			break
		}
	}
	return mode{center: center, intensity: members}, true
}

// EstimateBandwidth averages, over all points, the distance to the farthest of the
// quantile*n nearest neighbors (the point itself counted).
func EstimateBandwidth(features [][]float64, quantile float64) float64 {
	n := len(features)
	if n == 0 {
		return 0
	}
	neighbors := int(float64(n) * quantile)
	if neighbors < 1 {
		neighbors = 1
	}

	total := 0.0
	dists := make([]float64, n)
	for i := range features {
		for j := range features {
			dists[j] = EuclideanDistance(features[i], features[j])
		}
		sort.Float64s(dists)
		total += dists[neighbors-1]
	}
	bandwidth := total / float64(n)
	if math.IsNaN(bandwidth) {
		return 0
	}
	return bandwidth
}
