package clustering

import "fmt"

// Noise is the label DBSCAN gives to points that belong to no dense region.
const Noise = -1

// DBSCANConfig holds configuration for DBSCAN clustering
type DBSCANConfig struct {
	Eps        float64 // Neighborhood radius (Euclidean)
	MinSamples int     // Points within Eps, the point itself included, to be a core point
}

// DefaultDBSCANConfig returns the settings used for the dense-embedding run.
func DefaultDBSCANConfig() DBSCANConfig {
	return DBSCANConfig{
		Eps:        20,
		MinSamples: 2,
	}
}

// DBSCAN is density-based clustering. It ignores the requested k.
type DBSCAN struct {
	config DBSCANConfig
}

// NewDBSCAN creates a DBSCAN fitter.
func NewDBSCAN(config DBSCANConfig) (*DBSCAN, error) {
	if config.Eps <= 0 {
		return nil, fmt.Errorf("dbscan eps must be positive, got %g", config.Eps)
	}
	if config.MinSamples <= 0 {
		return nil, fmt.Errorf("dbscan min_samples must be positive, got %d", config.MinSamples)
	}
	return &DBSCAN{config: config}, nil
}

// Name returns the algorithm name.
func (d *DBSCAN) Name() string { return string(AlgorithmDBSCAN) }

// Fit labels clusters 0, 1, ... in order of discovery and noise as -1.
func (d *DBSCAN) Fit(features [][]float64, _ int) ([]int, error) {
	if err := validateFeatures(features); err != nil {
		return nil, err
	}

	const unvisited = -2

	n := len(features)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	eps2 := d.config.Eps * d.config.Eps
	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}

		neighbors := d.rangeQuery(features, i, eps2)
		if len(neighbors) < d.config.MinSamples {
			labels[i] = Noise
			continue
		}

		labels[i] = clusterID
		seed := neighbors
		for len(seed) > 0 {
			q := seed[0]
			seed = seed[1:]

			if labels[q] == Noise {
				labels[q] = clusterID
			}
			if labels[q] != unvisited {
				continue
			}
			labels[q] = clusterID

			qNeighbors := d.rangeQuery(features, q, eps2)
			if len(qNeighbors) >= d.config.MinSamples {
				seed = append(seed, qNeighbors...)
			}
		}
		clusterID++
	}
	return labels, nil
}

// rangeQuery returns the indices within eps of point i, i included.
func (d *DBSCAN) rangeQuery(features [][]float64, i int, eps2 float64) []int {
	var out []int
	for j, row := range features {
		if squaredDistance(features[i], row) <= eps2 {
			out = append(out, j)
		}
	}
	return out
}
