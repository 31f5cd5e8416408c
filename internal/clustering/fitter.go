package clustering

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Fitter assigns one integer label per row of a feature matrix. k is the requested number
// of clusters; fitters that discover their own count treat it as advisory and may return
// any number of labels, with -1 marking noise.
type Fitter interface {
	Name() string
	Fit(features [][]float64, k int) ([]int, error)
}

// Algorithm names a clustering procedure
type Algorithm string

const (
	AlgorithmKMeans    Algorithm = "kmeans"
	AlgorithmDBSCAN    Algorithm = "dbscan"
	AlgorithmMeanShift Algorithm = "meanshift"
	AlgorithmWard      Algorithm = "ward"
)

// Algorithms lists the supported procedures.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmKMeans, AlgorithmDBSCAN, AlgorithmMeanShift, AlgorithmWard}
}

// FitterConfig selects and configures a fitter.
type FitterConfig struct {
	Algorithm Algorithm
	Seed      int64 // 0 seeds from the clock
	KMeans    KMeansConfig
	DBSCAN    DBSCANConfig
	MeanShift MeanShiftConfig
}

// DefaultFitterConfig returns k-means with the default settings of every algorithm.
func DefaultFitterConfig() FitterConfig {
	return FitterConfig{
		Algorithm: AlgorithmKMeans,
		KMeans:    DefaultKMeansConfig(),
		DBSCAN:    DefaultDBSCANConfig(),
		MeanShift: DefaultMeanShiftConfig(),
	}
}

// NewFitter builds the fitter named by cfg.Algorithm.
func NewFitter(cfg FitterConfig) (Fitter, error) {
	switch Algorithm(strings.ToLower(string(cfg.Algorithm))) {
	case AlgorithmKMeans:
		return NewKMeans(cfg.KMeans, NewRand(cfg.Seed)), nil
	case AlgorithmDBSCAN:
		return NewDBSCAN(cfg.DBSCAN)
	case AlgorithmMeanShift:
		return NewMeanShift(cfg.MeanShift), nil
	case AlgorithmWard:
		return NewWard(), nil
	default:
		return nil, fmt.Errorf("unknown clustering algorithm: %s", cfg.Algorithm)
	}
}

// NewRand returns a random source for seed, or a clock-seeded one when seed is 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// EuclideanDistance calculates Euclidean distance between two vectors
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	return floats.Distance(a, b, 2)
}

func squaredDistance(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

func validateFeatures(features [][]float64) error {
	if len(features) == 0 {
		return fmt.Errorf("no features provided")
	}
	dim := len(features[0])
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d dimensions, expected %d", i, len(row), dim)
		}
	}
	return nil
}
