package clustering

import (
	"fmt"
	"math"

	"paracluster/internal/core"
)

// Ward is agglomerative clustering with Ward linkage: it repeatedly merges the two
// clusters whose union least increases the within-cluster sum of squares, until k remain.
type Ward struct{}

// NewWard creates a Ward fitter.
func NewWard() *Ward { return &Ward{} }

// Name returns the algorithm name.
func (w *Ward) Name() string { return string(AlgorithmWard) }

type wardCluster struct {
	centroid []float64
	members  []int
}

// Fit returns labels in [0, k), numbered by the first member of each cluster.
func (w *Ward) Fit(features [][]float64, k int) ([]int, error) {
	if err := validateFeatures(features); err != nil {
		return nil, err
	}
	n := len(features)
	if k <= 0 || k > n {
		return nil, fmt.Errorf("%w: k=%d (must be 1-%d)", core.ErrInvalidClusterCount, k, n)
	}

	clusters := make([]*wardCluster, n)
	for i, row := range features {
		clusters[i] = &wardCluster{
			centroid: append([]float64(nil), row...),
			members:  []int{i},
		}
	}

	for len(clusters) > k {
		bestA, bestB := 0, 1
		bestCost := math.Inf(1)
		for a := 0; a < len(clusters); a++ {
			for b := a + 1; b < len(clusters); b++ {
				if cost := wardCost(clusters[a], clusters[b]); cost < bestCost {
					bestA, bestB, bestCost = a, b, cost
				}
			}
		}
		clusters[bestA] = mergeWard(clusters[bestA], clusters[bestB])
		clusters = append(clusters[:bestB], clusters[bestB+1:]...)
	}

	// Clusters keep the position of their earliest member, so this numbering follows the
	// order in which items first appear.
	labels := make([]int, n)
	for label, c := range clusters {
		for _, idx := range c.members {
			labels[idx] = label
		}
	}
	return labels, nil
}

func wardCost(a, b *wardCluster) float64 {
	na, nb := float64(len(a.members)), float64(len(b.members))
	return na * nb / (na + nb) * squaredDistance(a.centroid, b.centroid)
}

func mergeWard(a, b *wardCluster) *wardCluster {
	na, nb := float64(len(a.members)), float64(len(b.members))
	centroid := make([]float64, len(a.centroid))
	for i := range centroid {
		centroid[i] = (a.centroid[i]*na + b.centroid[i]*nb) / (na + nb)
	}
	members := append(append([]int(nil), a.members...), b.members...)
	return &wardCluster{centroid: centroid, members: members}
}
