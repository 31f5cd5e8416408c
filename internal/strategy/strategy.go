// Package strategy turns a target word's candidate list into a partition, either at
// random or from the geometry of the candidates' embeddings.
package strategy

import (
	"fmt"

	"paracluster/internal/core"
)

// Strategy clusters the candidates of one target word.
type Strategy interface {
	Name() string
	Cluster(word core.TargetWord) (core.Partition, error)
}

// Strategy names accepted by the CLI and configuration.
const (
	NameRandom  = "random"
	NameSparse  = "sparse"
	NameDense   = "dense"
	NameNoCount = "nocount"
)

// Names lists every strategy in the order they are documented.
func Names() []string {
	return []string{NameRandom, NameSparse, NameDense, NameNoCount}
}

func requireCandidates(word core.TargetWord, k int) error {
	if len(word.Candidates) == 0 {
		return fmt.Errorf("%w: %q requests k=%d but has no candidates", core.ErrInvalidClusterCount, word.Word, k)
	}
	return nil
}

func requirePositiveK(word core.TargetWord) error {
	if word.K <= 0 {
		return fmt.Errorf("%w: %q requests k=%d", core.ErrInvalidClusterCount, word.Word, word.K)
	}
	return nil
}
