package pipeline

import (
	"paracluster/internal/core"
	"paracluster/internal/strategy"
)

// DatasetLoader reads target words and clusterings in the line format
type DatasetLoader interface {
	// LoadInputFile reads "word :: k :: candidates" lines
	LoadInputFile(path string) (*core.Dataset, error)

	// LoadClusteringsFile reads "word :: index :: members" lines
	LoadClusteringsFile(path string) (*core.Clusterings, error)
}

// ClusteringWriter persists predicted clusterings
type ClusteringWriter interface {
	// WriteClusteringsFile writes one line per cluster, numbered from 1 per word
	WriteClusteringsFile(path string, clusterings *core.Clusterings) error
}

// DetailedStrategy is a strategy that also reports requested and realized cluster counts
type DetailedStrategy interface {
	strategy.Strategy
	ClusterDetailed(word core.TargetWord) (*strategy.Outcome, error)
}
