package clustering

import (
	"fmt"
	"sort"

	"paracluster/internal/core"
)

// NoisePolicy controls what happens to items with a negative (noise) label.
type NoisePolicy int

const (
	// NoiseGroup gathers all noise items into one cluster placed after the labelled ones.
	NoiseGroup NoisePolicy = iota
	// NoiseSingletons puts every noise item in its own cluster.
	NoiseSingletons
)

// Assign groups items by label. Clusters follow ascending label order, items keep their
// input order, and labels that never occur produce no cluster. hint is the expected number
// of labels and only pre-sizes the grouping.
func Assign(items []string, labels []int, hint int) (core.Partition, error) {
	return AssignWithNoise(items, labels, hint, NoiseGroup)
}

// AssignWithNoise is Assign with an explicit policy for negative labels.
func AssignWithNoise(items []string, labels []int, hint int, noise NoisePolicy) (core.Partition, error) {
	if len(items) != len(labels) {
		return nil, fmt.Errorf("%w: %d items, %d labels", core.ErrInconsistentLengths, len(items), len(labels))
	}
	if hint < 0 {
		hint = 0
	}

	groups := make(map[int]core.Cluster, hint)
	var noisy core.Cluster
	for i, label := range labels {
		if label < 0 {
			noisy = append(noisy, items[i])
			continue
		}
		groups[label] = append(groups[label], items[i])
	}

	keys := make([]int, 0, len(groups))
	for label := range groups {
		keys = append(keys, label)
	}
	sort.Ints(keys)

	partition := make(core.Partition, 0, len(keys)+1)
	for _, label := range keys {
		partition = append(partition, groups[label])
	}

	if len(noisy) > 0 {
		switch noise {
		case NoiseSingletons:
			for _, item := range noisy {
				partition = append(partition, core.Cluster{item})
			}
		default:
			partition = append(partition, noisy)
		}
	}
	return partition, nil
}

// CountLabels returns the number of distinct labels, counting all noise as one.
func CountLabels(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		if l < 0 {
			l = -1
		}
		seen[l] = struct{}{}
	}
	return len(seen)
}
