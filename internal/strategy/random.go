package strategy

import (
	"math/rand"

	"paracluster/internal/clustering"
	"paracluster/internal/core"
)

// DefaultRandomSeed makes the random baseline reproducible across runs.
const DefaultRandomSeed int64 = 123

// Random deals candidates round-robin into k buckets in a random order. One random source
// is shared by all words of a run, so a Random is not safe for concurrent use.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates the random baseline. A seed of 0 seeds from the clock.
func NewRandom(seed int64) *Random {
	return &Random{rng: clustering.NewRand(seed)}
}

// Name returns "random".
func (r *Random) Name() string { return NameRandom }

// Cluster draws candidates without replacement and deals the i-th draw to bucket i mod k,
// so bucket sizes differ by at most one.
func (r *Random) Cluster(word core.TargetWord) (core.Partition, error) {
	if err := requirePositiveK(word); err != nil {
		return nil, err
	}
	if err := requireCandidates(word, word.K); err != nil {
		return nil, err
	}

	n := len(word.Candidates)
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}

	items := make([]string, 0, n)
	labels := make([]int, 0, n)
	for draw := 0; len(pool) > 0; draw++ {
		j := r.rng.Intn(len(pool))
		items = append(items, word.Candidates[pool[j]])
		labels = append(labels, draw%word.K)

		// swap-remove
		last := len(pool) - 1
		pool[j] = pool[last]
		pool = pool[:last]
	}

	return clustering.Assign(items, labels, word.K)
}
