package strategy

import (
	"fmt"
	"log/slog"
	"math/rand"

	"paracluster/internal/clustering"
	"paracluster/internal/core"
	"paracluster/internal/features"
	"paracluster/internal/logger"
	"paracluster/internal/vectorstore"
)

// KPolicy decides how many clusters a vector strategy asks its fitter for.
type KPolicy int

const (
	// KFromInput uses the word's own K, clamped to the number of candidates.
	KFromInput KPolicy = iota
	// KCeiling ignores the word's K and asks for min(Ceiling, candidates).
	KCeiling
	// KSilhouette tries every k in [2, min(Ceiling, candidates)] and keeps the best silhouette.
	KSilhouette
)

func (p KPolicy) String() string {
	switch p {
	case KFromInput:
		return "input"
	case KCeiling:
		return "ceiling"
	case KSilhouette:
		return "silhouette"
	default:
		return fmt.Sprintf("KPolicy(%d)", int(p))
	}
}

// ParseKPolicy maps a configuration value to a KPolicy.
func ParseKPolicy(name string) (KPolicy, error) {
	switch name {
	case "input", "":
		return KFromInput, nil
	case "ceiling":
		return KCeiling, nil
	case "silhouette":
		return KSilhouette, nil
	default:
		return 0, fmt.Errorf("unknown k policy: %s", name)
	}
}

// DefaultCeiling bounds the cluster count when the input gives none.
const DefaultCeiling = 6

// VectorConfig configures a vector-space strategy.
type VectorConfig struct {
	Name      string
	Source    vectorstore.Source
	Fitter    clustering.Fitter
	DropCount int
	Seed      int64 // drives dimension drops; 0 seeds from the clock
	KPolicy   KPolicy
	Ceiling   int
	Noise     clustering.NoisePolicy
	Logger    *slog.Logger
}

// Outcome is the full result of clustering one word.
type Outcome struct {
	Partition  core.Partition
	RequestedK int
	RealizedK  int
	Labels     []int
	Dropped    []int
	Features   [][]float64 // standardized matrix the fitter saw
}

// Diverged reports whether the fitter produced a different number of clusters than asked.
func (o *Outcome) Diverged() bool {
	return o.RealizedK != o.RequestedK
}

// Vector looks up candidate embeddings, drops random dimensions, standardizes per word,
// fits, and assigns. It owns a random source and is not safe for concurrent use.
type Vector struct {
	cfg VectorConfig
	rng *rand.Rand
	log *slog.Logger
}

// NewVector validates cfg and builds the strategy. The drop count is checked against the
// source dimensionality here so a misconfiguration fails before any word is clustered.
func NewVector(cfg VectorConfig) (*Vector, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("vector strategy %s: no embedding source", cfg.Name)
	}
	if cfg.Fitter == nil {
		return nil, fmt.Errorf("vector strategy %s: no clustering fitter", cfg.Name)
	}
	if dim := cfg.Source.Dim(); cfg.DropCount < 0 || cfg.DropCount >= dim {
		return nil, fmt.Errorf("vector strategy %s: %w: cannot drop %d of %d dimensions",
			cfg.Name, core.ErrInvalidDropCount, cfg.DropCount, dim)
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = DefaultCeiling
	}
	if cfg.Name == "" {
		cfg.Name = "vector"
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	return &Vector{
		cfg: cfg,
		rng: clustering.NewRand(cfg.Seed),
		log: log.With("strategy", cfg.Name, "fitter", cfg.Fitter.Name()),
	}, nil
}

// Name returns the configured strategy name.
func (v *Vector) Name() string { return v.cfg.Name }

// Cluster returns the partition of word's candidates.
func (v *Vector) Cluster(word core.TargetWord) (core.Partition, error) {
	out, err := v.ClusterDetailed(word)
	if err != nil {
		return nil, err
	}
	return out.Partition, nil
}

// ClusterDetailed clusters word and reports the requested and realized cluster counts.
func (v *Vector) ClusterDetailed(word core.TargetWord) (*Outcome, error) {
	requested, err := v.requestedK(word)
	if err != nil {
		return nil, err
	}

	rows, err := v.cfg.Source.Vectors(word.Candidates)
	if err != nil {
		return nil, fmt.Errorf("lookup vectors: %w", err)
	}

	n := len(word.Candidates)
	if n == 1 {
		return &Outcome{
			Partition:  core.Partition{{word.Candidates[0]}},
			RequestedK: requested,
			RealizedK:  1,
			Labels:     []int{0},
		}, nil
	}

	reduced, dropped, err := features.DropDimensions(rows, v.cfg.DropCount, v.rng)
	if err != nil {
		return nil, err
	}
	scaled := features.Standardize(reduced)

	fitK := min(requested, n)
	var labels []int
	if v.cfg.KPolicy == KSilhouette {
		var scores map[int]float64
		fitK, labels, scores, err = clustering.FindOptimalK(scaled, 2, fitK, v.cfg.Fitter)
		v.log.Debug("Silhouette search", "word", word.Word, "chosen_k", fitK, "scores", scores)
	} else {
		labels, err = v.cfg.Fitter.Fit(scaled, fitK)
	}
	if err != nil {
		return nil, fmt.Errorf("%s fit: %w", v.cfg.Fitter.Name(), err)
	}

	partition, err := clustering.AssignWithNoise(word.Candidates, labels, fitK, v.cfg.Noise)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Partition:  partition,
		RequestedK: requested,
		RealizedK:  len(partition),
		Labels:     labels,
		Dropped:    dropped,
		Features:   scaled,
	}
	v.log.Debug("Clustered word",
		"word", word.Word,
		"candidates", n,
		"requested_k", out.RequestedK,
		"realized_k", out.RealizedK,
		"diverged", out.Diverged())
	return out, nil
}

func (v *Vector) requestedK(word core.TargetWord) (int, error) {
	switch v.cfg.KPolicy {
	case KFromInput:
		if err := requirePositiveK(word); err != nil {
			return 0, err
		}
		if err := requireCandidates(word, word.K); err != nil {
			return 0, err
		}
		return word.K, nil
	default:
		k := min(v.cfg.Ceiling, len(word.Candidates))
		if err := requireCandidates(word, v.cfg.Ceiling); err != nil {
			return 0, err
		}
		return k, nil
	}
}
