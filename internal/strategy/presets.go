package strategy

import (
	"log/slog"

	"paracluster/internal/clustering"
	"paracluster/internal/features"
	"paracluster/internal/vectorstore"
)

// Options are the settings shared by the vector presets.
type Options struct {
	DropCount int
	Seed      int64
	Noise     clustering.NoisePolicy
	Logger    *slog.Logger
}

// DefaultOptions drops features.DefaultDropCount dimensions with a clock seed.
func DefaultOptions() Options {
	return Options{DropCount: features.DefaultDropCount}
}

// DefaultAlgorithm returns the fitter each preset uses unless configured otherwise.
func DefaultAlgorithm(name string) clustering.Algorithm {
	switch name {
	case NameSparse:
		return clustering.AlgorithmMeanShift
	case NameDense:
		return clustering.AlgorithmDBSCAN
	default:
		return clustering.AlgorithmKMeans
	}
}

// NewSparse clusters with the word's own k over a low-information embedding.
func NewSparse(src vectorstore.Source, fitter clustering.Fitter, opts Options) (*Vector, error) {
	return NewVector(presetConfig(NameSparse, src, fitter, opts, KFromInput, 0))
}

// NewDense clusters with the word's own k over a richer embedding.
func NewDense(src vectorstore.Source, fitter clustering.Fitter, opts Options) (*Vector, error) {
	return NewVector(presetConfig(NameDense, src, fitter, opts, KFromInput, 0))
}

// NewNoCount ignores the input k and asks for min(ceiling, candidates) clusters. src is
// normally a vectorstore.Concat of two embeddings.
func NewNoCount(src vectorstore.Source, fitter clustering.Fitter, ceiling int, policy KPolicy, opts Options) (*Vector, error) {
	if policy == KFromInput {
		policy = KCeiling
	}
	return NewVector(presetConfig(NameNoCount, src, fitter, opts, policy, ceiling))
}

func presetConfig(
	name string,
	src vectorstore.Source,
	fitter clustering.Fitter,
	opts Options,
	policy KPolicy,
	ceiling int,
) VectorConfig {
	return VectorConfig{
		Name:      name,
		Source:    src,
		Fitter:    fitter,
		DropCount: opts.DropCount,
		Seed:      opts.Seed,
		KPolicy:   policy,
		Ceiling:   ceiling,
		Noise:     opts.Noise,
		Logger:    opts.Logger,
	}
}
