package pipeline

import (
	"fmt"
	"io"
	"log/slog"

	"paracluster/internal/clustering"
	"paracluster/internal/config"
	"paracluster/internal/parser"
	"paracluster/internal/strategy"
	"paracluster/internal/vectorstore"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	config       *config.Config
	strategyName string
	seed         *int64
	progress     io.Writer
	logger       *slog.Logger
}

// NewBuilder creates a new pipeline builder for the random baseline
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		config:       cfg,
		strategyName: strategy.NameRandom,
	}
}

// WithStrategy selects the clustering strategy by name
func (b *Builder) WithStrategy(name string) *Builder {
	b.strategyName = name
	return b
}

// WithSeed overrides the random baseline, feature-drop and k-means seeds
func (b *Builder) WithSeed(seed int64) *Builder {
	b.seed = &seed
	return b
}

// WithProgress sets where step-by-step progress is printed
func (b *Builder) WithProgress(w io.Writer) *Builder {
	b.progress = w
	return b
}

// WithLogger sets the structured logger
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// Build opens the embedding sources the strategy needs and constructs the Pipeline.
// Close the pipeline to release them.
func (b *Builder) Build() (*Pipeline, error) {
	if b.config == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	s, sources, err := b.buildStrategy()
	if err != nil {
		return nil, err
	}

	p := parser.NewParser()
	pipeline := NewPipeline(s, p, p, &Config{
		FailFast:   b.config.Pipeline.FailFast,
		Instrument: b.config.Pipeline.Instrument,
		Gates: QualityGateConfig{
			MinScore:        b.config.Pipeline.MinScore,
			MaxFailureRatio: b.config.Pipeline.MaxFailureRatio,
			BlockOnFailure:  b.config.Pipeline.BlockOnFailure,
		},
		Progress: b.progress,
		Logger:   b.logger,
	})
	pipeline.sources = sources
	return pipeline, nil
}

func (b *Builder) buildStrategy() (strategy.Strategy, []vectorstore.Source, error) {
	cfg := b.config

	switch b.strategyName {
	case strategy.NameRandom:
		return strategy.NewRandom(b.seedOr(cfg.Random.Seed)), nil, nil
	case strategy.NameSparse:
		return b.buildVector(cfg.Vectors.Sparse, cfg.Strategies.Sparse, strategy.NewSparse)
	case strategy.NameDense:
		return b.buildVector(cfg.Vectors.Dense, cfg.Strategies.Dense, strategy.NewDense)
	case strategy.NameNoCount:
		sc := cfg.Strategies.NoCount
		return b.buildVector(cfg.Vectors.NoCount, sc, func(src vectorstore.Source, f clustering.Fitter, opts strategy.Options) (*strategy.Vector, error) {
			policy, err := strategy.ParseKPolicy(sc.KPolicy)
			if err != nil {
				return nil, err
			}
			return strategy.NewNoCount(src, f, sc.Ceiling, policy, opts)
		})
	default:
		return nil, nil, fmt.Errorf("unknown strategy: %s (supported: %v)", b.strategyName, strategy.Names())
	}
}

type vectorConstructor func(vectorstore.Source, clustering.Fitter, strategy.Options) (*strategy.Vector, error)

func (b *Builder) buildVector(paths []string, sc config.StrategyConfig, build vectorConstructor) (strategy.Strategy, []vectorstore.Source, error) {
	fitter, err := clustering.NewFitter(FitterConfig(b.config, sc, b.seedOr(b.config.KMeans.Seed)))
	if err != nil {
		return nil, nil, err
	}

	src, err := vectorstore.OpenAll(paths)
	if err != nil {
		return nil, nil, err
	}

	s, err := build(src, fitter, strategy.Options{
		DropCount: b.config.Features.DropCount,
		Seed:      b.seedOr(b.config.Features.Seed),
		Noise:     NoisePolicy(sc.Noise),
		Logger:    b.logger,
	})
	if err != nil {
		_ = vectorstore.Close(src)
		return nil, nil, err
	}
	return s, []vectorstore.Source{src}, nil
}

func (b *Builder) seedOr(seed int64) int64 {
	if b.seed != nil {
		return *b.seed
	}
	return seed
}

// FitterConfig translates configuration into clustering settings for one strategy
func FitterConfig(cfg *config.Config, sc config.StrategyConfig, seed int64) clustering.FitterConfig {
	return clustering.FitterConfig{
		Algorithm: clustering.Algorithm(sc.Algorithm),
		Seed:      seed,
		KMeans: clustering.KMeansConfig{
			MaxIterations: cfg.KMeans.MaxIterations,
			Tolerance:     cfg.KMeans.Tolerance,
			NInit:         cfg.KMeans.NInit,
		},
		DBSCAN: clustering.DBSCANConfig{
			Eps:        cfg.DBSCAN.Eps,
			MinSamples: cfg.DBSCAN.MinSamples,
		},
		MeanShift: clustering.MeanShiftConfig{
			Bandwidth:     cfg.MeanShift.Bandwidth,
			Quantile:      cfg.MeanShift.Quantile,
			MaxIterations: cfg.MeanShift.MaxIterations,
		},
	}
}

// NoisePolicy maps a configuration value to a clustering.NoisePolicy
func NoisePolicy(name string) clustering.NoisePolicy {
	if name == "singletons" {
		return clustering.NoiseSingletons
	}
	return clustering.NoiseGroup
}
