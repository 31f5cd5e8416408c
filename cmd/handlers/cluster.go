package handlers

import (
	"fmt"
	"path/filepath"
	"time"

	"paracluster/internal/config"
	"paracluster/internal/logger"
	"paracluster/internal/pipeline"
	"paracluster/internal/strategy"
	"github.com/spf13/cobra"
)

type clusterOptions struct {
	strategy string
	input    string
	gold     string
	output   string
	report   string
	seed     int64
	dev      bool
	failFast bool
}

// NewClusterCmd creates the cluster command
func NewClusterCmd() *cobra.Command {
	opts := &clusterOptions{}

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster the paraphrase candidates of every target word",
		Long: `Cluster the paraphrase candidates of every target word in an input file and write
the clusterings in the "word :: k :: c1 c2 ..." format.

Strategies:
  - random:  uses the k of each line, seeded shuffle (seed 123 by default)
  - sparse:  co-occurrence vectors with mean-shift
  - dense:   dense embeddings with DBSCAN (eps 20, min samples 2)
  - nocount: ignores k, k-means with min(6, candidates) clusters

When gold clusterings are given the prediction is scored with the paired F-score.

Examples:
  # Random baseline on the test set
  paracluster cluster --strategy random

  # Sparse vectors on the development set, scored against gold
  paracluster cluster --strategy sparse --dev

  # Dense vectors with an explicit seed and a saved report
  paracluster cluster --strategy dense --seed 42 --gold data/dev_output.txt --report reports/dense.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				return clusterRun(cmd, opts, &opts.seed)
			}
			return clusterRun(cmd, opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", strategy.NameRandom, fmt.Sprintf("Clustering strategy %v", strategy.Names()))
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input file of target words (default from config)")
	cmd.Flags().StringVarP(&opts.gold, "gold", "g", "", "Gold clusterings to score against")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default from config)")
	cmd.Flags().StringVarP(&opts.report, "report", "r", "", "Write the evaluation report (.yaml or .json)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Seed for shuffling, dimension dropping and k-means (0 seeds from the clock)")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "Use the development input and gold clusterings from config")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Abort on the first target word that cannot be clustered")

	return cmd
}

func clusterRun(cmd *cobra.Command, opts *clusterOptions, seed *int64) error {
	cfg := config.Get()
	if opts.failFast {
		cfg.Pipeline.FailFast = true
	}

	run := resolveRunOptions(cfg, opts)
	out := cmd.OutOrStdout()

	builder := pipeline.NewBuilder(cfg).
		WithStrategy(opts.strategy).
		WithProgress(out).
		WithLogger(logger.Get())
	if seed != nil {
		builder = builder.WithSeed(*seed)
	}

	p, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	fmt.Fprintf(out, "🚀 Clustering with the %s strategy\n\n", opts.strategy)
	result, err := p.Run(run)
	if err != nil {
		return err
	}

	stats := result.Stats
	fmt.Fprintf(out, "\n✅ Clustered %d/%d target words in %s\n",
		stats.ClusteredWords, stats.TotalWords, stats.ProcessingTime.Round(time.Millisecond))
	if stats.DivergedWords > 0 {
		fmt.Fprintf(out, "   ℹ️  %d words realized a different cluster count than requested\n", stats.DivergedWords)
	}
	if len(result.Failures) > 0 {
		fmt.Fprintf(out, "   ⚠️  %d target words failed:\n", len(result.Failures))
		for _, failure := range result.Failures {
			fmt.Fprintf(out, "      - %s\n", failure.Error())
		}
		return result.Err()
	}
	return nil
}

// resolveRunOptions fills in the input, gold, output and report paths the flags leave empty.
func resolveRunOptions(cfg *config.Config, opts *clusterOptions) pipeline.RunOptions {
	run := pipeline.RunOptions{
		InputFile:  opts.input,
		GoldFile:   opts.gold,
		OutputFile: opts.output,
		ReportFile: opts.report,
	}

	if opts.dev {
		if run.InputFile == "" {
			run.InputFile = cfg.Data.DevInput
		}
		if run.GoldFile == "" {
			run.GoldFile = cfg.Data.Gold
		}
	}

	if run.InputFile == "" {
		run.InputFile = cfg.Data.Input
		if opts.strategy == strategy.NameNoCount {
			run.InputFile = cfg.Data.NoCountInput
		}
	}

	if run.OutputFile == "" {
		run.OutputFile = cfg.OutputPath(defaultOutputName(cfg, opts.strategy, opts.dev))
	}

	if run.ReportFile == "" && run.GoldFile != "" && cfg.Output.Reports != "" {
		run.ReportFile = cfg.OutputPath(filepath.Join(cfg.Output.Reports, opts.strategy+"_report.yaml"))
	}
	return run
}

func defaultOutputName(cfg *config.Config, name string, dev bool) string {
	switch name {
	case strategy.NameSparse:
		if dev {
			return cfg.Output.DevSparse
		}
		return cfg.Output.Sparse
	case strategy.NameDense:
		return cfg.Output.Dense
	case strategy.NameNoCount:
		return cfg.Output.NoCount
	default:
		return cfg.Output.Random
	}
}
