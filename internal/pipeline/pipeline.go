package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"paracluster/internal/clustering"
	"paracluster/internal/core"
	"paracluster/internal/logger"
	"paracluster/internal/quality"
	"paracluster/internal/strategy"
	"paracluster/internal/vectorstore"
)

// Pipeline runs one clustering strategy over every target word of a dataset, optionally
// scores the result against gold, and writes it out.
type Pipeline struct {
	strategy strategy.Strategy
	loader   DatasetLoader
	writer   ClusteringWriter
	sources  []vectorstore.Source // closed by Close
	config   *Config
	log      *slog.Logger
	progress io.Writer
}

// Config holds pipeline configuration
type Config struct {
	FailFast   bool              // Abort on the first word that fails
	Instrument bool              // Log the silhouette of every clustered word
	Gates      QualityGateConfig // Checks applied after a run
	Progress   io.Writer         // Step-by-step progress; nil discards it
	Logger     *slog.Logger      // nil uses the default logger
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Gates: DefaultQualityGateConfig(),
	}
}

// NewPipeline creates a pipeline around one strategy
func NewPipeline(
	s strategy.Strategy,
	loader DatasetLoader,
	writer ClusteringWriter,
	config *Config,
) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}

	log := config.Logger
	if log == nil {
		log = logger.Get()
	}
	progress := config.Progress
	if progress == nil {
		progress = io.Discard
	}

	return &Pipeline{
		strategy: s,
		loader:   loader,
		writer:   writer,
		config:   config,
		log:      log.With("strategy", s.Name()),
		progress: progress,
	}
}

// Strategy returns the strategy the pipeline runs
func (p *Pipeline) Strategy() strategy.Strategy {
	return p.strategy
}

// Close releases the embedding sources opened for the pipeline
func (p *Pipeline) Close() error {
	err := vectorstore.Close(p.sources...)
	p.sources = nil
	return err
}

// RunOptions names the files of one run. GoldFile, OutputFile and ReportFile are optional.
type RunOptions struct {
	InputFile  string
	GoldFile   string
	OutputFile string
	ReportFile string
}

// Result contains the output of a run
type Result struct {
	Predicted  *core.Clusterings
	Report     *quality.Report // nil without gold or without overlap
	NoOverlap  bool            // gold was given but shared no word with the prediction
	Failures   []WordFailure
	Warnings   []string // non-blocking gate failures
	OutputPath string
	ReportPath string
	Stats      ProcessingStats
}

// Err joins the per-word failures, or returns nil when every word was clustered.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// WordFailure records why one target word could not be clustered
type WordFailure struct {
	Word string
	Err  error
}

func (f WordFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Word, f.Err)
}

func (f WordFailure) Unwrap() error {
	return f.Err
}

// ProcessingStats tracks pipeline execution metrics
type ProcessingStats struct {
	TotalWords     int
	ClusteredWords int
	FailedWords    int
	DivergedWords  int     // realized cluster count differs from the requested one
	MeanSilhouette float64 // over instrumented words with 2..n-1 clusters
	ProcessingTime time.Duration
	StartTime      time.Time
	EndTime        time.Time
}

// Process clusters every word of dataset in file order and, when gold is non-nil, scores
// the prediction. A word that fails is recorded in Result.Failures and left out of the
// prediction unless FailFast is set, in which case the first failure is returned.
func (p *Pipeline) Process(dataset *core.Dataset, gold *core.Clusterings) (*Result, error) {
	stats := ProcessingStats{
		StartTime:  time.Now(),
		TotalWords: dataset.Len(),
	}
	result := &Result{Predicted: core.NewClusterings()}

	silhouetteTotal, silhouetteCount := 0.0, 0
	for _, word := range dataset.Words {
		partition, silhouette, diverged, err := p.clusterWord(word)
		if err != nil {
			p.log.Warn("Failed to cluster word", "word", word.Word, "error", err)
			if p.config.FailFast {
				return nil, fmt.Errorf("failed to cluster %q: %w", word.Word, err)
			}
			result.Failures = append(result.Failures, WordFailure{Word: word.Word, Err: err})
			continue
		}

		result.Predicted.Set(word.Word, partition)
		if diverged {
			stats.DivergedWords++
		}
		if silhouette != nil {
			silhouetteTotal += *silhouette
			silhouetteCount++
		}
	}

	stats.ClusteredWords = result.Predicted.Len()
	stats.FailedWords = len(result.Failures)
	if silhouetteCount > 0 {
		stats.MeanSilhouette = silhouetteTotal / float64(silhouetteCount)
	}
	fmt.Fprintf(p.progress, "   ✓ Clustered %d/%d words", stats.ClusteredWords, stats.TotalWords)
	if stats.FailedWords > 0 {
		fmt.Fprintf(p.progress, " (%d failed)", stats.FailedWords)
	}
	fmt.Fprintln(p.progress)

	if gold != nil {
		report, err := quality.Evaluate(gold, result.Predicted)
		switch {
		case errors.Is(err, core.ErrNoOverlap):
			p.log.Warn("No score computed", "error", err)
			result.NoOverlap = true
		case err != nil:
			return nil, fmt.Errorf("failed to evaluate against gold: %w", err)
		default:
			report.Strategy = p.strategy.Name()
			result.Report = report
			p.log.Info("Evaluated clustering",
				"run_id", report.RunID,
				"words", len(report.Rows),
				"weighted_f_score", report.Average)
		}
	}

	stats.EndTime = time.Now()
	stats.ProcessingTime = stats.EndTime.Sub(stats.StartTime)
	result.Stats = stats
	return result, nil
}

// clusterWord runs the strategy for one word. For detailed strategies it also reports
// whether the realized cluster count diverged and, when instrumenting, the silhouette.
func (p *Pipeline) clusterWord(word core.TargetWord) (core.Partition, *float64, bool, error) {
	detailed, ok := p.strategy.(DetailedStrategy)
	if !ok {
		partition, err := p.strategy.Cluster(word)
		return partition, nil, false, err
	}

	outcome, err := detailed.ClusterDetailed(word)
	if err != nil {
		return nil, nil, false, err
	}
	if outcome.Diverged() {
		p.log.Debug("Cluster count diverged",
			"word", word.Word,
			"requested_k", outcome.RequestedK,
			"realized_k", outcome.RealizedK)
	}

	var silhouette *float64
	n := len(word.Candidates)
	if p.config.Instrument && outcome.Features != nil && outcome.RealizedK >= 2 && outcome.RealizedK < n {
		analysis := clustering.PerformSilhouetteAnalysis(outcome.Features, outcome.Labels)
		p.log.Info("Silhouette",
			"word", word.Word,
			"score", analysis.OverallScore,
			"clusters", analysis.NumClusters,
			"quality", analysis.Quality)
		silhouette = &analysis.OverallScore
	}
	return outcome.Partition, silhouette, outcome.Diverged(), nil
}

// Run loads the input (and gold), processes it, writes the prediction and report, and
// applies the quality gates. A blocking gate failure is returned together with the result.
func (p *Pipeline) Run(opts RunOptions) (*Result, error) {
	// Step 1: Load target words
	fmt.Fprintf(p.progress, "📄 Step 1/5: Loading target words from %s...\n", opts.InputFile)
	dataset, err := p.loader.LoadInputFile(opts.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	fmt.Fprintf(p.progress, "   ✓ Found %d target words\n\n", dataset.Len())

	// Step 2: Load gold clusterings
	var gold *core.Clusterings
	if opts.GoldFile != "" {
		fmt.Fprintf(p.progress, "📚 Step 2/5: Loading gold clusterings from %s...\n", opts.GoldFile)
		gold, err = p.loader.LoadClusteringsFile(opts.GoldFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load gold: %w", err)
		}
		fmt.Fprintf(p.progress, "   ✓ Found %d gold target words\n\n", gold.Len())
	} else {
		fmt.Fprintf(p.progress, "⏭️  Step 2/5: No gold clusterings, skipping evaluation\n\n")
	}

	// Step 3: Cluster (and evaluate)
	fmt.Fprintf(p.progress, "🔗 Step 3/5: Clustering with %s...\n", p.strategy.Name())
	result, err := p.Process(dataset, gold)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(p.progress)
	if result.Report != nil {
		result.Report.PrintReport(p.progress)
	} else if result.NoOverlap {
		fmt.Fprintf(p.progress, "⚠️  No overlapping target words between gold and prediction; no score computed\n")
	}

	// Step 4: Write outputs
	if opts.OutputFile != "" {
		fmt.Fprintf(p.progress, "✍️  Step 4/5: Writing clusterings...\n")
		if err := p.writer.WriteClusteringsFile(opts.OutputFile, result.Predicted); err != nil {
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
		result.OutputPath = opts.OutputFile
		fmt.Fprintf(p.progress, "   ✓ Saved to %s\n\n", opts.OutputFile)
	}
	if opts.ReportFile != "" && result.Report != nil {
		if err := quality.WriteReport(opts.ReportFile, result.Report); err != nil {
			return nil, err
		}
		result.ReportPath = opts.ReportFile
		fmt.Fprintf(p.progress, "   ✓ Report saved to %s\n\n", opts.ReportFile)
	}

	// Step 5: Quality gates
	fmt.Fprintf(p.progress, "🔒 Step 5/5: Checking quality gates...\n")
	for _, gate := range NewQualityGates(p.config.Gates, result) {
		if err := gate.Validate(); err != nil {
			if gate.IsBlocking() {
				fmt.Fprintf(p.progress, "   ❌ %s failed (blocking): %v\n", gate.Name(), err)
				return result, err
			}
			fmt.Fprintf(p.progress, "   ⚠️  %s warning: %v\n", gate.Name(), err)
			result.Warnings = append(result.Warnings, err.Error())
		}
	}
	return result, nil
}
