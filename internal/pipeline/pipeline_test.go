package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paracluster/internal/clustering"
	"paracluster/internal/config"
	"paracluster/internal/core"
	"paracluster/internal/parser"
	"paracluster/internal/strategy"
	"paracluster/internal/vectorstore"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubStrategy puts every candidate in one cluster and fails for the listed words.
type stubStrategy struct {
	fail map[string]bool
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Cluster(word core.TargetWord) (core.Partition, error) {
	if s.fail[word.Word] {
		return nil, fmt.Errorf("lookup vectors: %w", &core.MissingVectorError{Word: word.Candidates[0]})
	}
	return core.Partition{append(core.Cluster(nil), word.Candidates...)}, nil
}

func dataset() *core.Dataset {
	return core.NewDataset([]core.TargetWord{
		{Word: "bank", K: 2, Candidates: []string{"river", "money", "loan", "shore"}},
		{Word: "crane", K: 2, Candidates: []string{"bird", "heron", "lift"}},
		{Word: "bright", K: 1, Candidates: []string{"shiny", "vivid"}},
	})
}

func gold() *core.Clusterings {
	g := core.NewClusterings()
	g.Set("bank", core.Partition{{"river", "shore"}, {"money", "loan"}})
	g.Set("crane", core.Partition{{"bird", "heron"}, {"lift"}})
	g.Set("bright", core.Partition{{"shiny", "vivid"}})
	return g
}

func newTestPipeline(s strategy.Strategy, cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Logger = quietLogger
	p := parser.NewParser()
	return NewPipeline(s, p, p, cfg)
}

func TestProcessWithoutGold(t *testing.T) {
	p := newTestPipeline(strategy.NewRandom(strategy.DefaultRandomSeed), nil)

	result, err := p.Process(dataset(), nil)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Report != nil {
		t.Error("Expected no report without gold")
	}
	if result.Predicted.Len() != 3 {
		t.Fatalf("Expected 3 predicted words, got %d", result.Predicted.Len())
	}
	if got := result.Predicted.Words(); got[0] != "bank" || got[2] != "bright" {
		t.Errorf("Expected input order, got %v", got)
	}
	for _, w := range dataset().Words {
		partition, _ := result.Predicted.Get(w.Word)
		if err := partition.Validate(w.Candidates); err != nil {
			t.Errorf("%s: %v", w.Word, err)
		}
	}
	if result.Err() != nil {
		t.Errorf("Expected no failures, got %v", result.Err())
	}
}

func TestProcessWithGold(t *testing.T) {
	p := newTestPipeline(&stubStrategy{}, nil)

	result, err := p.Process(dataset(), gold())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Report == nil {
		t.Fatal("Expected report")
	}
	if result.Report.Strategy != "stub" {
		t.Errorf("Expected strategy name on report, got %q", result.Report.Strategy)
	}
	// bank: P=1/3... one big cluster has 6 pairs, 2 in gold -> P=1/3, R=1, F=0.5
	// crane: 3 pairs, 1 in gold -> F=0.5; bright: F=1
	expected := (0.5*2 + 0.5*2 + 1*1) / 5
	if diff := result.Report.Average - expected; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected average %f, got %f", expected, result.Report.Average)
	}
}

func TestProcessCollectsFailures(t *testing.T) {
	p := newTestPipeline(&stubStrategy{fail: map[string]bool{"crane": true}}, nil)

	result, err := p.Process(dataset(), gold())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, ok := result.Predicted.Get("crane"); ok {
		t.Error("Expected failed word to be left out")
	}
	if len(result.Failures) != 1 || result.Failures[0].Word != "crane" {
		t.Fatalf("Expected one failure for crane, got %v", result.Failures)
	}
	if !errors.Is(result.Err(), core.ErrMissingVector) {
		t.Errorf("Expected joined error to wrap ErrMissingVector, got %v", result.Err())
	}
	if result.Stats.FailedWords != 1 || result.Stats.ClusteredWords != 2 {
		t.Errorf("Unexpected stats: %+v", result.Stats)
	}
	if len(result.Report.Rows) != 2 {
		t.Errorf("Expected 2 scored words, got %d", len(result.Report.Rows))
	}
}

func TestProcessFailFast(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailFast = true
	p := newTestPipeline(&stubStrategy{fail: map[string]bool{"crane": true}}, cfg)

	_, err := p.Process(dataset(), nil)
	if !errors.Is(err, core.ErrMissingVector) {
		t.Errorf("Expected ErrMissingVector, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "crane") {
		t.Errorf("Expected error to name the word, got %v", err)
	}
}

func TestProcessNoOverlap(t *testing.T) {
	p := newTestPipeline(&stubStrategy{}, nil)
	other := core.NewClusterings()
	other.Set("zebra", core.Partition{{"horse"}})

	result, err := p.Process(dataset(), other)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.NoOverlap || result.Report != nil {
		t.Errorf("Expected no-overlap result without report, got %+v", result)
	}
}

func TestProcessInstrumentsDetailedStrategy(t *testing.T) {
	mem := vectorstore.NewMemory("test", 3)
	vectors := map[string][]float64{
		"river": {5, 5, 0}, "shore": {5, 4.8, 0.1},
		"money": {0, 0, 5}, "loan": {0.1, 0, 4.9},
	}
	for w, v := range vectors {
		if err := mem.Add(w, v); err != nil {
			t.Fatal(err)
		}
	}
	fitter := clustering.NewKMeans(clustering.DefaultKMeansConfig(), rand.New(rand.NewSource(1)))
	s, err := strategy.NewDense(mem, fitter, strategy.Options{Seed: 1, Logger: quietLogger})
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Instrument = true
	p := newTestPipeline(s, cfg)

	ds := core.NewDataset([]core.TargetWord{{Word: "bank", K: 2, Candidates: []string{"river", "money", "loan", "shore"}}})
	result, err := p.Process(ds, nil)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Stats.MeanSilhouette <= 0.5 {
		t.Errorf("Expected high silhouette for separated groups, got %f", result.Stats.MeanSilhouette)
	}
	if result.Stats.DivergedWords != 0 {
		t.Errorf("Expected no divergence, got %d", result.Stats.DivergedWords)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "input.txt", "bank :: 2 :: river money loan shore\nbright :: 1 :: shiny vivid\n")
	goldPath := writeFile(t, dir, "gold.txt",
		"bank :: 1 :: river shore\nbank :: 2 :: money loan\nbright :: 1 :: shiny vivid\n")

	var progress bytes.Buffer
	cfg := DefaultConfig()
	cfg.Progress = &progress
	p := newTestPipeline(&stubStrategy{}, cfg)

	result, err := p.Run(RunOptions{
		InputFile:  input,
		GoldFile:   goldPath,
		OutputFile: filepath.Join(dir, "out", "predicted.txt"),
		ReportFile: filepath.Join(dir, "out", "report.yaml"),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	expected := "bank :: 1 :: river money loan shore\nbright :: 1 :: shiny vivid\n"
	if string(data) != expected {
		t.Errorf("Expected output:\n%s\ngot:\n%s", expected, data)
	}
	if _, err := os.Stat(result.ReportPath); err != nil {
		t.Errorf("Expected report file: %v", err)
	}
	if !strings.Contains(progress.String(), "PAIRED F-SCORE REPORT") {
		t.Errorf("Expected report in progress output:\n%s", progress.String())
	}
}

func TestRunInputFormatError(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "input.txt", "bank :: two :: river money\n")

	p := newTestPipeline(&stubStrategy{}, nil)
	_, err := p.Run(RunOptions{InputFile: input})

	var fe *core.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FormatError, got %v", err)
	}
	if fe.Line != 1 {
		t.Errorf("Expected line 1, got %d", fe.Line)
	}
}

func TestRunBlockingGate(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "input.txt", "bank :: 2 :: river money loan shore\n")
	goldPath := writeFile(t, dir, "gold.txt", "bank :: 1 :: river shore\nbank :: 2 :: money loan\n")

	cfg := DefaultConfig()
	cfg.Gates = QualityGateConfig{MinScore: 0.9, MaxFailureRatio: 1, BlockOnFailure: true}
	p := newTestPipeline(&stubStrategy{}, cfg)

	result, err := p.Run(RunOptions{InputFile: input, GoldFile: goldPath})
	if err == nil || !strings.Contains(err.Error(), "below threshold") {
		t.Errorf("Expected score gate failure, got %v", err)
	}
	if result == nil || result.Report == nil {
		t.Error("Expected result alongside gate failure")
	}
}

func TestQualityGates(t *testing.T) {
	result := &Result{Stats: ProcessingStats{TotalWords: 4, FailedWords: 2}}

	gates := NewQualityGates(QualityGateConfig{MinScore: 0.5, MaxFailureRatio: 0.25}, result)
	if len(gates) != 2 {
		t.Fatalf("Expected 2 gates, got %d", len(gates))
	}
	if err := gates[0].Validate(); err != nil {
		t.Errorf("Expected score gate to pass without report, got %v", err)
	}
	if err := gates[1].Validate(); err == nil {
		t.Error("Expected failure gate to fail at 50% failures")
	}
	if gates[1].IsBlocking() {
		t.Error("Expected non-blocking gate")
	}

	if n := len(NewQualityGates(DefaultQualityGateConfig(), result)); n != 0 {
		t.Errorf("Expected default gates disabled, got %d", n)
	}
}

func testConfig(t *testing.T, vectorFile string) *config.Config {
	t.Helper()
	return &config.Config{
		Vectors:  config.Vectors{Sparse: []string{vectorFile}, Dense: []string{vectorFile}, NoCount: []string{vectorFile, vectorFile}},
		Features: config.Features{DropCount: 1, Seed: 3},
		Random:   config.Random{Seed: 123},
		Strategies: config.Strategies{
			Sparse:  config.StrategyConfig{Algorithm: "meanshift", Noise: "group"},
			Dense:   config.StrategyConfig{Algorithm: "dbscan", Noise: "singletons"},
			NoCount: config.StrategyConfig{Algorithm: "kmeans", Noise: "group", KPolicy: "ceiling", Ceiling: 6},
		},
		KMeans:    config.KMeans{MaxIterations: 100, Tolerance: 1e-4, NInit: 3},
		DBSCAN:    config.DBSCAN{Eps: 20, MinSamples: 2},
		MeanShift: config.MeanShift{Quantile: 0.3, MaxIterations: 100},
		Pipeline:  config.Pipeline{MaxFailureRatio: 1},
	}
}

func TestBuilder(t *testing.T) {
	dir := t.TempDir()
	vectorFile := writeFile(t, dir, "vectors.txt",
		"river 5 5 0\nshore 5 4.8 0.1\nmoney 0 0 5\nloan 0.1 0 4.9\n")
	cfg := testConfig(t, vectorFile)

	for _, name := range strategy.Names() {
		p, err := NewBuilder(cfg).WithStrategy(name).WithSeed(9).WithLogger(quietLogger).Build()
		if err != nil {
			t.Fatalf("Build(%s) failed: %v", name, err)
		}
		if p.Strategy().Name() != name {
			t.Errorf("Expected strategy %s, got %s", name, p.Strategy().Name())
		}

		result, err := p.Process(dataset(), nil)
		if err != nil {
			t.Fatalf("%s: Process failed: %v", name, err)
		}
		bank, ok := result.Predicted.Get("bank")
		if !ok {
			t.Errorf("%s: expected bank clustered, failures: %v", name, result.Failures)
		} else if err := bank.Validate([]string{"river", "money", "loan", "shore"}); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if name != strategy.NameRandom && !errors.Is(result.Err(), core.ErrMissingVector) {
			t.Errorf("%s: expected crane to miss vectors, got %v", name, result.Err())
		}
		if err := p.Close(); err != nil {
			t.Errorf("%s: Close failed: %v", name, err)
		}
	}
}

func TestBuilderErrors(t *testing.T) {
	if _, err := NewBuilder(nil).Build(); err == nil {
		t.Error("Expected error without config")
	}

	dir := t.TempDir()
	vectorFile := writeFile(t, dir, "vectors.txt", "river 1 2\nshore 2 1\n")
	cfg := testConfig(t, vectorFile)

	if _, err := NewBuilder(cfg).WithStrategy("spectral").Build(); err == nil {
		t.Error("Expected error for unknown strategy")
	}

	cfg.Features.DropCount = 2
	_, err := NewBuilder(cfg).WithStrategy(strategy.NameSparse).WithLogger(quietLogger).Build()
	if !errors.Is(err, core.ErrInvalidDropCount) {
		t.Errorf("Expected ErrInvalidDropCount, got %v", err)
	}

	cfg.Features.DropCount = 1
	missing := filepath.Join(dir, "typo", "glove.db")
	cfg.Vectors.Dense = []string{missing}
	_, err = NewBuilder(cfg).WithStrategy(strategy.NameDense).WithLogger(quietLogger).Build()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected missing vector store error, got %v", err)
	}
	if errors.Is(err, core.ErrInvalidDropCount) {
		t.Errorf("Expected the missing store to be reported instead of the drop count, got %v", err)
	}
	if _, statErr := os.Stat(missing); !os.IsNotExist(statErr) {
		t.Errorf("Expected no store to be created at %s", missing)
	}
}
