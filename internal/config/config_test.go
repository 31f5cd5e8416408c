package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paracluster.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load(writeConfig(t, "app:\n  debug: false\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Features.DropCount != 35 {
		t.Errorf("Expected drop count 35, got %d", cfg.Features.DropCount)
	}
	if cfg.Random.Seed != 123 {
		t.Errorf("Expected random seed 123, got %d", cfg.Random.Seed)
	}
	if cfg.Strategies.Sparse.Algorithm != "meanshift" {
		t.Errorf("Expected sparse meanshift, got %s", cfg.Strategies.Sparse.Algorithm)
	}
	if cfg.Strategies.Dense.Algorithm != "dbscan" || cfg.DBSCAN.Eps != 20 || cfg.DBSCAN.MinSamples != 2 {
		t.Errorf("Unexpected dense settings: %+v %+v", cfg.Strategies.Dense, cfg.DBSCAN)
	}
	if cfg.Strategies.NoCount.Ceiling != 6 || cfg.Strategies.NoCount.KPolicy != "ceiling" {
		t.Errorf("Unexpected nocount settings: %+v", cfg.Strategies.NoCount)
	}
	if len(cfg.Vectors.NoCount) != 2 {
		t.Errorf("Expected two nocount vector sources, got %v", cfg.Vectors.NoCount)
	}
	if cfg.Output.NoCount != "test_output_nok.txt" {
		t.Errorf("Expected test_output_nok.txt, got %s", cfg.Output.NoCount)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	Reset()
	defer Reset()

	path := writeConfig(t, `
app:
  debug: true
features:
  drop_count: 10
  seed: 42
strategies:
  dense:
    algorithm: Ward
vectors:
  sparse:
    - a.txt
    - b.db
output:
  directory: out
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Features.DropCount != 10 || cfg.Features.Seed != 42 {
		t.Errorf("Unexpected features: %+v", cfg.Features)
	}
	if cfg.Strategies.Dense.Algorithm != "ward" {
		t.Errorf("Expected lower-cased algorithm, got %s", cfg.Strategies.Dense.Algorithm)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level in debug mode, got %s", cfg.Logging.Level)
	}
	if len(cfg.Vectors.Sparse) != 2 {
		t.Errorf("Expected two sparse sources, got %v", cfg.Vectors.Sparse)
	}
	if got := cfg.OutputPath("x.txt"); got != filepath.Join("out", "x.txt") {
		t.Errorf("Expected out/x.txt, got %s", got)
	}
	if cfg.App.ConfigFile != path {
		t.Errorf("Expected config file %s, got %s", path, cfg.App.ConfigFile)
	}
}

func TestLoadEnvironment(t *testing.T) {
	Reset()
	defer Reset()

	t.Setenv("PARACLUSTER_FEATURES_DROP_COUNT", "5")
	t.Setenv("PARACLUSTER_SEED", "7")

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Features.DropCount != 5 {
		t.Errorf("Expected drop count from env, got %d", cfg.Features.DropCount)
	}
	if cfg.Features.Seed != 7 {
		t.Errorf("Expected seed from env, got %d", cfg.Features.Seed)
	}
}

func TestValidateConfig(t *testing.T) {
	Reset()
	defer Reset()

	_, err := Load(writeConfig(t, `
features:
  drop_count: -1
strategies:
  sparse:
    algorithm: spectral
  nocount:
    ceiling: 0
dbscan:
  eps: 0
`))
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"drop_count", "spectral", "ceiling", "dbscan.eps"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got: %v", want, err)
		}
	}
}

func TestExpandPaths(t *testing.T) {
	t.Setenv("VEC_DIR", "/vec")
	got := expandPaths([]string{" $VEC_DIR/a.txt ", "", "b.txt"})
	if len(got) != 2 || got[0] != "/vec/a.txt" || got[1] != "b.txt" {
		t.Errorf("Unexpected paths: %v", got)
	}
}
