package quality

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"paracluster/internal/core"
)

func clusterings(entries map[string]core.Partition, order ...string) *core.Clusterings {
	c := core.NewClusterings()
	for _, word := range order {
		c.Set(word, entries[word])
	}
	return c
}

func TestEvaluate(t *testing.T) {
	gold := clusterings(map[string]core.Partition{
		"bank":   {{"river", "shore"}, {"money", "loan"}},
		"bright": {{"shiny"}, {"clever", "smart"}, {"vivid"}, {"sunny"}},
		"crane":  {{"bird", "heron"}},
	}, "bank", "bright", "crane")
	predicted := clusterings(map[string]core.Partition{
		"bright": {{"shiny", "vivid"}, {"clever", "smart", "sunny"}},
		"bank":   {{"river", "shore"}, {"money", "loan"}},
		"extra":  {{"x"}},
	}, "bright", "bank", "extra")

	report, err := Evaluate(gold, predicted)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if len(report.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(report.Rows))
	}
	if report.Rows[0].Word != "bank" || report.Rows[1].Word != "bright" {
		t.Errorf("Expected gold order, got %s, %s", report.Rows[0].Word, report.Rows[1].Word)
	}
	if report.Rows[0].FScore != 1 {
		t.Errorf("Expected bank F-score 1, got %f", report.Rows[0].FScore)
	}
	if report.Rows[1].GoldK != 4 || report.Rows[1].PredictedK != 2 {
		t.Errorf("Unexpected cluster counts: %+v", report.Rows[1])
	}

	// bright: gold pairs {clever,smart}; predicted pairs {shiny,vivid},{clever,smart},{clever,sunny},{smart,sunny}
	brightF := 2 * 0.25 * 1 / 1.25
	expected := (1*2 + brightF*4) / 6
	if math.Abs(report.Average-expected) > epsilon {
		t.Errorf("Expected average %f, got %f", expected, report.Average)
	}
	if len(report.Unmatched) != 1 || report.Unmatched[0] != "crane" {
		t.Errorf("Expected crane unmatched, got %v", report.Unmatched)
	}
	if report.RunID == "" {
		t.Error("Expected run id")
	}
}

func TestEvaluateNoOverlap(t *testing.T) {
	gold := clusterings(map[string]core.Partition{"bank": {{"river"}}}, "bank")
	predicted := clusterings(map[string]core.Partition{"crane": {{"bird"}}}, "crane")

	report, err := Evaluate(gold, predicted)
	if !errors.Is(err, core.ErrNoOverlap) {
		t.Errorf("Expected ErrNoOverlap, got %v", err)
	}
	if report != nil {
		t.Error("Expected no report")
	}
}

func TestPrintReport(t *testing.T) {
	gold := clusterings(map[string]core.Partition{"bank": {{"a", "b"}, {"c", "d"}}}, "bank")
	predicted := clusterings(map[string]core.Partition{"bank": {{"a", "b", "c"}, {"d"}}}, "bank")

	report, err := Evaluate(gold, predicted)
	if err != nil {
		t.Fatal(err)
	}
	report.Strategy = "random"

	var buf bytes.Buffer
	report.PrintReport(&buf)
	out := buf.String()
	for _, want := range []string{"PAIRED F-SCORE REPORT: random", "Paired F-Score", "bank", "0.4000", "Weighted average"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestWriteAndLoadReport(t *testing.T) {
	gold := clusterings(map[string]core.Partition{"bank": {{"a", "b"}, {"c", "d"}}}, "bank")
	predicted := clusterings(map[string]core.Partition{"bank": {{"a", "b", "c"}, {"d"}}}, "bank")
	report, err := Evaluate(gold, predicted)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"report.yaml", "nested/report.json"} {
		path := filepath.Join(t.TempDir(), name)
		if err := WriteReport(path, report); err != nil {
			t.Fatalf("WriteReport(%s) failed: %v", name, err)
		}
		loaded, err := LoadReport(path)
		if err != nil {
			t.Fatalf("LoadReport(%s) failed: %v", name, err)
		}
		if loaded.RunID != report.RunID || len(loaded.Rows) != 1 {
			t.Errorf("%s: unexpected report %+v", name, loaded)
		}
		if math.Abs(loaded.Rows[0].FScore-0.4) > epsilon {
			t.Errorf("%s: expected F-score 0.4, got %f", name, loaded.Rows[0].FScore)
		}
	}
}
