package quality

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"

	"paracluster/internal/core"
)

// Row is the comparison of one target word.
type Row struct {
	Word       string `json:"word" yaml:"word"`
	GoldK      int    `json:"gold_k" yaml:"gold_k"`
	PredictedK int    `json:"predicted_k" yaml:"predicted_k"`
	Score      `yaml:",inline"`
}

// Report is the outcome of comparing a predicted clustering file to gold.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Strategy  string    `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Rows      []Row     `json:"rows" yaml:"rows"`
	Average   float64   `json:"weighted_average" yaml:"weighted_average"`
	Unmatched []string  `json:"unmatched,omitempty" yaml:"unmatched,omitempty"` // gold words without a prediction
}

// Evaluate scores every target word present in both gold and predicted, in gold order,
// and weights each by its number of gold clusters. Words missing from either side are
// left out; when none remain it returns ErrNoOverlap.
func Evaluate(gold, predicted *core.Clusterings) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}

	var scores []float64
	var weights []int
	for _, word := range gold.Words() {
		g, _ := gold.Get(word)
		p, ok := predicted.Get(word)
		if !ok {
			report.Unmatched = append(report.Unmatched, word)
			continue
		}

		s := PairedScores(g, p)
		report.Rows = append(report.Rows, Row{
			Word:       word,
			GoldK:      len(g),
			PredictedK: len(p),
			Score:      s,
		})
		scores = append(scores, s.FScore)
		weights = append(weights, len(g))
	}

	if len(report.Rows) == 0 {
		return nil, fmt.Errorf("%w (%d gold, %d predicted)", core.ErrNoOverlap, gold.Len(), predicted.Len())
	}

	avg, err := WeightedAverage(scores, weights)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scores: %w", err)
	}
	report.Average = avg
	return report, nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Table renders the per-word scores with the weighted average as the last row.
func (r *Report) Table() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Target", "k", "Predicted k", "Precision", "Recall", "Paired F-Score").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, row := range r.Rows {
		t.Row(
			row.Word,
			fmt.Sprintf("%d", row.GoldK),
			fmt.Sprintf("%d", row.PredictedK),
			fmt.Sprintf("%.4f", row.Precision),
			fmt.Sprintf("%.4f", row.Recall),
			fmt.Sprintf("%.4f", row.FScore),
		)
	}
	t.Row("Weighted average", "", "", "", "", fmt.Sprintf("%.4f", r.Average))
	return t.String()
}

// PrintReport writes the score table and a summary to w.
func (r *Report) PrintReport(w io.Writer) {
	rule := strings.Repeat("=", 60)
	title := "PAIRED F-SCORE REPORT"
	if r.Strategy != "" {
		title += ": " + r.Strategy
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, r.Table())
	fmt.Fprintf(w, "Words scored: %d\n", len(r.Rows))
	fmt.Fprintf(w, "Weighted paired F-score: %.4f\n", r.Average)
	fmt.Fprintf(w, "Grade: %s\n", DefaultGradeThresholds().Grade(r.Average))
	if len(r.Unmatched) > 0 {
		fmt.Fprintf(w, "\n⚠️  %d gold words had no prediction: %s\n",
			len(r.Unmatched), strings.Join(r.Unmatched, ", "))
	}
	fmt.Fprintln(w, rule)
}
