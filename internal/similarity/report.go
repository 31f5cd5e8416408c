package similarity

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// SummaryTable renders one row per correlation.
func SummaryTable(correlations []*Correlation) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Vectors", "Pairs", "Skipped", "Kendall tau", "p value")
	for _, c := range correlations {
		t.Row(
			c.Source,
			fmt.Sprintf("%d", len(c.Pairs)),
			fmt.Sprintf("%d", len(c.Skipped)),
			fmt.Sprintf("%.4f", c.Tau),
			fmt.Sprintf("%.4g", c.PValue),
		)
	}
	return t.String()
}

// PrintCorrelation writes the correlation and the most and least similar pairs by human
// and by vector score.
func PrintCorrelation(w io.Writer, c *Correlation, top int) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "WORD SIMILARITY: %s\n", c.Source)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Correlation = %.4f, P Value = %.4g (%d pairs", c.Tau, c.PValue, len(c.Pairs))
	if len(c.Skipped) > 0 {
		fmt.Fprintf(w, ", %d skipped", len(c.Skipped))
	}
	fmt.Fprintln(w, ")")

	sections := []struct {
		title string
		pairs []ScoredPair
	}{
		{"Least similar by human score", c.LeastSimilar(top, false)},
		{"Least similar by vector score", c.LeastSimilar(top, true)},
		{"Most similar by human score", c.MostSimilar(top, false)},
		{"Most similar by vector score", c.MostSimilar(top, true)},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n%s:\n", s.title)
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Word 1", "Word 2", "Human", "Vector")
		for _, p := range s.pairs {
			t.Row(p.Word1, p.Word2, fmt.Sprintf("%.2f", p.Human), fmt.Sprintf("%.4f", p.Vector))
		}
		fmt.Fprintln(w, t.String())
	}
	fmt.Fprintln(w, rule)
}
