package handlers

import (
	"fmt"

	"paracluster/internal/config"
	"paracluster/internal/similarity"
	"paracluster/internal/vectorstore"
	"github.com/spf13/cobra"
)

// NewCorrelateCmd creates the word similarity correlation command
func NewCorrelateCmd() *cobra.Command {
	var pairsFile string
	var vectorPaths []string
	var top int
	var skipMissing bool

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Correlate embedding cosine similarity with human similarity judgements",
		Long: `Score every word pair of a SimLex-999 style file (tab separated, header with word1,
word2 and SimLex999 columns) with the cosine similarity of each embedding source and
report Kendall's tau against the human scores.

Examples:
  # Use the pairs and vectors from config
  paracluster correlate

  # Compare two sources, ignoring pairs with unknown words
  paracluster correlate --vectors vectors/coocvec.txt --vectors vectors/glove.db --skip-missing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if pairsFile == "" {
				pairsFile = cfg.Similarity.Pairs
			}
			if len(vectorPaths) == 0 {
				vectorPaths = cfg.Similarity.Vectors
			}
			if !cmd.Flags().Changed("top") && cfg.Similarity.Top > 0 {
				top = cfg.Similarity.Top
			}
			return correlateRun(cmd, pairsFile, vectorPaths, top, skipMissing)
		},
	}

	cmd.Flags().StringVar(&pairsFile, "pairs", "", "Word pair judgements (default from config)")
	cmd.Flags().StringArrayVar(&vectorPaths, "vectors", nil, "Embedding source, repeatable (default from config)")
	cmd.Flags().IntVar(&top, "top", 5, "Number of most and least similar pairs to show")
	cmd.Flags().BoolVar(&skipMissing, "skip-missing", false, "Leave out pairs with a word missing from the vectors")

	return cmd
}

func correlateRun(cmd *cobra.Command, pairsFile string, vectorPaths []string, top int, skipMissing bool) error {
	out := cmd.OutOrStdout()

	pairs, err := similarity.LoadPairs(pairsFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "📚 Loaded %d word pairs from %s\n\n", len(pairs), pairsFile)

	var results []*similarity.Correlation
	for _, path := range vectorPaths {
		src, err := vectorstore.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open vectors %s: %w", path, err)
		}
		c, err := similarity.Correlate(pairs, src, similarity.Options{SkipMissing: skipMissing})
		_ = vectorstore.Close(src)
		if err != nil {
			return err
		}
		similarity.PrintCorrelation(out, c, top)
		fmt.Fprintln(out)
		results = append(results, c)
	}

	if len(results) > 1 {
		fmt.Fprintln(out, similarity.SummaryTable(results))
	}
	return nil
}
