package handlers

import (
	"errors"
	"fmt"
	"path/filepath"

	"paracluster/internal/core"
	"paracluster/internal/parser"
	"paracluster/internal/quality"
	"github.com/spf13/cobra"
)

// NewEvaluateCmd creates the evaluate command
func NewEvaluateCmd() *cobra.Command {
	var goldFile, predictedFile, reportFile string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score predicted clusterings against gold clusterings",
		Long: `Compare predicted clusterings with gold clusterings using the paired F-score.

Only target words present in both files are scored. Each word is weighted by its
number of gold clusters. When the files share no target word nothing is scored.

Examples:
  # Score the sparse development run
  paracluster evaluate --gold data/dev_output.txt --predicted dev_output_sparse.txt

  # Save the report as JSON
  paracluster evaluate -g data/dev_output.txt -p dev_output_sparse.txt --report reports/sparse.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return evaluateRun(cmd, goldFile, predictedFile, reportFile)
		},
	}

	cmd.Flags().StringVarP(&goldFile, "gold", "g", "", "Gold clusterings file")
	cmd.Flags().StringVarP(&predictedFile, "predicted", "p", "", "Predicted clusterings file")
	cmd.Flags().StringVarP(&reportFile, "report", "r", "", "Write the report (.yaml or .json)")
	_ = cmd.MarkFlagRequired("gold")
	_ = cmd.MarkFlagRequired("predicted")

	return cmd
}

func evaluateRun(cmd *cobra.Command, goldFile, predictedFile, reportFile string) error {
	out := cmd.OutOrStdout()
	p := parser.NewParser()

	gold, err := p.LoadClusteringsFile(goldFile)
	if err != nil {
		return fmt.Errorf("failed to load gold: %w", err)
	}
	predicted, err := p.LoadClusteringsFile(predictedFile)
	if err != nil {
		return fmt.Errorf("failed to load prediction: %w", err)
	}

	report, err := quality.Evaluate(gold, predicted)
	if errors.Is(err, core.ErrNoOverlap) {
		fmt.Fprintf(out, "⚠️  %s and %s share no target word; nothing to score\n", goldFile, predictedFile)
		return nil
	}
	if err != nil {
		return err
	}
	report.Strategy = filepath.Base(predictedFile)
	report.PrintReport(out)

	if reportFile != "" {
		if err := quality.WriteReport(reportFile, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n✓ Report saved to %s\n", reportFile)
	}
	return nil
}
