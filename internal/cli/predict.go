package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/medtracker/internal/domain/knowledge"
	"github.com/okian/medtracker/internal/domain/scoring"
)

func newPredictCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predict SYMPTOM...",
		Short: "Score symptoms on the server",
		Long: `Send symptoms to the server and print the best-matching conditions.

Examples:
  medtracker-cli predict fever cough
  medtracker-cli predict "sore throat, runny nose"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := opts.client().Predict(cmd.Context(), splitSymptoms(args))
			if err != nil {
				return fmt.Errorf("predict: %w", err)
			}
			p := newPrinter(cmd)
			if opts.json {
				return p.json(pred)
			}
			p.prediction(pred)
			return nil
		},
	}
}

func newScoreCmd(opts *rootOptions) *cobra.Command {
	var (
		kbPath string
		top    int
	)

	cmd := &cobra.Command{
		Use:   "score SYMPTOM...",
		Short: "Score symptoms locally without a server",
		Long: `Score symptoms against the built-in condition table, or a YAML
table given with --knowledge-base. No server is contacted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := knowledge.Load(kbPath)
			if err != nil {
				return fmt.Errorf("load knowledge base: %w", err)
			}
			scorer := scoring.NewScorer(kb.Conditions(), scoring.WithLimit(top))

			pred := scorer.PredictStrings(splitSymptoms(args))

			p := newPrinter(cmd)
			if opts.json {
				return p.json(pred)
			}
			p.prediction(pred)
			return nil
		},
	}
	cmd.Flags().StringVar(&kbPath, "knowledge-base", "", "YAML condition table (default: built-in)")
	cmd.Flags().IntVarP(&top, "top", "n", scoring.DefaultLimit, "number of conditions to show")
	return cmd
}
