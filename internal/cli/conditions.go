package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newConditionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "conditions",
		Short: "List the conditions the server knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conds, err := opts.client().Conditions(cmd.Context())
			if err != nil {
				return fmt.Errorf("list conditions: %w", err)
			}
			p := newPrinter(cmd)
			if opts.json {
				return p.json(conds)
			}

			p.titlef("Conditions (%d)", len(conds))
			rows := make([][]string, 0, len(conds))
			for _, c := range conds {
				rows = append(rows, []string{c.ID, c.Name, strings.Join(c.Symptoms, ", ")})
			}
			p.table([]string{"ID", "NAME", "SYMPTOMS"}, rows)
			return nil
		},
	}
}
