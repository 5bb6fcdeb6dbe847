package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/medtracker/internal/domain/model"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Read or record past symptom checks",
	}
	cmd.AddCommand(newHistoryListCmd(opts), newHistoryAddCmd(opts))
	return cmd
}

func newHistoryListCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent checks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := opts.client().History(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			p := newPrinter(cmd)
			if opts.json {
				return p.json(entries)
			}
			if len(entries) == 0 {
				p.hintf("No history yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.When, e.Query, e.Top})
			}
			p.table([]string{"WHEN", "QUERY", "TOP"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max entries (default: server limit)")
	return cmd
}

func newHistoryAddCmd(opts *rootOptions) *cobra.Command {
	var entry model.HistoryEntry

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a check",
		Long: `Record a check in the server's history.

Examples:
  medtracker-cli history add --query "fever, cough" --top Influenza`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.client().AppendHistory(cmd.Context(), entry); err != nil {
				return fmt.Errorf("add history: %w", err)
			}
			p := newPrinter(cmd)
			if opts.json {
				return p.json(map[string]bool{"ok": true})
			}
			fmt.Fprintf(p.out, "Recorded %q\n", entry.Query)
			return nil
		},
	}
	cmd.Flags().StringVarP(&entry.Query, "query", "q", "", "symptoms that were checked")
	cmd.Flags().StringVar(&entry.Top, "top", "", "best matching condition")
	cmd.Flags().StringVar(&entry.When, "when", "", "timestamp (default: server time)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
