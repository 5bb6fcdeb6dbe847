// Package cli provides the command-line interface for medtracker.
package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/medtracker/internal/client"
)

// Version is set at build time.
var Version = "0.1.0" //nolint:gochecknoglobals // overridden via -ldflags

// EnvURL overrides the default server URL.
const EnvURL = "MEDTRACKER_URL"

type rootOptions struct {
	url     string
	timeout time.Duration
	json    bool
}

// NewRootCommand builds the medtracker-cli command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "medtracker-cli",
		Short: "Symptom checker client",
		Long: `medtracker-cli talks to a running medtracker server.

It scores symptoms, lists known conditions, reads and records history,
and searches for care facilities near a point. The score command works
offline against the built-in condition table.

Results are informational only and are not a diagnosis.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	url := os.Getenv(EnvURL)
	if url == "" {
		url = client.DefaultBaseURL
	}
	cmd.PersistentFlags().StringVar(&opts.url, "url", url, "server base URL (env "+EnvURL+")")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "request timeout")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON")

	cmd.AddCommand(
		newPredictCmd(opts),
		newScoreCmd(opts),
		newConditionsCmd(opts),
		newHistoryCmd(opts),
		newNearbyCmd(opts),
	)
	return cmd
}

// Execute runs the CLI with the given arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (o *rootOptions) client() *client.Client {
	return client.New(client.WithBaseURL(o.url), client.WithTimeout(o.timeout))
}

// splitSymptoms accepts both separate arguments and comma-separated lists.
func splitSymptoms(args []string) []string {
	var out []string
	for _, a := range args {
		for _, p := range strings.Split(a, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
