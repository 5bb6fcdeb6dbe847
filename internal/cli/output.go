package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/okian/medtracker/internal/domain/model"
)

// printer renders command output. Styles degrade to plain text when the
// writer is not a terminal.
type printer struct {
	out   io.Writer
	title lipgloss.Style
	hint  lipgloss.Style
	score lipgloss.Style
}

func newPrinter(cmd *cobra.Command) *printer {
	out := cmd.OutOrStdout()
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:   out,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7")),
		hint:  r.NewStyle().Faint(true).Italic(true),
		score: r.NewStyle().Foreground(lipgloss.Color("#00D787")),
	}
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) titlef(format string, args ...any) {
	fmt.Fprintln(p.out, p.title.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) hintf(format string, args ...any) {
	fmt.Fprintln(p.out, p.hint.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
}

func (p *printer) prediction(pred model.Prediction) {
	if len(pred.Input) == 0 {
		p.hintf("No usable symptoms after normalization.")
	} else {
		p.titlef("Symptoms: %s", strings.Join(pred.Input, ", "))
	}

	rows := make([][]string, 0, len(pred.Scored))
	for i, c := range pred.Scored {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(c.Score, 'f', 2, 64),
			fmt.Sprintf("%d/%d", c.MatchCount, len(c.Symptoms)),
			c.Name,
		})
	}
	p.table([]string{"RANK", "SCORE", "MATCH", "CONDITION"}, rows)

	if len(pred.Scored) > 0 && pred.Scored[0].Score > 0 {
		top := pred.Scored[0]
		fmt.Fprintln(p.out)
		fmt.Fprintf(p.out, "Best match: %s (%s)\n", top.Name, p.score.Render(strconv.Itoa(int(top.Score*100))+"%"))
		if len(top.Meds) > 0 {
			fmt.Fprintf(p.out, "Supportive care: %s\n", strings.Join(top.Meds, ", "))
		}
	}
	p.hintf("Informational only, not a diagnosis.")
}
