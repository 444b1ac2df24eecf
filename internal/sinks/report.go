package sinks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lumenfin/CouncilGo/internal/models"
)

// WriteDecisionReport renders a decision as a human-readable markdown
// report under dir and returns the file path. Reports are for people;
// the JSON signal stays the machine contract.
func WriteDecisionReport(dir string, d *models.Decision) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s_report.md",
		strings.ToLower(d.Symbol), d.GeneratedAt.UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(renderReport(d)), 0o644); err != nil {
		return "", fmt.Errorf("write report for %s: %w", d.Symbol, err)
	}
	return path, nil
}

func renderReport(d *models.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s (%.2f)\n\n", d.Symbol, d.Recommendation, d.Confidence)
	fmt.Fprintf(&b, "Horizon: %s  \nGenerated: %s\n\n", d.Horizon, d.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	if len(d.PolicyFlags) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n\n", strings.Join(d.PolicyFlags, ", "))
	}

	b.WriteString("## Rationale\n\n")
	b.WriteString(d.Rationale)
	b.WriteString("\n\n## Bench\n\n")

	names := make([]string, 0, len(d.Proposals))
	for name := range d.Proposals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := d.Proposals[name]
		fmt.Fprintf(&b, "### %s: %s (%.2f)\n\n%s\n\n", name, p.EffectiveAction(), p.Conviction, p.Thesis)
		if len(p.Evidence) > 0 {
			b.WriteString("Evidence:\n")
			for _, e := range p.Evidence {
				fmt.Fprintf(&b, "- %s\n", e)
			}
			b.WriteString("\n")
		}
		if len(p.Caveats) > 0 {
			b.WriteString("Caveats:\n")
			for _, c := range p.Caveats {
				fmt.Fprintf(&b, "- %s\n", c)
			}
			b.WriteString("\n")
		}
	}

	if d.Debate != nil {
		b.WriteString("## Debate\n\n")
		status := "stopped at the round cap"
		if d.Debate.Converged {
			status = "converged"
		}
		fmt.Fprintf(&b, "%d round(s), %s. %d analyst(s) changed action, total conviction shift %.2f.\n\n",
			d.Debate.RoundsExecuted(), status, d.Debate.AgentsChangedAction, d.Debate.TotalConvictionShift)
		for _, round := range d.Debate.Rounds {
			fmt.Fprintf(&b, "### Round %d\n\n", round.Round)
			for _, change := range round.Changes {
				fmt.Fprintf(&b, "- %s: %s %.2f -> %s %.2f (%s)\n",
					change.Agent, change.BeforeAction, change.BeforeConviction,
					change.AfterAction, change.AfterConviction, change.ChangeKind)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
