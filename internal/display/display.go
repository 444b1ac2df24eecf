// Package display renders decisions and debate records for the
// terminal.
package display

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumenfin/CouncilGo/internal/models"
	"github.com/lumenfin/CouncilGo/internal/storage/sqlite"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)

	buyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	sellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	holdStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Italic(true)
)

func actionStyle(action string) lipgloss.Style {
	switch action {
	case models.ActionBuy:
		return buyStyle
	case models.ActionSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// RenderDecision formats the fused decision as the main result panel.
func RenderDecision(d *models.Decision) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n\n",
		titleStyle.Render(d.Symbol),
		dimStyle.Render("horizon "+d.Horizon))
	fmt.Fprintf(&b, "Recommendation: %s   Confidence: %.2f\n",
		actionStyle(d.Recommendation).Render(d.Recommendation), d.Confidence)
	if len(d.PolicyFlags) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n", flagStyle.Render(strings.Join(d.PolicyFlags, ", ")))
	}
	fmt.Fprintf(&b, "\n%s\n", d.Rationale)

	if len(d.Proposals) > 0 {
		b.WriteString("\nBench:\n")
		names := make([]string, 0, len(d.Proposals))
		for name := range d.Proposals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := d.Proposals[name]
			marker := ""
			if p.Neutral {
				marker = dimStyle.Render(" (neutral)")
			}
			fmt.Fprintf(&b, "  %-12s %s %.2f%s\n",
				name, actionStyle(p.EffectiveAction()).Render(p.EffectiveAction()), p.Conviction, marker)
		}
	}

	if d.Debate != nil {
		b.WriteString("\n" + renderDebateSummary(d.Debate))
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderDebateSummary(debate *models.DebateOutcome) string {
	status := "stopped at round cap"
	if debate.Converged {
		status = "converged"
	}
	return fmt.Sprintf("Debate: %d round(s), %s, %d action change(s), conviction shift %.2f",
		debate.RoundsExecuted(), status, debate.AgentsChangedAction, debate.TotalConvictionShift)
}

// RenderDebate formats the full round-by-round debate record.
func RenderDebate(debate *models.DebateOutcome) string {
	if debate == nil || debate.RoundsExecuted() == 0 {
		return dimStyle.Render("No debate was held.")
	}

	var b strings.Builder
	for _, round := range debate.Rounds {
		fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("Round %d", round.Round)))
		for _, change := range round.Changes {
			arrow := fmt.Sprintf("%s %.2f -> %s %.2f",
				change.BeforeAction, change.BeforeConviction,
				change.AfterAction, change.AfterConviction)
			if change.Changed() {
				fmt.Fprintf(&b, "  %-12s %s (%s)\n", change.Agent, arrow, change.ChangeKind)
			} else {
				fmt.Fprintf(&b, "  %-12s %s\n", change.Agent, dimStyle.Render(arrow+" (held)"))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(renderDebateSummary(debate))
	return strings.TrimRight(b.String(), "\n")
}

// RenderHistory formats stored decision rows as a compact table.
func RenderHistory(records []*sqlite.DecisionRecord) string {
	if len(records) == 0 {
		return dimStyle.Render("No stored decisions.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-12s %-6s %-10s %-6s %s\n",
		"symbol", "date", "rec", "confidence", "rounds", "run")
	for _, rec := range records {
		fmt.Fprintf(&b, "%-10s %-12s %-6s %-10.2f %-6d %s\n",
			rec.Symbol, rec.TradeDate,
			actionStyle(rec.Recommendation).Render(rec.Recommendation),
			rec.Confidence, rec.DebateRounds, rec.RunID)
	}
	return strings.TrimRight(b.String(), "\n")
}
