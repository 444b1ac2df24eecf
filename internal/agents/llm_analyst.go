package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/lumenfin/CouncilGo/internal/llm"
	"github.com/lumenfin/CouncilGo/internal/models"
)

// DataTool is an opaque market-data capability. Failures are reported
// in-line in the prompt text, never escalated.
type DataTool struct {
	Name  string
	Fetch func(ctx context.Context, symbol, date string) (string, error)
}

// LLMAnalyst is the standard analyst: it optionally grounds itself in
// data-tool output, asks the completion service for a JSON opinion, and
// coerces whatever comes back into a policy-compliant proposal.
type LLMAnalyst struct {
	profile   Profile
	completer llm.Completer
	tools     []DataTool
	logger    *zap.Logger
}

func NewLLMAnalyst(profile Profile, completer llm.Completer, tools []DataTool, logger *zap.Logger) *LLMAnalyst {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAnalyst{
		profile:   profile,
		completer: completer,
		tools:     tools,
		logger:    logger.With(zap.String("analyst", profile.Name)),
	}
}

func (a *LLMAnalyst) Name() string { return a.profile.Name }

func (a *LLMAnalyst) Weight() float64 {
	if a.profile.Weight <= 0 {
		return 1.0
	}
	return a.profile.Weight
}

// DebatePrompt is the standing directive used when no moderator
// overrides it for a round.
func (a *LLMAnalyst) DebatePrompt() string { return a.profile.DebatePrompt }

func (a *LLMAnalyst) Propose(ctx context.Context, req *models.Request, peers Snapshot) (*models.Proposal, error) {
	marketData := a.fetchData(ctx, req)
	messages := []*schema.Message{
		schema.SystemMessage(a.profile.SystemPrompt),
		schema.UserMessage(a.requestBlock(req, peers, marketData)),
	}
	content, err := a.completer.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("analyst %s propose: %w", a.profile.Name, err)
	}
	p := ParseProposal(a.profile.Name, content)
	a.logger.Debug("proposal produced",
		zap.String("action", p.Action),
		zap.Float64("conviction", p.Conviction),
		zap.Bool("neutral", p.Neutral))
	return p, nil
}

func (a *LLMAnalyst) Revise(ctx context.Context, req *models.Request, prior *models.Proposal, peers Snapshot, directive string) (*models.Proposal, error) {
	priorText := prior.RawResponse
	if strings.TrimSpace(priorText) == "" {
		priorText = prior.Thesis
	}
	messages := []*schema.Message{
		schema.SystemMessage(a.profile.SystemPrompt),
		schema.UserMessage(a.requestBlock(req, peers, "")),
		schema.AssistantMessage(priorText, nil),
		schema.UserMessage(a.debateBlock(prior, peers, directive)),
	}
	content, err := a.completer.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("analyst %s revise: %w", a.profile.Name, err)
	}
	p := ParseProposal(a.profile.Name, content)
	a.logger.Debug("proposal revised",
		zap.String("action", p.Action),
		zap.Float64("conviction", p.Conviction))
	return p, nil
}

// fetchData runs every data tool; a failed tool contributes an error
// line instead of aborting the analysis.
func (a *LLMAnalyst) fetchData(ctx context.Context, req *models.Request) string {
	if len(a.tools) == 0 {
		return ""
	}
	parts := make([]string, 0, len(a.tools))
	for _, tool := range a.tools {
		data, err := tool.Fetch(ctx, req.Symbol, req.TradeDate())
		if err != nil {
			a.logger.Warn("data tool failed", zap.String("tool", tool.Name), zap.Error(err))
			parts = append(parts, fmt.Sprintf("%s: data unavailable (%v)", tool.Name, err))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:\n%s", tool.Name, data))
	}
	return strings.Join(parts, "\n\n")
}

func (a *LLMAnalyst) requestBlock(req *models.Request, peers Snapshot, marketData string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Focus ticker: %s\n", req.Symbol)
	fmt.Fprintf(&b, "Horizon: %s\n", req.Horizon)
	fmt.Fprintf(&b, "Market context: %s\n\n", req.MarketContext)

	if marketData != "" {
		b.WriteString("=== REAL MARKET DATA ===\n")
		b.WriteString(marketData)
		b.WriteString("\n=== END OF MARKET DATA ===\n\n")
	}

	b.WriteString("Peer snapshot:\n")
	b.WriteString(peers.Summary())
	b.WriteString("\n\n")

	b.WriteString(`Produce a JSON object with keys:
  action: BUY/SELL/HOLD recommendation string
  conviction: float 0-1 for confidence (see scale below)
  thesis: brief paragraph summary
  evidence: array of 2-4 specific bullet strings citing data/reports
  caveats: array of risk warnings

Conviction Scale (IMPORTANT - use full range):
  0.90-1.00: Exceptional conviction - multiple strong signals align, low downside risk
  0.75-0.89: High conviction - clear directional signals with solid evidence
  0.60-0.74: Moderate conviction - favorable setup but some uncertainty remains
  0.45-0.59: Low conviction - weak signals or mixed evidence
  0.20-0.44: Very low conviction - highly uncertain or contradictory data
  0.00-0.19: No conviction - insufficient data or neutral stance

Guidance:
  - Default to BUY or SELL. Return HOLD only if evidence is genuinely contradictory or
    insufficient to justify an entry.
  - Tie each evidence bullet to concrete data (price levels, volume %, revenue figures, etc.).
  - Base conviction STRICTLY on evidence strength.
  - Keep responses concise and free of Markdown fences.`)
	return b.String()
}

func (a *LLMAnalyst) debateBlock(prior *models.Proposal, peers Snapshot, directive string) string {
	var b strings.Builder
	b.WriteString("=== DEBATE ROUND ===\n\n")
	b.WriteString("YOUR ORIGINAL POSITION:\n")
	fmt.Fprintf(&b, "Action: %s\n", prior.Action)
	fmt.Fprintf(&b, "Conviction: %.2f\n", prior.Conviction)
	fmt.Fprintf(&b, "Thesis: %s\n", prior.Thesis)
	b.WriteString("Evidence:\n")
	b.WriteString(bulletList(prior.Evidence))
	b.WriteString("Caveats:\n")
	b.WriteString(bulletList(prior.Caveats))
	b.WriteString("\n")

	b.WriteString(a.peerPositions(prior, peers))
	b.WriteString("\n\nDEBATE DIRECTIVE:\n")
	b.WriteString(directive)
	b.WriteString("\n\n")

	b.WriteString(`YOUR TASK:
1. Review opposing arguments and their specific evidence
2. Address each key counterargument directly
3. Strengthen your position OR revise if opposing evidence is compelling
4. Update your conviction based on debate quality:
   - If your evidence withstands scrutiny, maintain or increase conviction
   - If opponents raise valid concerns, reduce conviction
   - If arguments are balanced, move toward HOLD

Return updated JSON with conviction adjusted based on debate strength.`)
	return b.String()
}

// peerPositions groups peers into opposing and supporting camps so the
// analyst focuses its rebuttal where the conflict actually is.
func (a *LLMAnalyst) peerPositions(prior *models.Proposal, peers Snapshot) string {
	if len(peers) == 0 {
		return "No peer positions available."
	}

	names := make([]string, 0, len(peers))
	for name := range peers {
		names = append(names, name)
	}
	sort.Strings(names)

	myAction := prior.Action
	var opposing, supporting []string
	for _, name := range names {
		peer := peers[name]
		if peer.Agent == a.profile.Name {
			continue
		}
		if peer.Action != myAction && peer.Action != models.ActionHold && myAction != models.ActionHold {
			block := fmt.Sprintf("\n%s argues for %s (conviction: %.2f):\n  Thesis: %s\n  Evidence:\n%s",
				name, peer.Action, peer.Conviction, peer.Thesis, bulletList(peer.Evidence))
			opposing = append(opposing, block)
			continue
		}
		supporting = append(supporting, fmt.Sprintf("  - %s: %s (conviction: %.2f)", name, peer.Action, peer.Conviction))
	}

	var b strings.Builder
	if len(opposing) > 0 {
		b.WriteString("OPPOSING POSITIONS (focus your rebuttal here):")
		for _, block := range opposing {
			b.WriteString(block)
		}
	}
	if len(supporting) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("SUPPORTING POSITIONS:\n")
		b.WriteString(strings.Join(supporting, "\n"))
	}
	if b.Len() == 0 {
		return "No peer positions available."
	}
	return b.String()
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "  (none provided)\n"
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "  - %s\n", item)
	}
	return b.String()
}
