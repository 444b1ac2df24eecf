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

// Moderator steers a debate round by handing each analyst a directive.
// Returning an empty map (or omitting an analyst) means the analyst
// falls back to its standing debate prompt.
type Moderator interface {
	Directives(ctx context.Context, req *models.Request, round int, positions Snapshot) map[string]string
}

const moderatorSystemPrompt = `You are an impartial investment-committee moderator. You do not hold
positions yourself. Given the analysts' current positions, your job is to sharpen the debate:
point each analyst at the strongest counterargument to their stance, the weakest link in their
own evidence, or a peer's claim they have not addressed. Be specific and brief.`

// LLMModerator asks the completion service for per-analyst directives.
// Any failure degrades to no directives; debates never stall on the
// moderator.
type LLMModerator struct {
	completer llm.Completer
	logger    *zap.Logger
}

func NewLLMModerator(completer llm.Completer, logger *zap.Logger) *LLMModerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMModerator{completer: completer, logger: logger.Named("moderator")}
}

func (m *LLMModerator) Directives(ctx context.Context, req *models.Request, round int, positions Snapshot) map[string]string {
	content, err := m.completer.Complete(ctx, []*schema.Message{
		schema.SystemMessage(moderatorSystemPrompt),
		schema.UserMessage(m.roundBlock(req, round, positions)),
	})
	if err != nil {
		m.logger.Warn("moderator unavailable, using standing prompts", zap.Int("round", round), zap.Error(err))
		return nil
	}
	directives := parseDirectives(content)
	if len(directives) == 0 {
		m.logger.Warn("moderator returned no usable directives", zap.Int("round", round))
	}
	return directives
}

func (m *LLMModerator) roundBlock(req *models.Request, round int, positions Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s (round %d)\n\nCurrent positions:\n", req.Symbol, round)

	names := make([]string, 0, len(positions))
	for name := range positions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := positions[name]
		fmt.Fprintf(&b, "\n%s: %s (conviction %.2f)\nThesis: %s\nEvidence:\n%s",
			name, p.Action, p.Conviction, p.Thesis, bulletList(p.Evidence))
	}

	b.WriteString(`
Return a JSON object mapping each analyst name to a one- or two-sentence directive for this
round. Use the analyst names exactly as given. No Markdown fences.`)
	return b.String()
}

// parseDirectives tolerates fenced output and stray prose around the
// JSON object, mirroring how analyst responses are rescued.
func parseDirectives(content string) map[string]string {
	raw := extractJSON(content)
	if raw == nil {
		return nil
	}
	directives := make(map[string]string, len(raw))
	for name, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			directives[name] = strings.TrimSpace(s)
		}
	}
	return directives
}
