package agents

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lumenfin/CouncilGo/internal/models"
)

// ParseProposal coerces loosely structured model output into a strict
// proposal. It never returns an error: anything unparseable degrades to
// a HOLD/0-conviction proposal carrying the raw text as thesis, which
// the evidence policy then forces neutral.
func ParseProposal(agent, content string) *models.Proposal {
	payload := extractJSON(content)
	if payload == nil {
		p := models.NewProposal(agent, models.ActionHold, 0.0, strings.TrimSpace(content), nil, nil)
		p.RawResponse = content
		return p
	}

	p := models.NewProposal(
		agent,
		coerceString(payload["action"], models.ActionHold),
		coerceFloat(payload["conviction"]),
		strings.TrimSpace(coerceString(payload["thesis"], "")),
		coerceStringList(payload["evidence"]),
		coerceStringList(payload["caveats"]),
	)
	p.RawResponse = content
	return p
}

// extractJSON tries the raw text, then a code-fence unwrap, then the
// outermost brace span. Returns nil when no object can be decoded.
func extractJSON(content string) map[string]any {
	candidates := []string{content, unwrapCodeFence(content)}
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start != -1 && end > start {
		candidates = append(candidates, content[start:end+1])
	}
	for _, candidate := range candidates {
		var payload map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &payload); err == nil {
			return payload
		}
	}
	return nil
}

func unwrapCodeFence(text string) string {
	stripped := strings.TrimSpace(text)
	if !strings.HasPrefix(stripped, "```") {
		return stripped
	}
	lines := strings.Split(stripped, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func coerceString(v any, fallback string) string {
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) != "" {
			return s
		}
	case fmt.Stringer:
		return s.String()
	}
	return fallback
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return 0.0
}

func coerceStringList(v any) []string {
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				if strings.TrimSpace(s) != "" {
					out = append(out, s)
				}
				continue
			}
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		if strings.TrimSpace(list) != "" {
			return []string{strings.TrimSpace(list)}
		}
	}
	return nil
}
