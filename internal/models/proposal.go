package models

import "strings"

// Recommendation actions. Anything an analyst returns is normalized
// onto one of these three values.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// NeutralConvictionCap is the highest conviction an evidence-free
// proposal is allowed to keep.
const NeutralConvictionCap = 0.3

// Proposal is one analyst's structured opinion for one request.
// A proposal is created fresh per analyst call and never mutated
// afterwards; revisions during debate produce new Proposal values.
type Proposal struct {
	Agent       string   `json:"agent"`
	Action      string   `json:"action"`
	Conviction  float64  `json:"conviction"`
	Thesis      string   `json:"thesis"`
	Evidence    []string `json:"evidence"`
	Caveats     []string `json:"caveats"`
	Neutral     bool     `json:"neutral"`
	RawResponse string   `json:"raw_response,omitempty"`
}

// NewProposal constructs a proposal and applies policy compliance:
// the action is upper-cased, conviction is clamped to [0,1], and an
// evidence-free proposal is forced neutral (HOLD, conviction capped).
func NewProposal(agent, action string, conviction float64, thesis string, evidence, caveats []string) *Proposal {
	p := &Proposal{
		Agent:      agent,
		Action:     strings.ToUpper(strings.TrimSpace(action)),
		Conviction: conviction,
		Thesis:     thesis,
		Evidence:   evidence,
		Caveats:    caveats,
	}
	p.ensurePolicyCompliance()
	return p
}

// NeutralProposal is the synthetic fallback slot used when an analyst
// failed outright or produced nothing usable.
func NeutralProposal(agent, thesis string, caveats ...string) *Proposal {
	return &Proposal{
		Agent:      agent,
		Action:     ActionHold,
		Conviction: 0.0,
		Thesis:     thesis,
		Evidence:   nil,
		Caveats:    caveats,
		Neutral:    true,
	}
}

// ensurePolicyCompliance is the single place a proposal is normalized.
// Evidence-free conviction is never trusted above NeutralConvictionCap.
func (p *Proposal) ensurePolicyCompliance() {
	p.Conviction = clamp01(p.Conviction)
	switch p.Action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		p.Action = ActionHold
	}
	if len(p.Evidence) == 0 {
		p.Neutral = true
		p.Action = ActionHold
		if p.Conviction > NeutralConvictionCap {
			p.Conviction = NeutralConvictionCap
		}
	}
}

// EffectiveAction is the action that counts for voting: neutral
// proposals always vote HOLD regardless of their stated action.
func (p *Proposal) EffectiveAction() string {
	if p.Neutral {
		return ActionHold
	}
	return p.Action
}

// Clone returns an independent copy, used to hand snapshots to
// concurrently running analysts without sharing slices.
func (p *Proposal) Clone() *Proposal {
	cp := *p
	cp.Evidence = append([]string(nil), p.Evidence...)
	cp.Caveats = append([]string(nil), p.Caveats...)
	return &cp
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
