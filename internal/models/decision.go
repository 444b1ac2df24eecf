package models

import "time"

// Decision is the single fused recommendation for one request. It is
// created once by fusion, immutable afterwards, and written once to
// the signal sink.
type Decision struct {
	Symbol         string               `json:"symbol"`
	Horizon        string               `json:"horizon"`
	Recommendation string               `json:"recommendation"`
	Confidence     float64              `json:"confidence"`
	Rationale      string               `json:"rationale"`
	Evidence       map[string][]string  `json:"evidence"`
	Proposals      map[string]*Proposal `json:"proposals"`
	Debate         *DebateOutcome       `json:"debate,omitempty"`
	PolicyFlags    []string             `json:"policy_flags,omitempty"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

// DebateSummary is the compact debate block embedded in an emitted signal.
type DebateSummary struct {
	Rounds                  int     `json:"rounds"`
	Converged               bool    `json:"converged"`
	AgentsChangedAction     int     `json:"agents_changed_action"`
	AgentsChangedConviction int     `json:"agents_changed_conviction"`
	TotalConvictionShift    float64 `json:"total_conviction_shift"`
}

// Signal is the fixed emission contract consumed by downstream systems.
type Signal struct {
	Symbol         string              `json:"symbol"`
	Horizon        string              `json:"horizon"`
	Recommendation string              `json:"recommendation"`
	Confidence     float64             `json:"confidence"`
	Rationale      string              `json:"rationale"`
	Evidence       map[string][]string `json:"evidence"`
	Debate         *DebateSummary      `json:"debate,omitempty"`
	GeneratedAt    string              `json:"generated_at"`
}

// ToSignal projects the decision onto the emission contract.
func (d *Decision) ToSignal() Signal {
	sig := Signal{
		Symbol:         d.Symbol,
		Horizon:        d.Horizon,
		Recommendation: d.Recommendation,
		Confidence:     d.Confidence,
		Rationale:      d.Rationale,
		Evidence:       d.Evidence,
		GeneratedAt:    d.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if d.Debate != nil {
		sig.Debate = &DebateSummary{
			Rounds:                  d.Debate.RoundsExecuted(),
			Converged:               d.Debate.Converged,
			AgentsChangedAction:     d.Debate.AgentsChangedAction,
			AgentsChangedConviction: d.Debate.AgentsChangedConviction,
			TotalConvictionShift:    d.Debate.TotalConvictionShift,
		}
	}
	return sig
}
