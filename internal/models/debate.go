package models

import "math"

// ConvictionShiftThreshold is the smallest conviction delta that counts
// as a real position change; sub-threshold drift is treated as noise.
const ConvictionShiftThreshold = 0.05

// PositionChange is a read-only diff between one agent's proposal
// before and after a debate round.
type PositionChange struct {
	Agent            string  `json:"agent"`
	ChangeKind       string  `json:"change_kind"` // action, conviction, both, none
	BeforeAction     string  `json:"before_action"`
	AfterAction      string  `json:"after_action"`
	BeforeConviction float64 `json:"before_conviction"`
	AfterConviction  float64 `json:"after_conviction"`
	ConvictionDelta  float64 `json:"conviction_delta"`
}

const (
	ChangeNone       = "none"
	ChangeAction     = "action"
	ChangeConviction = "conviction"
	ChangeBoth       = "both"
)

// ComparePositions derives the position change for one agent across a
// debate round. The conviction delta is signed (after minus before).
func ComparePositions(before, after *Proposal) PositionChange {
	delta := after.Conviction - before.Conviction
	actionChanged := before.Action != after.Action
	convictionChanged := math.Abs(delta) > ConvictionShiftThreshold

	kind := ChangeNone
	switch {
	case actionChanged && convictionChanged:
		kind = ChangeBoth
	case actionChanged:
		kind = ChangeAction
	case convictionChanged:
		kind = ChangeConviction
	}

	return PositionChange{
		Agent:            before.Agent,
		ChangeKind:       kind,
		BeforeAction:     before.Action,
		AfterAction:      after.Action,
		BeforeConviction: before.Conviction,
		AfterConviction:  after.Conviction,
		ConvictionDelta:  delta,
	}
}

// Changed reports whether the round moved this agent at all.
func (c PositionChange) Changed() bool {
	return c.ChangeKind != ChangeNone
}

// DebateRound captures one synchronized revision pass.
type DebateRound struct {
	Round      int                  `json:"round"`
	Directives map[string]string    `json:"directives"`
	Proposals  map[string]*Proposal `json:"proposals"`
	Changes    []PositionChange     `json:"changes"`
}

// DebateOutcome is the full record of a debate: every round in order
// plus aggregate movement counters. TotalConvictionShift accumulates
// the absolute per-round deltas, so back-and-forth movement counts.
type DebateOutcome struct {
	Rounds                  []DebateRound `json:"rounds"`
	Converged               bool          `json:"converged"`
	AgentsChangedAction     int           `json:"agents_changed_action"`
	AgentsChangedConviction int           `json:"agents_changed_conviction"`
	TotalConvictionShift    float64       `json:"total_conviction_shift"`
}

// RoundsExecuted is the number of revision passes that actually ran.
func (d *DebateOutcome) RoundsExecuted() int {
	if d == nil {
		return 0
	}
	return len(d.Rounds)
}

// AllChanges concatenates every round's position changes in order.
func (d *DebateOutcome) AllChanges() []PositionChange {
	if d == nil {
		return nil
	}
	var out []PositionChange
	for _, r := range d.Rounds {
		out = append(out, r.Changes...)
	}
	return out
}
