package models

import (
	"math"
	"testing"
)

func TestNewProposalClampsConviction(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0.0},
		{0.0, 0.0},
		{0.42, 0.42},
		{1.0, 1.0},
		{3.7, 1.0},
	}
	for _, tc := range cases {
		p := NewProposal("tech", "BUY", tc.in, "breakout", []string{"RSI 71"}, nil)
		if p.Conviction != tc.want {
			t.Fatalf("conviction %v: expected %v, got %v", tc.in, tc.want, p.Conviction)
		}
	}
}

func TestNewProposalForcesNeutralWithoutEvidence(t *testing.T) {
	p := NewProposal("fund", "SELL", 0.9, "overvalued", nil, nil)
	if !p.Neutral {
		t.Fatalf("expected evidence-free proposal to be neutral")
	}
	if p.Action != ActionHold {
		t.Fatalf("expected HOLD, got %s", p.Action)
	}
	if p.Conviction > NeutralConvictionCap {
		t.Fatalf("expected conviction <= %v, got %v", NeutralConvictionCap, p.Conviction)
	}
}

func TestNewProposalNormalizesAction(t *testing.T) {
	p := NewProposal("news", " buy ", 0.6, "positive coverage", []string{"earnings beat"}, nil)
	if p.Action != ActionBuy {
		t.Fatalf("expected BUY, got %q", p.Action)
	}
	if p.Neutral {
		t.Fatalf("proposal with evidence should not be neutral")
	}

	garbage := NewProposal("news", "ACCUMULATE", 0.6, "", []string{"x"}, nil)
	if garbage.Action != ActionHold {
		t.Fatalf("unknown action should normalize to HOLD, got %q", garbage.Action)
	}
}

func TestEffectiveActionForNeutral(t *testing.T) {
	p := NeutralProposal("tech", "analyst unavailable")
	if p.EffectiveAction() != ActionHold {
		t.Fatalf("neutral proposal must vote HOLD")
	}
	active := NewProposal("tech", "SELL", 0.7, "downtrend", []string{"below 200d MA"}, nil)
	if active.EffectiveAction() != ActionSell {
		t.Fatalf("expected SELL, got %s", active.EffectiveAction())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewProposal("tech", "BUY", 0.8, "momentum", []string{"volume surge"}, []string{"earnings next week"})
	cp := p.Clone()
	cp.Evidence[0] = "mutated"
	if p.Evidence[0] != "volume surge" {
		t.Fatalf("clone shares evidence slice with original")
	}
}

func TestComparePositions(t *testing.T) {
	before := NewProposal("tech", "BUY", 0.8, "breakout", []string{"a"}, nil)

	after := NewProposal("tech", "SELL", 0.3, "reversal", []string{"b"}, nil)
	change := ComparePositions(before, after)
	if change.ChangeKind != ChangeBoth {
		t.Fatalf("expected change kind %q, got %q", ChangeBoth, change.ChangeKind)
	}
	if math.Abs(change.ConvictionDelta-(-0.5)) > 1e-9 {
		t.Fatalf("expected delta -0.5, got %v", change.ConvictionDelta)
	}

	drift := NewProposal("tech", "BUY", 0.83, "breakout", []string{"a"}, nil)
	change = ComparePositions(before, drift)
	if change.ChangeKind != ChangeNone {
		t.Fatalf("sub-threshold drift should not count, got %q", change.ChangeKind)
	}

	softer := NewProposal("tech", "BUY", 0.6, "breakout, weaker", []string{"a"}, nil)
	change = ComparePositions(before, softer)
	if change.ChangeKind != ChangeConviction {
		t.Fatalf("expected conviction-only change, got %q", change.ChangeKind)
	}
}

func TestDecisionToSignal(t *testing.T) {
	d := &Decision{
		Symbol:         "AAPL",
		Horizon:        "1d",
		Recommendation: ActionBuy,
		Confidence:     0.47,
		Rationale:      "tech: breakout",
		Evidence:       map[string][]string{"tech": {"RSI 71"}},
		Debate: &DebateOutcome{
			Rounds:               []DebateRound{{Round: 1}},
			Converged:            true,
			AgentsChangedAction:  1,
			TotalConvictionShift: 0.5,
		},
	}
	sig := d.ToSignal()
	if sig.Debate == nil || sig.Debate.Rounds != 1 || !sig.Debate.Converged {
		t.Fatalf("unexpected debate summary: %+v", sig.Debate)
	}
	if sig.Symbol != "AAPL" || sig.Recommendation != ActionBuy {
		t.Fatalf("unexpected signal: %+v", sig)
	}

	noDebate := &Decision{Symbol: "MSFT", Recommendation: ActionHold}
	if noDebate.ToSignal().Debate != nil {
		t.Fatalf("signal without debate should omit the summary block")
	}
}
