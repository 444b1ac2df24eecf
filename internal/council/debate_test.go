package council

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lumenfin/CouncilGo/internal/agents"
	"github.com/lumenfin/CouncilGo/internal/models"
)

func TestShouldDebate(t *testing.T) {
	p := func(agent, action string) *models.Proposal {
		return models.NewProposal(agent, action, 0.7, "t", []string{"e"}, nil)
	}

	tests := []struct {
		name      string
		proposals map[string]*models.Proposal
		want      bool
	}{
		{"buy vs sell", proposalSet(p("a", models.ActionBuy), p("b", models.ActionSell)), true},
		{"unanimous buy", proposalSet(p("a", models.ActionBuy), p("b", models.ActionBuy)), false},
		{"buy vs hold", proposalSet(p("a", models.ActionBuy), p("b", models.ActionHold)), false},
		{"buy vs neutral", proposalSet(p("a", models.ActionBuy), models.NeutralProposal("b", "no data")), false},
		{"all hold", proposalSet(p("a", models.ActionHold), p("b", models.ActionHold)), false},
	}
	engine := NewEngine(nil, nil, 2, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.ShouldDebate(tt.proposals); got != tt.want {
				t.Fatalf("ShouldDebate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDebateConvergesWhenOneSideConcedes(t *testing.T) {
	bull := fixedAnalyst("bull", models.ActionBuy, 0.8)
	bear := &stubAnalyst{
		name: "bear",
		revise: func(_ context.Context, _ *models.Request, prior *models.Proposal, peers agents.Snapshot, _ string) (*models.Proposal, error) {
			if _, ok := peers["bull"]; !ok {
				t.Error("revision must see the settled previous round")
			}
			return models.NewProposal("bear", models.ActionHold, 0.3, "conceding", []string{"peer evidence stronger"}, nil), nil
		},
	}
	engine := NewEngine([]agents.Analyst{bull, bear}, nil, 3, nil)

	initial := proposalSet(
		models.NewProposal("bull", models.ActionBuy, 0.8, "t", []string{"e"}, nil),
		models.NewProposal("bear", models.ActionSell, 0.7, "t", []string{"e"}, nil),
	)
	outcome, final := engine.Run(context.Background(), testRequest(), initial)

	if !outcome.Converged {
		t.Fatal("debate should converge after the bear concedes")
	}
	if outcome.RoundsExecuted() != 1 {
		t.Fatalf("rounds = %d, want 1", outcome.RoundsExecuted())
	}
	if final["bear"].Action != models.ActionHold {
		t.Fatalf("bear final action = %s, want HOLD", final["bear"].Action)
	}
	if outcome.AgentsChangedAction != 1 {
		t.Fatalf("agents changed action = %d, want 1", outcome.AgentsChangedAction)
	}
	// Bear moved 0.7 -> 0.3.
	if math.Abs(outcome.TotalConvictionShift-0.4) > 1e-9 {
		t.Fatalf("total shift = %v, want 0.4", outcome.TotalConvictionShift)
	}
	// The input set must be untouched.
	if initial["bear"].Action != models.ActionSell {
		t.Fatal("Run must not mutate its input proposals")
	}
}

func TestDebateStopsAtMaxRounds(t *testing.T) {
	stubborn := func(name, action string) *stubAnalyst {
		a := fixedAnalyst(name, action, 0.8)
		a.revise = func(_ context.Context, _ *models.Request, prior *models.Proposal, _ agents.Snapshot, _ string) (*models.Proposal, error) {
			return prior.Clone(), nil
		}
		return a
	}
	engine := NewEngine([]agents.Analyst{
		stubborn("bull", models.ActionBuy),
		stubborn("bear", models.ActionSell),
	}, nil, 3, nil)

	outcome, _ := engine.Run(context.Background(), testRequest(), proposalSet(
		models.NewProposal("bull", models.ActionBuy, 0.8, "t", []string{"e"}, nil),
		models.NewProposal("bear", models.ActionSell, 0.8, "t", []string{"e"}, nil),
	))

	if outcome.Converged {
		t.Fatal("stubborn bench must not converge")
	}
	if outcome.RoundsExecuted() != 3 {
		t.Fatalf("rounds = %d, want the hard cap of 3", outcome.RoundsExecuted())
	}
}

func TestDebateKeepsPriorOnFailedRevision(t *testing.T) {
	bull := fixedAnalyst("bull", models.ActionBuy, 0.8)
	bull.revise = func(context.Context, *models.Request, *models.Proposal, agents.Snapshot, string) (*models.Proposal, error) {
		return nil, errors.New("backend down")
	}
	bear := &stubAnalyst{
		name: "bear",
		revise: func(_ context.Context, _ *models.Request, prior *models.Proposal, _ agents.Snapshot, _ string) (*models.Proposal, error) {
			return models.NewProposal("bear", models.ActionBuy, 0.6, "flipped", []string{"e"}, nil), nil
		},
	}
	engine := NewEngine([]agents.Analyst{bull, bear}, nil, 3, nil)

	outcome, final := engine.Run(context.Background(), testRequest(), proposalSet(
		models.NewProposal("bull", models.ActionBuy, 0.8, "original", []string{"e"}, nil),
		models.NewProposal("bear", models.ActionSell, 0.7, "t", []string{"e"}, nil),
	))

	if final["bull"].Conviction != 0.8 || final["bull"].Thesis != "original" {
		t.Fatalf("failed revision must keep the prior position, got %+v", final["bull"])
	}
	if !outcome.Converged {
		t.Fatal("bench should converge once the bear flips")
	}
}

func TestDebateAccumulatesAbsoluteShift(t *testing.T) {
	convictions := []float64{0.6, 0.8}
	i := 0
	oscillating := &stubAnalyst{
		name: "bull",
		revise: func(context.Context, *models.Request, *models.Proposal, agents.Snapshot, string) (*models.Proposal, error) {
			c := convictions[i%len(convictions)]
			i++
			return models.NewProposal("bull", models.ActionBuy, c, "t", []string{"e"}, nil), nil
		},
	}
	bear := fixedAnalyst("bear", models.ActionSell, 0.8)
	bear.revise = func(_ context.Context, _ *models.Request, prior *models.Proposal, _ agents.Snapshot, _ string) (*models.Proposal, error) {
		return prior.Clone(), nil
	}
	engine := NewEngine([]agents.Analyst{oscillating, bear}, nil, 2, nil)

	outcome, _ := engine.Run(context.Background(), testRequest(), proposalSet(
		models.NewProposal("bull", models.ActionBuy, 0.8, "t", []string{"e"}, nil),
		models.NewProposal("bear", models.ActionSell, 0.8, "t", []string{"e"}, nil),
	))

	// Round 1: 0.8 -> 0.6, round 2: 0.6 -> 0.8. Back-and-forth motion
	// still counts, so the total is 0.4 even though the net is zero.
	if math.Abs(outcome.TotalConvictionShift-0.4) > 1e-9 {
		t.Fatalf("total shift = %v, want 0.4", outcome.TotalConvictionShift)
	}
	// The bull ended where it started, so it never counts as changed.
	if outcome.AgentsChangedConviction != 0 {
		t.Fatalf("agents changed conviction = %d, want 0", outcome.AgentsChangedConviction)
	}
	if outcome.AgentsChangedAction != 0 {
		t.Fatalf("agents changed action = %d, want 0", outcome.AgentsChangedAction)
	}
}

func TestDebateChangedCountsCompareFinalAgainstPreDebate(t *testing.T) {
	swap := func(name string) *stubAnalyst {
		a := fixedAnalyst(name, models.ActionBuy, 0.8)
		a.revise = func(_ context.Context, _ *models.Request, prior *models.Proposal, _ agents.Snapshot, _ string) (*models.Proposal, error) {
			flipped := models.ActionSell
			if prior.Action == models.ActionSell {
				flipped = models.ActionBuy
			}
			return models.NewProposal(name, flipped, prior.Conviction, "t", []string{"e"}, nil), nil
		}
		return a
	}
	engine := NewEngine([]agents.Analyst{swap("bull"), swap("bear")}, nil, 2, nil)

	outcome, _ := engine.Run(context.Background(), testRequest(), proposalSet(
		models.NewProposal("bull", models.ActionBuy, 0.8, "t", []string{"e"}, nil),
		models.NewProposal("bear", models.ActionSell, 0.8, "t", []string{"e"}, nil),
	))

	// Both agents swap sides each round and finish exactly where they
	// started after two rounds.
	if outcome.AgentsChangedAction != 0 {
		t.Fatalf("agents changed action = %d, want 0 for a round trip", outcome.AgentsChangedAction)
	}
}

func TestDebateCountsCumulativeSubThresholdDrift(t *testing.T) {
	drifter := fixedAnalyst("bull", models.ActionBuy, 0.5)
	drifter.revise = func(_ context.Context, _ *models.Request, prior *models.Proposal, _ agents.Snapshot, _ string) (*models.Proposal, error) {
		return models.NewProposal("bull", models.ActionBuy, prior.Conviction+0.04, "t", []string{"e"}, nil), nil
	}
	bear := fixedAnalyst("bear", models.ActionSell, 0.8)
	bear.revise = func(_ context.Context, _ *models.Request, prior *models.Proposal, _ agents.Snapshot, _ string) (*models.Proposal, error) {
		return prior.Clone(), nil
	}
	engine := NewEngine([]agents.Analyst{drifter, bear}, nil, 3, nil)

	outcome, final := engine.Run(context.Background(), testRequest(), proposalSet(
		models.NewProposal("bull", models.ActionBuy, 0.5, "t", []string{"e"}, nil),
		models.NewProposal("bear", models.ActionSell, 0.8, "t", []string{"e"}, nil),
	))

	// Each round moves only 0.04, below the per-round threshold, but the
	// bull ends at 0.62 for a net +0.12 which does count.
	if math.Abs(final["bull"].Conviction-0.62) > 1e-9 {
		t.Fatalf("bull conviction = %v, want 0.62", final["bull"].Conviction)
	}
	if outcome.AgentsChangedConviction != 1 {
		t.Fatalf("agents changed conviction = %d, want 1 for cumulative drift", outcome.AgentsChangedConviction)
	}
}

func TestRoundDirectivesPreferModerator(t *testing.T) {
	bull := fixedAnalyst("bull", models.ActionBuy, 0.8)
	bull.debatePrompt = "standing bull prompt"
	bear := fixedAnalyst("bear", models.ActionSell, 0.8)

	var bullDirective, bearDirective string
	bull.revise = func(_ context.Context, _ *models.Request, prior *models.Proposal, _ agents.Snapshot, directive string) (*models.Proposal, error) {
		bullDirective = directive
		return models.NewProposal("bull", models.ActionHold, 0.2, "t", []string{"e"}, nil), nil
	}
	bear.revise = func(_ context.Context, _ *models.Request, prior *models.Proposal, _ agents.Snapshot, directive string) (*models.Proposal, error) {
		bearDirective = directive
		return prior.Clone(), nil
	}

	moderator := moderatorFunc(func(_ context.Context, _ *models.Request, round int, _ agents.Snapshot) map[string]string {
		return map[string]string{"bear": "press the valuation point"}
	})
	engine := NewEngine([]agents.Analyst{bull, bear}, moderator, 1, nil)

	engine.Run(context.Background(), testRequest(), proposalSet(
		models.NewProposal("bull", models.ActionBuy, 0.8, "t", []string{"e"}, nil),
		models.NewProposal("bear", models.ActionSell, 0.8, "t", []string{"e"}, nil),
	))

	if bearDirective != "press the valuation point" {
		t.Fatalf("bear directive = %q, want the moderator override", bearDirective)
	}
	if bullDirective != "standing bull prompt" {
		t.Fatalf("bull directive = %q, want the standing prompt", bullDirective)
	}
}

type moderatorFunc func(ctx context.Context, req *models.Request, round int, positions agents.Snapshot) map[string]string

func (f moderatorFunc) Directives(ctx context.Context, req *models.Request, round int, positions agents.Snapshot) map[string]string {
	return f(ctx, req, round, positions)
}
