package council

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lumenfin/CouncilGo/internal/agents"
	"github.com/lumenfin/CouncilGo/internal/models"
)

func TestCollectAllSucceed(t *testing.T) {
	c := NewCollector([]agents.Analyst{
		fixedAnalyst("technical", models.ActionBuy, 0.8),
		fixedAnalyst("news", models.ActionSell, 0.6),
		fixedAnalyst("fundamental", models.ActionHold, 0.2),
	}, 2, time.Millisecond, time.Second, nil)

	proposals, failures := c.Collect(context.Background(), testRequest())
	if len(proposals) != 3 {
		t.Fatalf("proposals = %d, want 3", len(proposals))
	}
	if len(failures) != 0 {
		t.Fatalf("failures = %v, want none", failures)
	}
	if proposals["technical"].Action != models.ActionBuy {
		t.Fatalf("technical action = %s", proposals["technical"].Action)
	}
}

func TestCollectRecoversOnRetry(t *testing.T) {
	calls := 0
	flaky := &stubAnalyst{
		name: "news",
		propose: func(context.Context, *models.Request, agents.Snapshot) (*models.Proposal, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("backend overloaded")
			}
			return models.NewProposal("news", models.ActionBuy, 0.7, "t", []string{"e"}, nil), nil
		},
	}
	c := NewCollector([]agents.Analyst{flaky}, 3, time.Millisecond, time.Second, nil)

	proposals, failures := c.Collect(context.Background(), testRequest())
	if calls != 3 {
		t.Fatalf("attempts = %d, want 3", calls)
	}
	if len(failures) != 0 {
		t.Fatalf("failures = %v, want none after recovery", failures)
	}
	if proposals["news"].Neutral {
		t.Fatal("recovered analyst must not be neutralized")
	}
}

func TestCollectFallsBackToNeutral(t *testing.T) {
	calls := 0
	broken := &stubAnalyst{
		name: "fundamental",
		propose: func(context.Context, *models.Request, agents.Snapshot) (*models.Proposal, error) {
			calls++
			return nil, errors.New("permanent outage")
		},
	}
	c := NewCollector([]agents.Analyst{
		broken,
		fixedAnalyst("technical", models.ActionBuy, 0.9),
	}, 3, time.Millisecond, time.Second, nil)

	proposals, failures := c.Collect(context.Background(), testRequest())
	if calls != 3 {
		t.Fatalf("attempts = %d, want all 3 exhausted", calls)
	}
	p := proposals["fundamental"]
	if p == nil || !p.Neutral || p.EffectiveAction() != models.ActionHold {
		t.Fatalf("want neutral HOLD fallback, got %+v", p)
	}
	if p.Conviction > models.NeutralConvictionCap {
		t.Fatalf("fallback conviction = %v, exceeds neutral cap", p.Conviction)
	}
	if !strings.Contains(failures["fundamental"], "permanent outage") {
		t.Fatalf("failure map missing final error, got %v", failures)
	}
	// The fallback thesis itself carries the last error.
	if p.Thesis != "Unable to produce proposal: permanent outage" {
		t.Fatalf("fallback thesis = %q, want the last error in it", p.Thesis)
	}
	if proposals["technical"].Action != models.ActionBuy {
		t.Fatal("healthy analyst must be unaffected by a peer's outage")
	}
}

func TestCollectLaterAttemptSeesEarlierPeers(t *testing.T) {
	fastDone := make(chan struct{})
	fast := &stubAnalyst{
		name: "technical",
		propose: func(context.Context, *models.Request, agents.Snapshot) (*models.Proposal, error) {
			defer close(fastDone)
			return models.NewProposal("technical", models.ActionBuy, 0.8, "t", []string{"e"}, nil), nil
		},
	}

	var secondAttemptPeers agents.Snapshot
	slow := &stubAnalyst{
		name: "news",
		propose: func(_ context.Context, _ *models.Request, peers agents.Snapshot) (*models.Proposal, error) {
			select {
			case <-fastDone:
			case <-time.After(5 * time.Second):
				return nil, errors.New("peer never finished")
			}
			if _, ok := peers["technical"]; !ok {
				// First call may have raced ahead of the fast peer's
				// post; fail so the retry re-reads the board.
				return nil, errors.New("peer not visible yet")
			}
			secondAttemptPeers = peers
			return models.NewProposal("news", models.ActionSell, 0.5, "t", []string{"e"}, nil), nil
		},
	}

	c := NewCollector([]agents.Analyst{fast, slow}, 3, time.Millisecond, time.Second, nil)
	proposals, _ := c.Collect(context.Background(), testRequest())

	if len(proposals) != 2 {
		t.Fatalf("proposals = %d, want 2", len(proposals))
	}
	if secondAttemptPeers == nil {
		t.Fatal("slow analyst never observed its fast peer")
	}
	if secondAttemptPeers["technical"].Action != models.ActionBuy {
		t.Fatal("live view must carry the already-posted peer proposal")
	}
}

func TestLiveBoardSnapshotsAreIndependent(t *testing.T) {
	board := newLiveBoard()
	board.post(models.NewProposal("technical", models.ActionBuy, 0.8, "t", []string{"e"}, nil))

	first := board.snapshot()
	first["technical"].Conviction = 0.1
	first["technical"].Action = models.ActionSell

	second := board.snapshot()
	if second["technical"].Conviction != 0.8 || second["technical"].Action != models.ActionBuy {
		t.Fatal("mutating a snapshot must not affect the board")
	}
}

func TestCollectHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stuck := &stubAnalyst{
		name: "technical",
		propose: func(ctx context.Context, _ *models.Request, _ agents.Snapshot) (*models.Proposal, error) {
			return nil, ctx.Err()
		},
	}
	c := NewCollector([]agents.Analyst{stuck}, 5, time.Minute, time.Second, nil)

	start := time.Now()
	proposals, failures := c.Collect(ctx, testRequest())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancelled collect still slept %v", elapsed)
	}
	if !proposals["technical"].Neutral {
		t.Fatal("cancelled analyst must still degrade to neutral")
	}
	if _, ok := failures["technical"]; !ok {
		t.Fatal("cancellation must be recorded as the analyst's failure")
	}
}
