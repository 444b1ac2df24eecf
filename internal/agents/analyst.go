package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lumenfin/CouncilGo/internal/models"
)

// Snapshot is a frozen, read-only view of peer proposals. During
// collection it reflects whichever peers happened to finish first;
// during debate it is the fully settled previous round.
type Snapshot map[string]*models.Proposal

// Summary renders the snapshot as the compact peer block analysts see
// in their prompts.
func (s Snapshot) Summary() string {
	if len(s) == 0 {
		return "No peer proposals yet."
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		p := s[name]
		fmt.Fprintf(&b, "- %s: action=%s, conviction=%.2f, neutral=%t\n",
			p.Agent, p.Action, p.Conviction, p.Neutral)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Analyst produces trading opinions. Implementations may fail; the
// council never assumes success and always degrades locally.
type Analyst interface {
	Name() string
	Weight() float64

	// Propose produces a fresh proposal for the request, optionally
	// informed by whichever peers completed before this call.
	Propose(ctx context.Context, req *models.Request, peers Snapshot) (*models.Proposal, error)

	// Revise re-argues a prior proposal against settled peer positions
	// under a debate directive. The result is always a new proposal.
	Revise(ctx context.Context, req *models.Request, prior *models.Proposal, peers Snapshot, directive string) (*models.Proposal, error)
}
