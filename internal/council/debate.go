package council

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lumenfin/CouncilGo/internal/agents"
	"github.com/lumenfin/CouncilGo/internal/models"
)

// debatePromptProvider lets an analyst supply its own standing debate
// directive when no moderator overrides it.
type debatePromptProvider interface {
	DebatePrompt() string
}

const defaultDirective = "Re-examine your position against your peers' strongest evidence. " +
	"Concede what you cannot rebut and adjust your conviction accordingly."

// Engine runs bounded debate rounds. Every round the whole bench
// revises concurrently against the settled previous round; a failed
// revision keeps the analyst's prior position so the round always
// produces a full bench.
type Engine struct {
	analysts  []agents.Analyst
	moderator agents.Moderator
	maxRounds int
	logger    *zap.Logger
}

func NewEngine(analysts []agents.Analyst, moderator agents.Moderator, maxRounds int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		analysts:  analysts,
		moderator: moderator,
		maxRounds: maxRounds,
		logger:    logger.Named("debate"),
	}
}

// ShouldDebate reports whether the bench holds more than one committed
// direction. Neutral and HOLD stances never trigger a debate.
func (e *Engine) ShouldDebate(proposals map[string]*models.Proposal) bool {
	return len(directionalActions(proposals)) > 1
}

// Run executes up to maxRounds revision passes, stopping early once
// the bench converges on at most one direction. It returns the debate
// record and the final proposal set; the input map is not mutated.
func (e *Engine) Run(ctx context.Context, req *models.Request, proposals map[string]*models.Proposal) (*models.DebateOutcome, map[string]*models.Proposal) {
	outcome := &models.DebateOutcome{}

	current := make(map[string]*models.Proposal, len(proposals))
	for name, p := range proposals {
		current[name] = p.Clone()
	}

	for round := 1; round <= e.maxRounds; round++ {
		settled := make(agents.Snapshot, len(current))
		for name, p := range current {
			settled[name] = p.Clone()
		}

		directives := e.roundDirectives(ctx, req, round, settled)
		revised := e.reviseAll(ctx, req, settled, directives)

		var changes []models.PositionChange
		for _, a := range e.analysts {
			name := a.Name()
			before, ok := current[name]
			if !ok {
				continue
			}
			after := revised[name]
			change := models.ComparePositions(before, after)
			changes = append(changes, change)
			outcome.TotalConvictionShift += abs(change.ConvictionDelta)
			current[name] = after
		}

		outcome.Rounds = append(outcome.Rounds, models.DebateRound{
			Round:      round,
			Directives: directives,
			Proposals:  snapshotMap(current),
			Changes:    changes,
		})

		converged := len(directionalActions(current)) <= 1
		e.logger.Info("debate round complete",
			zap.String("symbol", req.Symbol),
			zap.Int("round", round),
			zap.Bool("converged", converged))
		if converged {
			outcome.Converged = true
			break
		}
	}

	// The changed-agent counts compare final positions against the
	// pre-debate bench, so a flip that flips back does not count and
	// sub-threshold drift that adds up does.
	for name, before := range proposals {
		after, ok := current[name]
		if !ok {
			continue
		}
		switch models.ComparePositions(before, after).ChangeKind {
		case models.ChangeAction:
			outcome.AgentsChangedAction++
		case models.ChangeConviction:
			outcome.AgentsChangedConviction++
		case models.ChangeBoth:
			outcome.AgentsChangedAction++
			outcome.AgentsChangedConviction++
		}
	}
	return outcome, current
}

// reviseAll fans one revision per analyst against the same settled
// snapshot. A failed revision logs and keeps the prior proposal.
func (e *Engine) reviseAll(ctx context.Context, req *models.Request, settled agents.Snapshot, directives map[string]string) map[string]*models.Proposal {
	var mu sync.Mutex
	revised := make(map[string]*models.Proposal, len(e.analysts))

	var wg sync.WaitGroup
	for _, analyst := range e.analysts {
		prior, ok := settled[analyst.Name()]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(a agents.Analyst, prior *models.Proposal) {
			defer wg.Done()
			p, err := a.Revise(ctx, req, prior.Clone(), settled, directives[a.Name()])
			if err != nil {
				e.logger.Warn("revision failed, keeping prior position",
					zap.String("analyst", a.Name()), zap.Error(err))
				p = prior.Clone()
			}
			mu.Lock()
			revised[a.Name()] = p
			mu.Unlock()
		}(analyst, prior)
	}
	wg.Wait()
	return revised
}

// roundDirectives merges moderator output over each analyst's standing
// prompt, so an absent or failed moderator never blocks a round.
func (e *Engine) roundDirectives(ctx context.Context, req *models.Request, round int, positions agents.Snapshot) map[string]string {
	var moderated map[string]string
	if e.moderator != nil {
		moderated = e.moderator.Directives(ctx, req, round, positions)
	}

	directives := make(map[string]string, len(e.analysts))
	for _, a := range e.analysts {
		if d, ok := moderated[a.Name()]; ok {
			directives[a.Name()] = d
			continue
		}
		if p, ok := a.(debatePromptProvider); ok && p.DebatePrompt() != "" {
			directives[a.Name()] = p.DebatePrompt()
			continue
		}
		directives[a.Name()] = defaultDirective
	}
	return directives
}

func snapshotMap(proposals map[string]*models.Proposal) map[string]*models.Proposal {
	out := make(map[string]*models.Proposal, len(proposals))
	for name, p := range proposals {
		out[name] = p.Clone()
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
