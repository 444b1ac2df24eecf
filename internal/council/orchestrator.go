package council

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumenfin/CouncilGo/internal/models"
)

// SignalSink persists the emitted signal. Implementations must be
// write-once per run.
type SignalSink interface {
	WriteSignal(sig models.Signal) (string, error)
}

// TrajectorySink persists the full run trajectory.
type TrajectorySink interface {
	WriteTrajectory(t *Trajectory) (string, error)
}

// DecisionRecorder stores finished decisions for later review. It is
// supplementary: a failed record logs and the run still succeeds.
type DecisionRecorder interface {
	SaveDecision(ctx context.Context, runID, tradeDate string, d *models.Decision) error
}

// Orchestrator drives one request through the whole pipeline: collect,
// evaluate, debate when contested, fuse, then emit. Analyst and
// moderator failures degrade in place; only a sink failure aborts the
// run.
type Orchestrator struct {
	collector    *Collector
	engine       *Engine
	fuser        *Fuser
	signals      SignalSink
	trajectories TrajectorySink
	recorder     DecisionRecorder
	logger       *zap.Logger
}

// SetRecorder attaches an optional decision history store.
func (o *Orchestrator) SetRecorder(r DecisionRecorder) { o.recorder = r }

func NewOrchestrator(collector *Collector, engine *Engine, fuser *Fuser, signals SignalSink, trajectories TrajectorySink, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		collector:    collector,
		engine:       engine,
		fuser:        fuser,
		signals:      signals,
		trajectories: trajectories,
		logger:       logger.Named("council"),
	}
}

// Run executes one analysis and returns the fused decision. The error
// is non-nil only when a sink write fails.
func (o *Orchestrator) Run(ctx context.Context, req *models.Request) (*models.Decision, error) {
	traj := NewTrajectory(req.Symbol)
	log := o.logger.With(zap.String("symbol", req.Symbol), zap.String("run_id", traj.RunID))
	log.Info("analysis started", zap.String("horizon", req.Horizon), zap.String("as_of", req.TradeDate()))

	traj.Record(StagePlan, map[string]any{
		"horizon":    req.Horizon,
		"as_of":      req.TradeDate(),
		"bench_size": len(o.collector.analysts),
	})

	proposals, failures := o.collector.Collect(ctx, req)
	traj.Record(StageCollect, map[string]any{
		"proposals": proposalDigest(proposals),
		"failures":  failures,
	})
	log.Info("collection complete",
		zap.Int("proposals", len(proposals)),
		zap.Int("fallbacks", len(failures)))

	flags := EvaluatePolicies(proposals)
	traj.Record(StageEvaluate, map[string]any{"flags": flags})

	var debate *models.DebateOutcome
	if o.engine.ShouldDebate(proposals) {
		debate, proposals = o.engine.Run(ctx, req, proposals)
		traj.Record(StageDebate, map[string]any{
			"rounds":                 debate.RoundsExecuted(),
			"converged":              debate.Converged,
			"total_conviction_shift": debate.TotalConvictionShift,
			"proposals":              proposalDigest(proposals),
		})
		log.Info("debate complete",
			zap.Int("rounds", debate.RoundsExecuted()),
			zap.Bool("converged", debate.Converged))
	}

	decision := o.fuser.Fuse(req, proposals, flags, debate)
	traj.Record(StageFinalize, map[string]any{
		"recommendation": decision.Recommendation,
		"confidence":     decision.Confidence,
		"flags":          decision.PolicyFlags,
	})
	log.Info("decision fused",
		zap.String("recommendation", decision.Recommendation),
		zap.Float64("confidence", decision.Confidence),
		zap.Strings("flags", flags))

	if o.trajectories != nil {
		path, err := o.trajectories.WriteTrajectory(traj)
		if err != nil {
			return nil, fmt.Errorf("trajectory sink: %w", err)
		}
		log.Debug("trajectory written", zap.String("path", path))
	}
	if o.signals != nil {
		path, err := o.signals.WriteSignal(decision.ToSignal())
		if err != nil {
			return nil, fmt.Errorf("signal sink: %w", err)
		}
		log.Info("signal emitted", zap.String("path", path))
	}
	if o.recorder != nil {
		if err := o.recorder.SaveDecision(ctx, traj.RunID, req.TradeDate(), decision); err != nil {
			log.Warn("decision history write failed", zap.Error(err))
		}
	}

	return decision, nil
}

func proposalDigest(proposals map[string]*models.Proposal) map[string]any {
	out := make(map[string]any, len(proposals))
	for name, p := range proposals {
		out[name] = map[string]any{
			"action":     p.Action,
			"conviction": p.Conviction,
			"neutral":    p.Neutral,
		}
	}
	return out
}
