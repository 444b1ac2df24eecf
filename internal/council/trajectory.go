package council

import (
	"time"

	"github.com/google/uuid"
)

// Trajectory stage names, in pipeline order.
const (
	StagePlan     = "plan"
	StageCollect  = "collect"
	StageEvaluate = "evaluate"
	StageDebate   = "debate"
	StageFinalize = "finalize"
)

// TrajectoryStage is one timestamped pipeline event with free-form
// detail. Details are whatever the stage found worth keeping and are
// serialized as-is.
type TrajectoryStage struct {
	Stage  string         `json:"stage"`
	At     time.Time      `json:"at"`
	Detail map[string]any `json:"detail,omitempty"`
}

// Trajectory is the append-only audit record of one run. It is not a
// log stream: it is written to the trajectory sink in full once the
// run finalizes.
type Trajectory struct {
	RunID     string            `json:"run_id"`
	Symbol    string            `json:"symbol"`
	StartedAt time.Time         `json:"started_at"`
	Stages    []TrajectoryStage `json:"stages"`
}

func NewTrajectory(symbol string) *Trajectory {
	return &Trajectory{
		RunID:     uuid.NewString(),
		Symbol:    symbol,
		StartedAt: time.Now().UTC(),
	}
}

// Record appends a stage event. Stages appear in the order recorded;
// a run that skips debate simply has no debate stage.
func (t *Trajectory) Record(stage string, detail map[string]any) {
	t.Stages = append(t.Stages, TrajectoryStage{
		Stage:  stage,
		At:     time.Now().UTC(),
		Detail: detail,
	})
}

// StageNames lists the recorded stages in order, mostly for tests and
// display.
func (t *Trajectory) StageNames() []string {
	out := make([]string, len(t.Stages))
	for i, s := range t.Stages {
		out[i] = s.Stage
	}
	return out
}
