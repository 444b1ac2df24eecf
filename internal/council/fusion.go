package council

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lumenfin/CouncilGo/internal/models"
)

// ConflictConfidenceCap bounds fused confidence whenever directional
// disagreement was flagged, regardless of how the vote came out.
const ConflictConfidenceCap = 0.6

// WeightProvider resolves an analyst's voting weight. Unknown analysts
// weigh 1.0.
type WeightProvider interface {
	Weight(agent string) float64
}

// StaticWeights is the default weight provider backed by a fixed map.
type StaticWeights map[string]float64

func (w StaticWeights) Weight(agent string) float64 {
	if v, ok := w[agent]; ok && v > 0 {
		return v
	}
	return 1.0
}

// Fuser folds a proposal set into one decision. The algorithm is a
// deterministic weighted conviction vote: no model call, no
// randomness, same inputs always produce the same decision.
type Fuser struct {
	weights WeightProvider
}

func NewFuser(weights WeightProvider) *Fuser {
	if weights == nil {
		weights = StaticWeights(nil)
	}
	return &Fuser{weights: weights}
}

// Fuse produces the final decision. Each proposal contributes
// conviction times weight to its effective action's bucket; the
// largest bucket wins, HOLD wins any tie, and an all-zero vote is a
// HOLD with zero confidence.
func (f *Fuser) Fuse(req *models.Request, proposals map[string]*models.Proposal, flags []string, debate *models.DebateOutcome) *models.Decision {
	buckets := map[string]float64{
		models.ActionBuy:  0,
		models.ActionSell: 0,
		models.ActionHold: 0,
	}
	var totalWeight float64
	for _, p := range proposals {
		w := f.weights.Weight(p.Agent)
		totalWeight += w
		buckets[p.EffectiveAction()] += p.Conviction * w
	}

	recommendation, score := winningBucket(buckets)

	confidence := 0.0
	if totalWeight > 0 && score > 0 {
		confidence = clamp01(score / totalWeight)
	}
	if HasFlag(flags, FlagConflictingActions) && confidence > ConflictConfidenceCap {
		confidence = ConflictConfidenceCap
	}

	return &models.Decision{
		Symbol:         req.Symbol,
		Horizon:        req.Horizon,
		Recommendation: recommendation,
		Confidence:     confidence,
		Rationale:      f.rationale(recommendation, score, totalWeight, proposals),
		Evidence:       evidenceByAgent(proposals),
		Proposals:      snapshotMap(proposals),
		Debate:         debate,
		PolicyFlags:    flags,
		GeneratedAt:    time.Now().UTC(),
	}
}

// winningBucket picks the action with the largest score. An empty or
// all-zero vote is a HOLD, and any tie for the maximum resolves to
// HOLD as well.
func winningBucket(buckets map[string]float64) (string, float64) {
	best := models.ActionHold
	bestScore := buckets[models.ActionHold]
	tied := false
	for _, action := range []string{models.ActionBuy, models.ActionSell} {
		switch score := buckets[action]; {
		case score > bestScore:
			best, bestScore = action, score
			tied = false
		case score == bestScore && score > 0:
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return models.ActionHold, buckets[models.ActionHold]
	}
	return best, bestScore
}

// rationale is one "name: thesis" line per analyst in name order, with
// a closing vote summary.
func (f *Fuser) rationale(recommendation string, score, totalWeight float64, proposals map[string]*models.Proposal) string {
	names := make([]string, 0, len(proposals))
	for name := range proposals {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	var dissenters []string
	for _, name := range names {
		p := proposals[name]
		fmt.Fprintf(&b, "%s: %s\n", name, p.Thesis)
		if p.EffectiveAction() != recommendation {
			dissenters = append(dissenters, fmt.Sprintf("%s (%s)", name, p.EffectiveAction()))
		}
	}

	fmt.Fprintf(&b, "Weighted conviction vote: %s with score %.2f of %.2f total weight.",
		recommendation, score, totalWeight)
	if len(dissenters) > 0 {
		fmt.Fprintf(&b, " Dissent: %s.", strings.Join(dissenters, ", "))
	}
	return b.String()
}

// evidenceByAgent copies every analyst's evidence list, empty ones
// included.
func evidenceByAgent(proposals map[string]*models.Proposal) map[string][]string {
	out := make(map[string][]string, len(proposals))
	for name, p := range proposals {
		out[name] = append([]string(nil), p.Evidence...)
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
