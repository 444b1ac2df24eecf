package council

import (
	"sort"

	"github.com/lumenfin/CouncilGo/internal/models"
)

// Policy flags raised during evaluation. They ride along on the
// decision and gate fusion behavior; they never abort a run.
const (
	// noEvidenceSuffix tags each analyst whose proposal carries no
	// evidence. The full flag is "<analyst>:no_evidence".
	noEvidenceSuffix = ":no_evidence"

	// FlagConflictingActions marks directional disagreement that
	// survived collection. It caps fused confidence.
	FlagConflictingActions = "conflicting_actions"
)

// NoEvidenceFlag builds the per-analyst flag raised when a proposal
// arrives without evidence.
func NoEvidenceFlag(analyst string) string {
	return analyst + noEvidenceSuffix
}

// EvaluatePolicies inspects the collected proposals and returns the
// raised flags in a fixed order: per-analyst no-evidence flags sorted
// by analyst name, then conflicting_actions.
func EvaluatePolicies(proposals map[string]*models.Proposal) []string {
	var flags []string

	for name, p := range proposals {
		if len(p.Evidence) == 0 {
			flags = append(flags, NoEvidenceFlag(name))
		}
	}
	sort.Strings(flags)

	if len(directionalActions(proposals)) > 1 {
		flags = append(flags, FlagConflictingActions)
	}

	return flags
}

// HasFlag reports whether a flag set contains the given flag.
func HasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// directionalActions is the set of distinct non-HOLD effective actions
// held by non-neutral proposals. Its size drives both the
// conflicting-actions flag and debate entry and convergence.
func directionalActions(proposals map[string]*models.Proposal) map[string]struct{} {
	actions := make(map[string]struct{})
	for _, p := range proposals {
		if p.Neutral {
			continue
		}
		if action := p.EffectiveAction(); action != models.ActionHold {
			actions[action] = struct{}{}
		}
	}
	return actions
}
