package results

import (
	"github.com/sibyllinesoft/valknut/internal/config"
	"github.com/sibyllinesoft/valknut/internal/features"
	"github.com/sibyllinesoft/valknut/internal/types"
)

// Exit codes per §6: success, gates-failed-but-emitted, unrecoverable
// engine error, and cancellation.
const (
	ExitSuccess            = 0
	ExitGatesFailed        = 1
	ExitUnrecoverableError = 2
	ExitCancelled          = 130
)

// GateResult is one quality gate's pass/fail detail in the CI summary.
type GateResult struct {
	Passed    bool    `json:"passed"`
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`
}

// CISummary is the flat, CI-consumable projection of a run: overall
// health, counts by priority band, and per-gate detail (§6).
type CISummary struct {
	HealthScore float64               `json:"health_score"`
	BandCounts  map[string]int        `json:"band_counts"`
	Gates       map[string]GateResult `json:"gates"`
}

// BuildCISummary derives the CI summary from the assembled hierarchy,
// per-entity scores, and the raw feature accumulator (needed for the
// complexity gate, which is measured against a raw feature rather than
// the composite score).
func BuildCISummary(h *types.UnifiedHierarchy, scores map[types.EntityID]*types.PriorityScore, acc *features.Accumulator, gates config.QualityGates) *CISummary {
	bandCounts := map[string]int{
		string(types.BandCritical): 0,
		string(types.BandHigh):     0,
		string(types.BandMedium):   0,
		string(types.BandLow):      0,
	}
	totalIssues := 0
	debt := 0.0
	maxComplexity := 0.0

	for _, s := range scores {
		bandCounts[string(s.Band)]++
		totalIssues += len(s.Issues)
		for _, sug := range s.Suggestions {
			debt += float64(sug.EstimatedSaved)
		}
	}
	for _, vec := range acc.Vectors() {
		if v, ok := vec.Get("cyclomatic_complexity"); ok && v > maxComplexity {
			maxComplexity = v
		}
	}

	health := 1.0
	if h != nil && h.Root != nil && h.Root.Health != nil {
		health = h.Root.Health.Value
	}

	summary := &CISummary{
		HealthScore: health,
		BandCounts:  bandCounts,
		Gates:       map[string]GateResult{},
	}

	summary.Gates["max_complexity"] = GateResult{
		Passed: maxComplexity <= float64(gates.MaxComplexity), Actual: maxComplexity, Threshold: float64(gates.MaxComplexity),
	}
	summary.Gates["min_health"] = GateResult{
		Passed: health >= gates.MinHealth, Actual: health, Threshold: gates.MinHealth,
	}
	summary.Gates["max_debt"] = GateResult{
		Passed: debt <= gates.MaxDebt, Actual: debt, Threshold: gates.MaxDebt,
	}
	summary.Gates["max_issues"] = GateResult{
		Passed: totalIssues <= gates.MaxIssues, Actual: float64(totalIssues), Threshold: float64(gates.MaxIssues),
	}
	summary.Gates["max_critical"] = GateResult{
		Passed: bandCounts[string(types.BandCritical)] <= gates.MaxCritical,
		Actual: float64(bandCounts[string(types.BandCritical)]), Threshold: float64(gates.MaxCritical),
	}
	summary.Gates["max_high_priority"] = GateResult{
		Passed: bandCounts[string(types.BandHigh)] <= gates.MaxHighPriority,
		Actual: float64(bandCounts[string(types.BandHigh)]), Threshold: float64(gates.MaxHighPriority),
	}

	return summary
}

// ExitCode maps a CI summary to the process exit code the CLI returns
// (§6): 0 when every gate passes, 1 when any gate fails (results are
// still fully emitted either way).
func (s *CISummary) ExitCode() int {
	for _, g := range s.Gates {
		if !g.Passed {
			return ExitGatesFailed
		}
	}
	return ExitSuccess
}
