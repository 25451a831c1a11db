package results

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sibyllinesoft/valknut/internal/config"
	"github.com/sibyllinesoft/valknut/internal/features"
	"github.com/sibyllinesoft/valknut/internal/types"
)

func fixtureScores() map[types.EntityID]*types.PriorityScore {
	h := buildFixtureHierarchy()
	scores := map[types.EntityID]*types.PriorityScore{}
	var walk func(n *types.HierarchyNode)
	walk = func(n *types.HierarchyNode) {
		if n.Priority != nil {
			scores[n.Priority.EntityID] = n.Priority
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(h.Root)
	return scores
}

func TestBuildCISummaryCountsBandsAndDebt(t *testing.T) {
	h := buildFixtureHierarchy()
	scores := fixtureScores()
	acc := features.NewAccumulator()
	acc.Set("main.go:function:Run", "cyclomatic_complexity", 40, "complexity", 1)

	gates := config.Default().Gates
	summary := BuildCISummary(h, scores, acc, gates)

	assert.Equal(t, 1, summary.BandCounts[string(types.BandCritical)])
	assert.Equal(t, 1, summary.BandCounts[string(types.BandLow)])
	assert.Equal(t, 0.5, summary.HealthScore)
}

func TestBuildCISummaryMaxComplexityGateFails(t *testing.T) {
	h := buildFixtureHierarchy()
	scores := fixtureScores()
	acc := features.NewAccumulator()
	acc.Set("main.go:function:Run", "cyclomatic_complexity", 999, "complexity", 1)

	gates := config.QualityGates{MaxComplexity: 25, MaxDebt: 1e9, MaxIssues: 1 << 30, MaxCritical: 1 << 30, MaxHighPriority: 1 << 30}
	summary := BuildCISummary(h, scores, acc, gates)

	assert.False(t, summary.Gates["max_complexity"].Passed)
	assert.Equal(t, ExitGatesFailed, summary.ExitCode())
}

func TestBuildCISummaryMaxCriticalGateFails(t *testing.T) {
	h := buildFixtureHierarchy()
	scores := fixtureScores()
	acc := features.NewAccumulator()

	gates := config.QualityGates{MaxComplexity: 1 << 30, MaxDebt: 1e9, MaxIssues: 1 << 30, MaxCritical: 0, MaxHighPriority: 1 << 30, MinHealth: 0}
	summary := BuildCISummary(h, scores, acc, gates)

	assert.False(t, summary.Gates["max_critical"].Passed)
	assert.Equal(t, ExitGatesFailed, summary.ExitCode())
}

func TestBuildCISummaryAllGatesPassYieldsExitSuccess(t *testing.T) {
	h := buildFixtureHierarchy()
	scores := fixtureScores()
	acc := features.NewAccumulator()
	acc.Set("main.go:function:Run", "cyclomatic_complexity", 10, "complexity", 1)

	summary := BuildCISummary(h, scores, acc, config.Default().Gates)
	assert.Equal(t, ExitSuccess, summary.ExitCode())
}
