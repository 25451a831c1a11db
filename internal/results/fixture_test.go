package results

import "github.com/sibyllinesoft/valknut/internal/types"

// buildFixtureHierarchy assembles a small, two-entity tree by hand: one
// entity in the critical band with an issue and a suggestion, one in the
// low band with neither, nested under a single file under a single
// directory root.
func buildFixtureHierarchy() *types.UnifiedHierarchy {
	critical := &types.HierarchyNode{
		Kind:     types.NodeEntity,
		EntityID: "main.go:function:Run",
		Priority: &types.PriorityScore{
			EntityID:        "main.go:function:Run",
			NormalizedScore: map[string]float64{"complexity": 0.95},
			Composite:       0.9,
			Band:            types.BandCritical,
			Issues:          []types.Issue{{Category: "complexity", Severity: 18, Evidence: "cyclomatic complexity 40"}},
			Suggestions:     []types.Suggestion{{Kind: types.RefactorExtractMethod, Rationale: "split branches", EstimatedSaved: 120}},
		},
	}
	low := &types.HierarchyNode{
		Kind:     types.NodeEntity,
		EntityID: "main.go:function:Helper",
		Priority: &types.PriorityScore{
			EntityID:  "main.go:function:Helper",
			Composite: 0.1,
			Band:      types.BandLow,
		},
	}
	file := &types.HierarchyNode{
		Kind: types.NodeFile,
		Path: "main.go",
		Health: &types.HealthScore{
			Value:         0.5,
			CriticalCount: 1,
			LowCount:      1,
		},
		Children: []*types.HierarchyNode{critical, low},
	}
	root := &types.HierarchyNode{
		Kind: types.NodeDirectory,
		Path: ".",
		Health: &types.HealthScore{
			Value:         0.5,
			CriticalCount: 1,
			LowCount:      1,
		},
		Children: []*types.HierarchyNode{file},
	}
	return &types.UnifiedHierarchy{Root: root, GeneratedFor: "/project"}
}
