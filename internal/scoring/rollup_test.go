package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

func TestBuildHierarchyComputesFileHealth(t *testing.T) {
	b := index.NewBuilder()
	idA := types.NewEntityID("pkg/a.go", types.KindFunction, "clean")
	idB := types.NewEntityID("pkg/a.go", types.KindFunction, "messy")
	b.Add(&types.EntityTree{Path: "pkg/a.go", Entities: []*types.Entity{
		{ID: idA, Kind: types.KindFunction, Path: "pkg/a.go", Source: make([]byte, 100)},
		{ID: idB, Kind: types.KindFunction, Path: "pkg/a.go", Source: make([]byte, 100)},
	}})
	ix := b.Build()

	scores := map[types.EntityID]*types.PriorityScore{
		idA: {EntityID: idA, Composite: 0.1, Band: types.BandLow},
		idB: {EntityID: idB, Composite: 0.95, Band: types.BandCritical},
	}

	h := BuildHierarchy(ix, scores, "/project")
	require.NotNil(t, h.Root)
	assert.Equal(t, "/project", h.GeneratedFor)

	fileNode := findNode(h.Root, types.NodeFile, "pkg/a.go")
	require.NotNil(t, fileNode)
	require.NotNil(t, fileNode.Health)
	assert.Less(t, fileNode.Health.Value, 1.0)
	assert.Equal(t, 1, fileNode.Health.CriticalCount)
}

func TestBuildHierarchyRollsUpDirectoryHealth(t *testing.T) {
	b := index.NewBuilder()
	idA := types.NewEntityID("pkg/a.go", types.KindFunction, "fn")
	b.Add(&types.EntityTree{Path: "pkg/a.go", Entities: []*types.Entity{
		{ID: idA, Kind: types.KindFunction, Path: "pkg/a.go", Source: make([]byte, 50)},
	}})
	ix := b.Build()
	scores := map[types.EntityID]*types.PriorityScore{idA: {EntityID: idA, Composite: 0.2}}

	h := BuildHierarchy(ix, scores, "/project")
	dirNode := findNode(h.Root, types.NodeDirectory, "pkg")
	require.NotNil(t, dirNode)
	require.NotNil(t, dirNode.Health)
	assert.GreaterOrEqual(t, dirNode.Health.Value, 0.0)
	assert.LessOrEqual(t, dirNode.Health.Value, 1.0)
}

func findNode(n *types.HierarchyNode, kind types.NodeKind, path string) *types.HierarchyNode {
	if n.Kind == kind && n.Path == path {
		return n
	}
	for _, c := range n.Children {
		if found := findNode(c, kind, path); found != nil {
			return found
		}
	}
	return nil
}
