package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/types"
)

func entity(path string, kind types.EntityKind, name string, callee string) *types.Entity {
	e := &types.Entity{
		ID:   types.NewEntityID(path, kind, name),
		Kind: kind,
		Path: path,
		Name: name,
	}
	if callee != "" {
		e.Calls = []types.CallEdge{{CalleeName: callee}}
	}
	return e
}

func TestBuildResolvesSameFileCall(t *testing.T) {
	tree := &types.EntityTree{
		Path: "a.go",
		Entities: []*types.Entity{
			entity("a.go", types.KindFunction, "caller", "callee"),
			entity("a.go", types.KindFunction, "callee", ""),
		},
	}
	b := NewBuilder()
	b.Add(tree)
	ix := b.Build()

	caller := ix.Get(types.NewEntityID("a.go", types.KindFunction, "caller"))
	require.NotNil(t, caller)
	require.Len(t, caller.Calls, 1)
	assert.Equal(t, types.NewEntityID("a.go", types.KindFunction, "callee"), caller.Calls[0].CalleeID)
	assert.False(t, caller.Calls[0].External)
}

func TestBuildResolvesProjectWideUniqueName(t *testing.T) {
	b := NewBuilder()
	b.Add(&types.EntityTree{Path: "a.go", Entities: []*types.Entity{entity("a.go", types.KindFunction, "caller", "helper")}})
	b.Add(&types.EntityTree{Path: "b.go", Entities: []*types.Entity{entity("b.go", types.KindFunction, "helper", "")}})
	ix := b.Build()

	caller := ix.Get(types.NewEntityID("a.go", types.KindFunction, "caller"))
	require.Len(t, caller.Calls, 1)
	assert.Equal(t, types.NewEntityID("b.go", types.KindFunction, "helper"), caller.Calls[0].CalleeID)
}

func TestBuildMarksAmbiguousCallExternal(t *testing.T) {
	b := NewBuilder()
	b.Add(&types.EntityTree{Path: "a.go", Entities: []*types.Entity{entity("a.go", types.KindFunction, "caller", "dup")}})
	b.Add(&types.EntityTree{Path: "b.go", Entities: []*types.Entity{entity("b.go", types.KindFunction, "dup", "")}})
	b.Add(&types.EntityTree{Path: "c.go", Entities: []*types.Entity{entity("c.go", types.KindFunction, "dup", "")}})
	ix := b.Build()

	caller := ix.Get(types.NewEntityID("a.go", types.KindFunction, "caller"))
	require.Len(t, caller.Calls, 1)
	assert.True(t, caller.Calls[0].External)
	assert.Empty(t, caller.Calls[0].CalleeID)
}

func TestDeterministicOrdering(t *testing.T) {
	b := NewBuilder()
	b.Add(&types.EntityTree{Path: "z.go", Entities: []*types.Entity{entity("z.go", types.KindFunction, "z", "")}})
	b.Add(&types.EntityTree{Path: "a.go", Entities: []*types.Entity{entity("a.go", types.KindFunction, "a", "")}})

	ix1 := b.Build()
	ix2 := b.Build()
	require.Equal(t, len(ix1.All()), len(ix2.All()))
	for i := range ix1.All() {
		assert.Equal(t, ix1.All()[i].ID, ix2.All()[i].ID)
	}
	assert.Equal(t, "a.go", ix1.All()[0].Path)
}
