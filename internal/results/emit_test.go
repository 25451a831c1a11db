package results

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

func TestMarshalHierarchyIsStableAndStampsSchemaHash(t *testing.T) {
	h := buildFixtureHierarchy()

	first, err := MarshalHierarchy(h)
	require.NoError(t, err)
	second, err := MarshalHierarchy(buildFixtureHierarchy())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second), "two runs over identical inputs produce byte-identical JSON")
	assert.NotEmpty(t, h.SchemaHash)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(first, &decoded))
	assert.Equal(t, "/project", decoded["generated_for"])
}

func buildFixtureIndex(t *testing.T) *index.Index {
	t.Helper()
	parent := &types.Entity{
		ID:    "main.go:file:main.go",
		Kind:  types.KindFile,
		Path:  "main.go",
		Range: types.ByteRange{Start: 0, End: 100},
	}
	child := &types.Entity{
		ID:       "main.go:function:Run",
		Kind:     types.KindFunction,
		Path:     "main.go",
		Range:    types.ByteRange{Start: 10, End: 40},
		ParentID: parent.ID,
	}
	b := index.NewBuilder()
	b.Add(&types.EntityTree{Path: "main.go", Entities: []*types.Entity{parent, child}})
	return b.Build()
}

func TestValidateInvariantsPassesOnWellFormedTree(t *testing.T) {
	ix := buildFixtureIndex(t)
	h := buildFixtureHierarchy()
	assert.NoError(t, ValidateInvariants(ix, h))
}

func TestValidateInvariantsCatchesOutOfRangeChild(t *testing.T) {
	parent := &types.Entity{ID: "f:file:f", Kind: types.KindFile, Path: "f", Range: types.ByteRange{Start: 0, End: 10}}
	child := &types.Entity{ID: "f:function:g", Kind: types.KindFunction, Path: "f", Range: types.ByteRange{Start: 5, End: 20}, ParentID: parent.ID}

	b := index.NewBuilder()
	b.Add(&types.EntityTree{Path: "f", Entities: []*types.Entity{parent, child}})
	ix := b.Build()

	err := ValidateInvariants(ix, buildFixtureHierarchy())
	assert.Error(t, err, "a child range escaping its parent's range must be reported")
}

func TestValidateInvariantsCatchesOutOfRangeHealth(t *testing.T) {
	ix := buildFixtureIndex(t)
	h := buildFixtureHierarchy()
	h.Root.Health.Value = 1.5

	assert.Error(t, ValidateInvariants(ix, h))
}
