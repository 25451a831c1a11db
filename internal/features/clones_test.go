package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/lsh"
	"github.com/sibyllinesoft/valknut/internal/types"
)

const cloneBodyA = `func sumA(x, y int) int {
	total := x + y
	if total > 100 {
		total = 100
	}
	return total
}`

const cloneBodyB = `func sumB(p, q int) int {
	result := p + q
	if result > 100 {
		result = 100
	}
	return result
}`

func cloneFnEntity(path, name, source string) *types.Entity {
	return &types.Entity{
		ID:     types.NewEntityID(path, types.KindFunction, name),
		Kind:   types.KindFunction,
		Path:   path,
		Name:   name,
		Source: []byte(source),
	}
}

func TestCloneExtractorEmitsFeatures(t *testing.T) {
	b := index.NewBuilder()
	b.Add(&types.EntityTree{Path: "a.go", Entities: []*types.Entity{cloneFnEntity("a.go", "sumA", cloneBodyA)}})
	b.Add(&types.EntityTree{Path: "b.go", Entities: []*types.Entity{cloneFnEntity("b.go", "sumB", cloneBodyB)}})
	ix := b.Build()

	settings := lsh.Settings{
		MinFunctionTokens: 5, MinMatchTokens: 5, Similarity: 0.5,
		NumHashes: 64, Bands: 16, ShingleSize: 3,
		WeightAST: 0.4, WeightToken: 0.4, WeightSem: 0.2,
		RequireBlocks: false, StopMotifDensity: 0.3,
	}
	ext := NewCloneExtractor(settings, 1.0)
	acc := NewAccumulator()
	require.NoError(t, ext.Run(ix, acc))

	idA := types.NewEntityID("a.go", types.KindFunction, "sumA")
	vec := acc.Vector(idA)
	require.NotNil(t, vec)

	val, ok := vec.Get("clone_groups_count")
	require.True(t, ok)
	assert.Equal(t, 1.0, val)

	sim, ok := vec.Get("max_clone_similarity")
	require.True(t, ok)
	assert.Greater(t, sim, 0.0)
}

func TestCloneExtractorNoopWithoutClones(t *testing.T) {
	b := index.NewBuilder()
	b.Add(&types.EntityTree{Path: "a.go", Entities: []*types.Entity{cloneFnEntity("a.go", "solo", "func solo() { return }")}})
	ix := b.Build()

	settings := lsh.Settings{MinFunctionTokens: 1, MinMatchTokens: 1, Similarity: 0.5, NumHashes: 32, Bands: 8, ShingleSize: 2}
	ext := NewCloneExtractor(settings, 1.0)
	acc := NewAccumulator()
	require.NoError(t, ext.Run(ix, acc))

	assert.Nil(t, acc.Vector(types.NewEntityID("a.go", types.KindFunction, "solo")))
}
