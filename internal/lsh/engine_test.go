package lsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

func testConfig() Config {
	return Config{
		MinFunctionTokens: 5,
		MinMatchTokens:    5,
		Similarity:        0.5,
		NumHashes:         64,
		Bands:             16,
		ShingleSize:       3,
		WeightAST:         0.4,
		WeightToken:       0.4,
		WeightSem:         0.2,
		RequireBlocks:     false,
		StopMotifDensity:  0.3,
	}
}

func fnEntity(path, name string, source string) *types.Entity {
	return &types.Entity{
		ID:     types.NewEntityID(path, types.KindFunction, name),
		Kind:   types.KindFunction,
		Path:   path,
		Name:   name,
		Source: []byte(source),
	}
}

func buildIndex(entities ...*types.Entity) *index.Index {
	b := index.NewBuilder()
	byPath := map[string][]*types.Entity{}
	for _, e := range entities {
		byPath[e.Path] = append(byPath[e.Path], e)
	}
	for path, ents := range byPath {
		b.Add(&types.EntityTree{Path: path, Entities: ents})
	}
	return b.Build()
}

const bodyA = `func sumA(x, y int) int {
	total := x + y
	if total > 100 {
		total = 100
	}
	return total
}`

const bodyB = `func sumB(p, q int) int {
	result := p + q
	if result > 100 {
		result = 100
	}
	return result
}`

const bodyUnrelated = `func unrelated(name string) string {
	greeting := "hello " + name
	for i := 0; i < 3; i++ {
		greeting = greeting + "!"
	}
	return greeting
}`

func TestEngineDetectsNearIdenticalClones(t *testing.T) {
	ix := buildIndex(
		fnEntity("a.go", "sumA", bodyA),
		fnEntity("b.go", "sumB", bodyB),
		fnEntity("c.go", "unrelated", bodyUnrelated),
	)

	eng := NewEngine(testConfig())
	groups := eng.Detect(ix)

	require.Len(t, groups, 1)
	g := groups[0]
	assert.Len(t, g.Members, 2)
	assert.Contains(t, g.Members, types.NewEntityID("a.go", types.KindFunction, "sumA"))
	assert.Contains(t, g.Members, types.NewEntityID("b.go", types.KindFunction, "sumB"))
	assert.NotEmpty(t, g.Representative)
	assert.NotZero(t, g.SavedTokens)
}

func TestEngineIgnoresShortFunctions(t *testing.T) {
	ix := buildIndex(
		fnEntity("a.go", "tiny", "func tiny() {}"),
		fnEntity("b.go", "tiny2", "func tiny2() {}"),
	)
	cfg := testConfig()
	cfg.MinFunctionTokens = 50
	eng := NewEngine(cfg)
	groups := eng.Detect(ix)
	assert.Empty(t, groups)
}

func TestExactJaccardIdenticalSets(t *testing.T) {
	shingles := []string{"a\x1fb\x1fc", "b\x1fc\x1fd"}
	assert.Equal(t, 1.0, exactJaccard(shingles, shingles))
}

func TestExactJaccardDisjointSets(t *testing.T) {
	assert.Equal(t, 0.0, exactJaccard([]string{"a"}, []string{"b"}))
}

func TestStructuralSimilaritySymmetric(t *testing.T) {
	a := Normalize([]byte(bodyA))
	b := Normalize([]byte(bodyB))
	assert.Equal(t, structuralSimilarity(a, b), structuralSimilarity(b, a))
	assert.Greater(t, structuralSimilarity(a, b), 0.8)
}

func TestCandidatePairsFindsBandCollision(t *testing.T) {
	ix := buildIndex(
		fnEntity("a.go", "sumA", bodyA),
		fnEntity("b.go", "sumB", bodyB),
	)
	eng := NewEngine(testConfig())
	records := eng.prepare(ix)
	pairs := eng.candidatePairs(records)
	assert.NotEmpty(t, pairs)
}
