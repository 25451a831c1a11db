package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

func buildTestIndex(t *testing.T) *index.Index {
	t.Helper()
	b := index.NewBuilder()
	fileID := types.NewFileEntityID("pkg/big.go")
	fileEntity := &types.Entity{ID: fileID, Kind: types.KindFile, Path: "pkg/big.go", Source: make([]byte, 100)}
	fn := &types.Entity{
		ID: types.NewEntityID("pkg/big.go", types.KindFunction, "doWork"),
		Kind: types.KindFunction, Path: "pkg/big.go", Name: "doWork",
		Lines: types.LineRange{Start: 1, End: 10},
	}
	b.Add(&types.EntityTree{Path: "pkg/big.go", Entities: []*types.Entity{fileEntity, fn}})
	return b.Build()
}

func TestStructureExtractorFlagsHugeFile(t *testing.T) {
	ix := buildTestIndex(t)
	acc := NewAccumulator()
	ex := NewStructureExtractor()
	ex.HugeFileLines = 0 // force the huge-file path for this tiny fixture
	require.NoError(t, ex.Run(ix, acc))

	fileID := types.NewFileEntityID("pkg/big.go")
	vec := acc.Vector(fileID)
	require.NotNil(t, vec)
	v, ok := vec.Get("huge_file")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestStructureExtractorEmitsDirectoryFeatures(t *testing.T) {
	b := index.NewBuilder()
	f1 := &types.Entity{ID: types.NewFileEntityID("pkg/a.go"), Kind: types.KindFile, Path: "pkg/a.go", Source: []byte("line\n")}
	f2 := &types.Entity{ID: types.NewFileEntityID("pkg/b.go"), Kind: types.KindFile, Path: "pkg/b.go", Source: []byte("line\nline\n")}
	sub := &types.Entity{ID: types.NewFileEntityID("pkg/sub/c.go"), Kind: types.KindFile, Path: "pkg/sub/c.go", Source: []byte("line\n")}
	b.Add(&types.EntityTree{Path: "pkg/a.go", Entities: []*types.Entity{f1}})
	b.Add(&types.EntityTree{Path: "pkg/b.go", Entities: []*types.Entity{f2}})
	b.Add(&types.EntityTree{Path: "pkg/sub/c.go", Entities: []*types.Entity{sub}})
	ix := b.Build()

	acc := NewAccumulator()
	require.NoError(t, NewStructureExtractor().Run(ix, acc))

	vec := acc.Vector(f1.ID)
	require.NotNil(t, vec)
	fileCount, ok := vec.Get("dir_file_count")
	require.True(t, ok)
	assert.Equal(t, 2.0, fileCount)

	subdirCount, ok := vec.Get("dir_subdir_count")
	require.True(t, ok)
	assert.Equal(t, 1.0, subdirCount)

	totalLOC, ok := vec.Get("dir_total_loc")
	require.True(t, ok)
	assert.Equal(t, 5.0, totalLOC) // f1's 2 lines + f2's 3 lines (countLines counts a trailing newline as its own line); pkg/sub excluded
}

func TestStructureExtractorLabelPropagationTieBreakIsDeterministic(t *testing.T) {
	b := index.NewBuilder()
	fileEntity := &types.Entity{ID: types.NewFileEntityID("pkg/hub.go"), Kind: types.KindFile, Path: "pkg/hub.go"}
	hub := &types.Entity{ID: types.NewEntityID("pkg/hub.go", types.KindFunction, "hub"), Kind: types.KindFunction, Path: "pkg/hub.go", Name: "hub"}
	left := &types.Entity{
		ID: types.NewEntityID("pkg/hub.go", types.KindFunction, "left"), Kind: types.KindFunction, Path: "pkg/hub.go", Name: "left",
		Calls: []types.CallEdge{{CalleeName: "hub", CalleeID: hub.ID}},
	}
	right := &types.Entity{
		ID: types.NewEntityID("pkg/hub.go", types.KindFunction, "right"), Kind: types.KindFunction, Path: "pkg/hub.go", Name: "right",
		Calls: []types.CallEdge{{CalleeName: "hub", CalleeID: hub.ID}},
	}
	hub.Calls = []types.CallEdge{{CalleeName: "left", CalleeID: left.ID}, {CalleeName: "right", CalleeID: right.ID}}
	b.Add(&types.EntityTree{Path: "pkg/hub.go", Entities: []*types.Entity{fileEntity, hub, left, right}})
	ix := b.Build()

	var results []map[string]bool
	for i := 0; i < 20; i++ {
		results = append(results, splitCandidates(ix, "pkg/hub.go"))
	}
	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i], "label-propagation tie-breaking must be deterministic across runs")
	}
}

func TestCoverageExtractorNoopWithoutPath(t *testing.T) {
	ix := buildTestIndex(t)
	acc := NewAccumulator()
	ex := NewCoverageExtractor("")
	require.NoError(t, ex.Run(ix, acc))
	assert.Empty(t, acc.Vectors())
}

func TestGraphExtractorComputesDegrees(t *testing.T) {
	b := index.NewBuilder()
	caller := &types.Entity{
		ID: types.NewEntityID("a.go", types.KindFunction, "caller"), Kind: types.KindFunction, Path: "a.go", Name: "caller",
		Calls: []types.CallEdge{{CalleeName: "callee"}},
	}
	callee := &types.Entity{ID: types.NewEntityID("a.go", types.KindFunction, "callee"), Kind: types.KindFunction, Path: "a.go", Name: "callee"}
	b.Add(&types.EntityTree{Path: "a.go", Entities: []*types.Entity{caller, callee}})
	ix := b.Build()

	acc := NewAccumulator()
	require.NoError(t, NewGraphExtractor().Run(ix, acc))

	callerVec := acc.Vector(caller.ID)
	require.NotNil(t, callerVec)
	out, ok := callerVec.Get("out_degree")
	require.True(t, ok)
	assert.Equal(t, 1.0, out)

	calleeVec := acc.Vector(callee.ID)
	require.NotNil(t, calleeVec)
	in, ok := calleeVec.Get("in_degree")
	require.True(t, ok)
	assert.Equal(t, 1.0, in)
}
