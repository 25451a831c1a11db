package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyllinesoft/valknut/internal/config"
)

// fixtureRoot builds a tiny fixture tree of files with an extension no
// registered language adapter claims, so Execute exercises discovery,
// caching, index assembly and rollup end-to-end without needing a real
// tree-sitter grammar to parse real source.
func fixtureRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.unknownlang"), []byte("alpha\nbeta\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.unknownlang"), []byte("gamma\n"), 0o644))
	return root
}

func TestExecuteEndToEndOnUnrecognizedFiles(t *testing.T) {
	root := fixtureRoot(t)
	cfg := config.Default()
	cfg.Analysis.Modules = nil // no extractors: isolates discovery/parse/index/rollup wiring

	run, err := Execute(context.Background(), Options{Root: root, Config: cfg})
	require.NoError(t, err)
	require.NotNil(t, run.Index)
	require.NotNil(t, run.Hierarchy)
	require.NotNil(t, run.Hierarchy.Root)

	assert.Equal(t, 2, run.Index.Len())
	for _, e := range run.Index.All() {
		assert.True(t, e.Unparseable, "a file whose extension no adapter claims is recorded as unparseable rather than dropped")
	}
}

func TestExecuteRespectsHardBudget(t *testing.T) {
	root := fixtureRoot(t)
	cfg := config.Default()
	cfg.Analysis.Modules = nil

	_, err := Execute(context.Background(), Options{
		Root:       root,
		Config:     cfg,
		HardBudget: time.Nanosecond,
	})
	assert.Error(t, err, "an expired hard budget cancels the run rather than completing it")
}

func TestExecutePropagatesCallerCancellation(t *testing.T) {
	root := fixtureRoot(t)
	cfg := config.Default()
	cfg.Analysis.Modules = nil

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, Options{Root: root, Config: cfg})
	assert.Error(t, err)
}

func TestExecuteBuildsHierarchyRootForProvidedRoot(t *testing.T) {
	root := fixtureRoot(t)
	cfg := config.Default()
	cfg.Analysis.Modules = nil

	run, err := Execute(context.Background(), Options{Root: root, Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, root, run.Hierarchy.GeneratedFor)
}

// TestExecuteEndToEndOnRealGoSource runs the full pipeline, real Go
// tree-sitter adapter included, against a small fixture of three
// functions calling one another, exercising parse, complexity, structure
// and graph extraction, scoring and rollup together.
func TestExecuteEndToEndOnRealGoSource(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Modules = []string{"complexity", "structure", "graph"}
	cfg.Analysis.IncludePatterns = []string{"**/*.go"}

	run, err := Execute(context.Background(), Options{Root: "testdata/sample", Config: cfg})
	require.NoError(t, err)
	require.NotEmpty(t, run.Index.All())

	var sawFunction bool
	for _, e := range run.Index.All() {
		assert.False(t, e.Unparseable, "a well-formed Go file must not fall back to the unparseable path")
		if e.Name == "HandleCheckout" || e.Name == "ProcessPayment" || e.Name == "ValidatePayment" {
			sawFunction = true
			if vec := run.Accumulator.Vector(e.ID); vec != nil {
				if v, ok := vec.Get("cyclomatic_complexity"); ok {
					assert.GreaterOrEqual(t, v, 1.0)
				}
			}
		}
	}
	assert.True(t, sawFunction, "the Go adapter must discover the fixture's three functions")
}
