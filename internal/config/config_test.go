package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestValidateRejectsBadBandsRows(t *testing.T) {
	cfg := Default()
	cfg.LSH.Bands = 33 // 128 is not divisible by 33
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "num_hashes")
}

func TestValidateRejectsBadWeightSum(t *testing.T) {
	cfg := Default()
	cfg.LSH.Weights.AST = 0.9
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestLoadKDLMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().LSH.Similarity, cfg.LSH.Similarity)
}

func TestLoadKDLParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	kdlContent := `
analysis {
    max_files 500
    modules "complexity" "clones"
}
lsh {
    similarity 0.9
    weights {
        ast 0.5
        token 0.3
        sem 0.2
    }
}
quality_gates {
    max_critical 0
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".valknut.kdl"), []byte(kdlContent), 0o644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Analysis.MaxFiles)
	assert.Equal(t, []string{"complexity", "clones"}, cfg.Analysis.Modules)
	assert.InDelta(t, 0.9, cfg.LSH.Similarity, 1e-9)
	assert.Equal(t, 0, cfg.Gates.MaxCritical)
}

func TestLocalTOMLOverlayMerges(t *testing.T) {
	dir := t.TempDir()
	toml := `
[analysis]
max_files = 42

[lsh]
similarity = 0.95
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".valknut.local.toml"), []byte(toml), 0o644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Analysis.MaxFiles)
	assert.InDelta(t, 0.95, cfg.LSH.Similarity, 1e-9)
}

func TestReallocateWeightsProportional(t *testing.T) {
	weights := map[string]float64{"complexity": 0.35, "clone_mass": 0.20, "structure": 0.20, "graph": 0.15, "coverage": 0.10}
	present := map[string]bool{"complexity": true, "clone_mass": true, "structure": true, "graph": true} // coverage missing
	out := ReallocateWeights(weights, present)

	var sum float64
	for _, w := range out {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	_, hasCoverage := out["coverage"]
	assert.False(t, hasCoverage)
}
