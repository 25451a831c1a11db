package lsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSettingsCopiesFields(t *testing.T) {
	s := Settings{
		MinFunctionTokens: 10, MinMatchTokens: 5, Similarity: 0.7,
		NumHashes: 64, Bands: 16, ShingleSize: 4,
		WeightAST: 0.3, WeightToken: 0.5, WeightSem: 0.2,
		RequireBlocks: true, StopMotifDensity: 0.3,
		AutoCalibrate: true, TargetLower: 2, TargetUpper: 8,
	}
	cfg := FromSettings(s)
	assert.Equal(t, s.Similarity, cfg.Similarity)
	assert.Equal(t, s.Bands, cfg.Bands)
	assert.Equal(t, s.TargetUpper, cfg.TargetUpper)
}

func TestDetectCalibratedSkipsWhenDisabled(t *testing.T) {
	ix := buildIndex(fnEntity("a.go", "sumA", bodyA), fnEntity("b.go", "sumB", bodyB))
	cfg := testConfig()
	cfg.AutoCalibrate = false
	eng := NewEngine(cfg)

	groups, threshold, converged := eng.DetectCalibrated(ix, 1.0)
	require.True(t, converged)
	assert.Equal(t, cfg.Similarity, threshold)
	assert.Len(t, groups, 1)
}

func TestDetectCalibratedConvergesWithinBudget(t *testing.T) {
	ix := buildIndex(
		fnEntity("a.go", "sumA", bodyA),
		fnEntity("b.go", "sumB", bodyB),
		fnEntity("c.go", "unrelated", bodyUnrelated),
	)
	cfg := testConfig()
	cfg.AutoCalibrate = true
	cfg.TargetLower = 0
	cfg.TargetUpper = 100
	eng := NewEngine(cfg)

	_, _, converged := eng.DetectCalibrated(ix, 1.0)
	assert.True(t, converged)
}
