package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRobustStatsMedianAndMAD(t *testing.T) {
	stats := computeRobustStats([]float64{1, 2, 3, 4, 5})
	assert.Equal(t, 3.0, stats.median)
	assert.Equal(t, 1.0, stats.mad)
}

func TestNormalizeOrdersValuesWithinUnitRange(t *testing.T) {
	stats := computeRobustStats([]float64{1, 2, 3, 4, 5, 100})
	high := stats.normalize(100)
	low := stats.normalize(1)
	assert.Greater(t, high, low)
	assert.GreaterOrEqual(t, high, 0.0)
	assert.LessOrEqual(t, high, 1.0)
}

func TestBayesianSmoothPullsSmallEntitiesTowardMean(t *testing.T) {
	smoothed := bayesianSmooth(0.95, 0.5, 5, 50)
	assert.Less(t, smoothed, 0.95)
	assert.Greater(t, smoothed, 0.5)
}

func TestBayesianSmoothNoopAboveThreshold(t *testing.T) {
	smoothed := bayesianSmooth(0.95, 0.5, 500, 50)
	assert.Equal(t, 0.95, smoothed)
}

func TestPercentileInterpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 2.5, percentile(sorted, 0.5), 1e-9)
}
