package scoring

import (
	"github.com/sibyllinesoft/valknut/internal/config"
	"github.com/sibyllinesoft/valknut/internal/features"
	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

const bayesianThreshold = 50

// Engine turns an Accumulator's raw feature vectors into a PriorityScore
// per entity (§4.5): robust normalization, Bayesian smoothing, composite
// weighting with reallocation, and priority bands.
type Engine struct {
	weights map[string]float64
}

func NewEngine(weights config.ScoringWeights) *Engine {
	return &Engine{
		weights: map[string]float64{
			categoryComplexity: weights.Complexity,
			categoryCloneMass:  weights.CloneMass,
			categoryStructure:  weights.Structure,
			categoryGraph:      weights.Graph,
			categoryCoverage:   weights.Coverage,
		},
	}
}

// Score computes a PriorityScore for every entity present in acc.
func (e *Engine) Score(ix *index.Index, acc *features.Accumulator) map[types.EntityID]*types.PriorityScore {
	vectors := acc.Vectors()
	stats := e.fitStats(vectors)
	corpusMeans := normalizedMeans(vectors, stats)

	out := make(map[types.EntityID]*types.PriorityScore, len(vectors))
	for id, vec := range vectors {
		tokens := entityTokens(ix, id, vec)
		normalized := e.normalizeEntity(vec, stats, corpusMeans, tokens)
		present := presentCategories(vec)
		weights := config.ReallocateWeights(e.weights, present)

		var composite float64
		for category, w := range weights {
			score := normalized[category]
			if invertedCategories[category] {
				score = 1 - score
			}
			composite += w * score
		}
		composite = clamp01(composite)

		out[id] = &types.PriorityScore{
			EntityID:        id,
			NormalizedScore: normalized,
			Composite:       composite,
			Band:            types.PriorityBandFor(composite),
			Issues:          acc.Issues(id),
			Suggestions:     acc.Suggestions(id),
		}
	}
	return out
}

// fitStats computes per-feature robustStats across every entity that
// carries that feature, corpus-wide (§4.5).
func (e *Engine) fitStats(vectors map[types.EntityID]*types.FeatureVector) map[string]robustStats {
	raw := make(map[string][]float64)
	for _, vec := range vectors {
		for name, fv := range vec.Values {
			raw[name] = append(raw[name], fv.Value)
		}
	}
	stats := make(map[string]robustStats, len(raw))
	for name, values := range raw {
		stats[name] = computeRobustStats(values)
	}
	return stats
}

// normalizedMeans computes, per feature, the corpus-wide mean of that
// feature's normalized [0,1] values across every entity that carries it —
// the shrinkage target bayesianSmooth pulls small entities toward (§4.5),
// in place of the normalized midpoint.
func normalizedMeans(vectors map[types.EntityID]*types.FeatureVector, stats map[string]robustStats) map[string]float64 {
	sums := make(map[string]float64, len(stats))
	counts := make(map[string]int, len(stats))
	for _, vec := range vectors {
		for name, fv := range vec.Values {
			sums[name] += stats[name].normalize(fv.Value)
			counts[name]++
		}
	}
	means := make(map[string]float64, len(sums))
	for name, sum := range sums {
		if counts[name] > 0 {
			means[name] = sum / float64(counts[name])
		}
	}
	return means
}

// normalizeEntity computes, per category, the mean normalized (and
// Bayesian-smoothed) score across that category's present features.
func (e *Engine) normalizeEntity(vec *types.FeatureVector, stats map[string]robustStats, corpusMeans map[string]float64, tokens int) map[string]float64 {
	out := make(map[string]float64, len(allCategories))
	for _, category := range allCategories {
		var scores []float64
		for _, feature := range categoryFeatures[category] {
			fv, ok := vec.Values[feature]
			if !ok {
				continue
			}
			st := stats[feature]
			normalized := st.normalize(fv.Value)
			smoothed := bayesianSmooth(normalized, corpusMeans[feature], tokens, bayesianThreshold)
			scores = append(scores, smoothed)
		}
		if len(scores) > 0 {
			out[category] = mean(scores)
		}
	}
	return out
}

func presentCategories(vec *types.FeatureVector) map[string]bool {
	present := make(map[string]bool, len(allCategories))
	for _, category := range allCategories {
		for _, feature := range categoryFeatures[category] {
			if _, ok := vec.Values[feature]; ok {
				present[category] = true
				break
			}
		}
	}
	return present
}

// entityTokens resolves the token count used for Bayesian smoothing: the
// complexity extractor's own token_count feature when present, falling
// back to the entity's raw byte length.
func entityTokens(ix *index.Index, id types.EntityID, vec *types.FeatureVector) int {
	if fv, ok := vec.Values["token_count"]; ok {
		return int(fv.Value)
	}
	if ent := ix.Get(id); ent != nil {
		return ent.TokenCount()
	}
	return bayesianThreshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
