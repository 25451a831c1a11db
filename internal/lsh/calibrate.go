package lsh

import (
	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

// Settings is the subset of config.LSH this package needs, copied
// field-by-field by callers (internal/pipeline) rather than imported
// directly, so internal/lsh stays free of a dependency on the config
// loader.
type Settings struct {
	MinFunctionTokens int
	MinMatchTokens    int
	Similarity        float64
	NumHashes         int
	Bands             int
	ShingleSize       int
	WeightAST         float64
	WeightToken       float64
	WeightSem         float64
	RequireBlocks     bool
	StopMotifDensity  float64
	AutoCalibrate     bool
	TargetLower       float64
	TargetUpper       float64
}

// FromSettings builds an engine Config from the equivalent config.LSH
// fields.
func FromSettings(s Settings) Config {
	return Config{
		MinFunctionTokens: s.MinFunctionTokens,
		MinMatchTokens:    s.MinMatchTokens,
		Similarity:        s.Similarity,
		NumHashes:         s.NumHashes,
		Bands:             s.Bands,
		ShingleSize:       s.ShingleSize,
		WeightAST:         s.WeightAST,
		WeightToken:       s.WeightToken,
		WeightSem:         s.WeightSem,
		RequireBlocks:     s.RequireBlocks,
		StopMotifDensity:  s.StopMotifDensity,
		AutoCalibrate:     s.AutoCalibrate,
		TargetLower:       s.TargetLower,
		TargetUpper:       s.TargetUpper,
	}
}

const (
	calibrationMinSample  = 100
	calibrationMaxIters   = 6
	calibrationStep       = 0.02
	calibrationSampleRate = 0.02
)

// DetectCalibrated runs Detect repeatedly over a stratified sample,
// nudging Similarity by +/-calibrationStep each round until the observed
// groups-per-kloc rate on the sample falls inside [TargetLower,
// TargetUpper], then runs once more over the full index at the converged
// threshold, or at the configured Similarity and weights when the search
// does not converge (§4.4 auto-calibration). Returns the groups, the threshold
// used, and whether the search converged within calibrationMaxIters
// rounds — callers should surface errors.NewCalibrationNonConvergence
// when convergence is false rather than silently trusting the result.
func (e *Engine) DetectCalibrated(ix *index.Index, totalKLOC float64) ([]*types.CloneGroup, float64, bool) {
	if !e.cfg.AutoCalibrate || totalKLOC <= 0 {
		return e.Detect(ix), e.cfg.Similarity, true
	}

	sample := stratifiedSample(ix, calibrationSampleRate, calibrationMinSample)
	threshold := e.cfg.Similarity
	weights := e.cfg
	converged := false

	for iter := 0; iter < calibrationMaxIters; iter++ {
		trial := NewEngine(weights)
		trial.cfg.Similarity = threshold
		groups := trial.Detect(sample)
		rate := float64(len(groups)) / totalKLOC
		precision := precisionProxy(groups, threshold)

		inBand := true
		switch {
		case rate < e.cfg.TargetLower:
			threshold -= calibrationStep
			inBand = false
		case rate > e.cfg.TargetUpper:
			threshold += calibrationStep
			inBand = false
		}

		if precision < 0.6 {
			weights = tightenTowardStructural(weights)
			inBand = false
		}

		if threshold <= 0 {
			threshold = calibrationStep
		}
		if threshold > 1 {
			threshold = 1
		}
		if inBand {
			converged = true
			break
		}
	}

	if !converged {
		threshold = e.cfg.Similarity
		weights = e.cfg
	}

	final := NewEngine(weights)
	final.cfg.Similarity = threshold
	return final.Detect(ix), threshold, converged
}

// precisionProxy approximates step 3's "fraction of pairs surviving all
// denoising filters with verified score > s+0.05" using each group's pair
// scores, since by construction every pair reaching a CloneGroup has
// already survived denoising.
func precisionProxy(groups []*types.CloneGroup, threshold float64) float64 {
	total, strong := 0, 0
	for _, g := range groups {
		for _, p := range g.PairScores {
			total++
			if p.Verified > threshold+0.05 {
				strong++
			}
		}
	}
	if total == 0 {
		return 1
	}
	return float64(strong) / float64(total)
}

// tightenTowardStructural moves 5% of the token weight and 5% of the
// semantic weight onto the structural dimension, so the three keep the
// same sum (§4.4 step 4: "tighten weights toward structural
// dimension" when the precision proxy is low).
func tightenTowardStructural(cfg Config) Config {
	shift := 0.05
	fromToken := cfg.WeightToken * shift
	fromSem := cfg.WeightSem * shift
	cfg.WeightToken -= fromToken
	cfg.WeightSem -= fromSem
	cfg.WeightAST += fromToken + fromSem
	return cfg
}

// stratifiedSample builds a reduced index covering rate fraction of ix's
// entities (minimum minCount), taken at an even stride across the
// path-sorted entity list so every directory contributes proportionally.
func stratifiedSample(ix *index.Index, rate float64, minCount int) *index.Index {
	all := ix.All()
	target := int(float64(len(all)) * rate)
	if target < minCount {
		target = minCount
	}
	if target >= len(all) {
		return ix
	}

	stride := len(all) / target
	if stride < 1 {
		stride = 1
	}

	byPath := make(map[string][]*types.Entity)
	var order []string
	for i := 0; i < len(all); i += stride {
		e := all[i]
		if _, ok := byPath[e.Path]; !ok {
			order = append(order, e.Path)
		}
		byPath[e.Path] = append(byPath[e.Path], e)
	}

	b := index.NewBuilder()
	for _, path := range order {
		b.Add(&types.EntityTree{Path: path, Entities: byPath[path]})
	}
	return b.Build()
}
