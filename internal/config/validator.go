package config

import (
	"fmt"
	"math"

	verrors "github.com/sibyllinesoft/valknut/internal/errors"
)

// Validate checks a Config for the invariants §6 requires, returning a
// ConfigError for the first problem found. Weight sums are checked with a
// small tolerance since configuration is typically hand-edited.
func Validate(cfg *Config) error {
	if cfg.LSH.Bands <= 0 {
		return verrors.NewConfigError("lsh.bands", fmt.Sprint(cfg.LSH.Bands),
			"lsh.bands must be positive", fmt.Errorf("got %d", cfg.LSH.Bands))
	}
	if cfg.LSH.NumHashes%cfg.LSH.Bands != 0 {
		return verrors.NewConfigError("lsh.num_hashes", fmt.Sprint(cfg.LSH.NumHashes),
			"lsh.num_hashes must be evenly divisible by lsh.bands (H = bands*rows)",
			fmt.Errorf("num_hashes=%d bands=%d", cfg.LSH.NumHashes, cfg.LSH.Bands))
	}

	wsum := cfg.LSH.Weights.AST + cfg.LSH.Weights.PDG + cfg.LSH.Weights.Sem
	if math.Abs(wsum-1.0) > 0.01 {
		return verrors.NewConfigError("lsh.weights", fmt.Sprintf("%.3f", wsum),
			"lsh.weights.{ast,token,sem} must sum to 1.0 +/- 0.01",
			fmt.Errorf("sum=%.3f", wsum))
	}

	if cfg.LSH.Similarity <= 0 || cfg.LSH.Similarity > 1 {
		return verrors.NewConfigError("lsh.similarity", fmt.Sprintf("%.3f", cfg.LSH.Similarity),
			"lsh.similarity must be in (0,1]", fmt.Errorf("got %.3f", cfg.LSH.Similarity))
	}

	if cfg.LSH.TargetLower > cfg.LSH.TargetUpper {
		return verrors.NewConfigError("lsh.auto_calibrate.target", fmt.Sprintf("[%.1f,%.1f]", cfg.LSH.TargetLower, cfg.LSH.TargetUpper),
			"target band lower bound must not exceed upper bound", fmt.Errorf("lower=%.1f upper=%.1f", cfg.LSH.TargetLower, cfg.LSH.TargetUpper))
	}

	sw := cfg.Scoring.Weights
	swsum := sw.Complexity + sw.CloneMass + sw.Structure + sw.Graph + sw.Coverage
	if swsum > 0 && math.Abs(swsum-1.0) > 0.01 {
		return verrors.NewConfigError("scoring.weights", fmt.Sprintf("%.3f", swsum),
			"scoring.weights.* must sum to 1.0 +/- 0.01 when any weight is set",
			fmt.Errorf("sum=%.3f", swsum))
	}

	for _, m := range cfg.Analysis.Modules {
		if !validModule(m) {
			return verrors.NewConfigError("analysis.modules", m,
				"must be one of complexity|structure|graph|clones|coverage|refactoring",
				fmt.Errorf("unknown module %q", m))
		}
	}

	return nil
}

func validModule(m string) bool {
	switch m {
	case "complexity", "structure", "graph", "clones", "coverage", "refactoring":
		return true
	default:
		return false
	}
}

// ReallocateWeights proportionally redistributes the weight of a disabled
// feature across the remaining present features (§4.5, §9 Open Question:
// "spec requires proportional reallocation").
func ReallocateWeights(weights map[string]float64, present map[string]bool) map[string]float64 {
	var presentSum float64
	for k, w := range weights {
		if present[k] {
			presentSum += w
		}
	}
	if presentSum == 0 {
		return weights
	}
	out := make(map[string]float64, len(weights))
	for k, w := range weights {
		if present[k] {
			out[k] = w / presentSum
		}
	}
	return out
}
