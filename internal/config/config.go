// Package config defines valknut's recognized configuration surface (§6)
// and the loader/validator pair that builds a Config from disk.
//
// Loading itself is a thin collaborator (the product-level CLI owns flag
// parsing and precedence); this package only defines the shape, defaults,
// and validation of the options the engine understands.
package config

// Config is the full set of options the engine recognizes.
type Config struct {
	Analysis Analysis
	LSH      LSH
	Scoring  Scoring
	Gates    QualityGates
}

// Analysis controls which extractors run and which files are discovered.
type Analysis struct {
	Modules         []string // complexity | structure | graph | clones | coverage | refactoring
	IncludePatterns []string
	ExcludePatterns []string
	MaxFiles        int
	CoveragePath    string // optional lcov/cobertura/json artifact
}

// LSH controls the clone-detection subsystem (§4.4).
type LSH struct {
	MinFunctionTokens int
	MinMatchTokens    int
	Similarity        float64
	NumHashes         int
	Bands             int
	ShingleSize       int
	Weights           LSHWeights
	AutoCalibrate     bool
	TargetLower       float64 // groups per kloc
	TargetUpper       float64
	RequireBlocks     bool
	StopMotifDensity  float64
}

type LSHWeights struct {
	AST float64
	PDG float64 // token-Jaccard dimension, named for the verified-score formula in §4.4
	Sem float64
}

// Scoring controls the composite-priority weighting (§4.5).
type Scoring struct {
	Weights ScoringWeights
}

type ScoringWeights struct {
	Complexity float64
	CloneMass  float64
	Structure  float64
	Graph      float64
	Coverage   float64
}

// QualityGates are enforced at emit time and determine the process exit code.
type QualityGates struct {
	MaxComplexity    int
	MinHealth        float64
	MaxDebt          float64
	MaxIssues        int
	MaxCritical      int
	MaxHighPriority  int
}

// Default returns the engine's documented defaults (§4.4, §4.5, §6).
func Default() *Config {
	return &Config{
		Analysis: Analysis{
			Modules:         []string{"complexity", "structure", "graph", "clones"},
			IncludePatterns: []string{"**/*"},
			ExcludePatterns: []string{"**/vendor/**", "**/node_modules/**", "**/.git/**"},
			MaxFiles:        100000,
		},
		LSH: LSH{
			MinFunctionTokens: 40,
			MinMatchTokens:    24,
			Similarity:        0.82,
			NumHashes:         128,
			Bands:             32,
			ShingleSize:       5,
			Weights:           LSHWeights{AST: 0.35, PDG: 0.45, Sem: 0.20},
			AutoCalibrate:     true,
			TargetLower:       2,
			TargetUpper:       8,
			RequireBlocks:     true,
			StopMotifDensity:  0.3,
		},
		Scoring: Scoring{
			Weights: ScoringWeights{
				Complexity: 0.35,
				CloneMass:  0.20,
				Structure:  0.20,
				Graph:      0.15,
				Coverage:   0.10,
			},
		},
		Gates: QualityGates{
			MaxComplexity:   25,
			MinHealth:       0.0,
			MaxDebt:         1e9,
			MaxIssues:       1 << 30,
			MaxCritical:     1 << 30,
			MaxHighPriority: 1 << 30,
		},
	}
}

// Rows returns NumHashes / Bands, the rows per band in §6's H=bands·rows
// invariant, given the configured number of bands.
func (l LSH) Rows() int {
	if l.Bands == 0 {
		return 0
	}
	return l.NumHashes / l.Bands
}
