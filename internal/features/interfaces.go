// Package features implements valknut's Feature Extraction Pipeline (§4.3):
// the complexity, structure, graph and coverage extractors that turn an
// Entity Index into a FeatureVector per entity, plus the thread-safe
// accumulator extractors write into.
package features

import (
	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

// Extractor declares its output feature names and runs against the whole
// index, writing into acc. Extractors are independent of one another and
// run in parallel per-entity batches (§4.3); none may depend on another
// extractor's output within the same pass.
type Extractor interface {
	// Name identifies the extractor for cache-version tagging and logs.
	Name() string
	// RequiresProjectGlobalState reports whether this extractor needs a
	// full pass over the index before it can score any single entity
	// (e.g. corpus-wide stop-motif detection, directory aggregates).
	RequiresProjectGlobalState() bool
	// Run computes features (and optionally Issues/Suggestions) for every
	// applicable entity in ix, writing results into acc.
	Run(ix *index.Index, acc *Accumulator) error
}

// Result bundles the non-numeric output an extractor can attach to an
// entity alongside its FeatureVector contribution.
type Result struct {
	Issues      []types.Issue
	Suggestions []types.Suggestion
}
