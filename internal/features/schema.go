package features

import (
	"fmt"

	"github.com/sibyllinesoft/valknut/internal/types"
)

// complexityExtractorVersion etc. are declared alongside each extractor;
// schema.go only names them here for the registry below.
const (
	graphExtractorName     = "graph"
	structureExtractorName = "structure"
	coverageExtractorName  = "coverage"
	clonesExtractorName    = "clones"
)

// Descriptors is the global feature schema (§3 invariant 4): every name an
// extractor writes via Accumulator.Set must appear here, under the
// extractor that owns it and the version that extractor currently emits.
func Descriptors() []types.FeatureDescriptor {
	return []types.FeatureDescriptor{
		{Name: "cyclomatic_complexity", Semantic: types.FeatureCount, Extractor: "complexity", Version: complexityExtractorVersion, Summary: "McCabe cyclomatic complexity"},
		{Name: "cognitive_complexity", Semantic: types.FeatureCount, Extractor: "complexity", Version: complexityExtractorVersion, Summary: "Cognitive complexity (nesting-weighted)"},
		{Name: "max_nesting_depth", Semantic: types.FeatureCount, Extractor: "complexity", Version: complexityExtractorVersion, Summary: "Deepest block nesting level"},
		{Name: "param_count", Semantic: types.FeatureCount, Extractor: "complexity", Version: complexityExtractorVersion, Summary: "Declared parameter count"},
		{Name: "return_point_count", Semantic: types.FeatureCount, Extractor: "complexity", Version: complexityExtractorVersion, Summary: "Number of return statements"},
		{Name: "token_count", Semantic: types.FeatureCount, Extractor: "complexity", Version: complexityExtractorVersion, Summary: "Raw source token count"},

		{Name: "in_degree", Semantic: types.FeatureCount, Extractor: graphExtractorName, Version: graphExtractorVersion, Summary: "Incoming call-graph edges"},
		{Name: "out_degree", Semantic: types.FeatureCount, Extractor: graphExtractorName, Version: graphExtractorVersion, Summary: "Outgoing call-graph edges"},
		{Name: "fan_out_depth", Semantic: types.FeatureCount, Extractor: graphExtractorName, Version: graphExtractorVersion, Summary: "Longest outgoing call chain"},
		{Name: "cycle_membership", Semantic: types.FeatureBoolean, Extractor: graphExtractorName, Version: graphExtractorVersion, Summary: "Member of a call-graph cycle"},
		{Name: "betweenness_approx", Semantic: types.FeatureScore, Extractor: graphExtractorName, Version: graphExtractorVersion, Summary: "Random-walk betweenness approximation"},

		{Name: "file_loc", Semantic: types.FeatureCount, Extractor: structureExtractorName, Version: structureExtractorVersion, Summary: "File line count"},
		{Name: "file_byte_size", Semantic: types.FeatureCount, Extractor: structureExtractorName, Version: structureExtractorVersion, Summary: "File byte size"},
		{Name: "file_entity_count", Semantic: types.FeatureCount, Extractor: structureExtractorName, Version: structureExtractorVersion, Summary: "Entities declared in the file"},
		{Name: "huge_file", Semantic: types.FeatureBoolean, Extractor: structureExtractorName, Version: structureExtractorVersion, Summary: "File exceeds the huge-file line threshold"},
		{Name: "dir_file_count", Semantic: types.FeatureCount, Extractor: structureExtractorName, Version: structureExtractorVersion, Summary: "Files in the file's directory"},
		{Name: "dir_subdir_count", Semantic: types.FeatureCount, Extractor: structureExtractorName, Version: structureExtractorVersion, Summary: "Immediate subdirectories of the file's directory"},
		{Name: "dir_total_loc", Semantic: types.FeatureCount, Extractor: structureExtractorName, Version: structureExtractorVersion, Summary: "Total line count of the directory's own files"},

		{Name: "clone_mass", Semantic: types.FeatureRatio, Extractor: clonesExtractorName, Version: 1, Summary: "Fraction of entity tokens covered by clone groups"},
		{Name: "clone_groups_count", Semantic: types.FeatureCount, Extractor: clonesExtractorName, Version: 1, Summary: "Number of clone groups the entity belongs to"},
		{Name: "max_clone_similarity", Semantic: types.FeatureScore, Extractor: clonesExtractorName, Version: 1, Summary: "Highest verified similarity across the entity's clone pairs"},
		{Name: "clone_locations_count", Semantic: types.FeatureCount, Extractor: clonesExtractorName, Version: 1, Summary: "Other locations duplicating this entity"},

		{Name: "coverage_ratio", Semantic: types.FeatureRatio, Extractor: coverageExtractorName, Version: coverageExtractorVersion, Summary: "Fraction of entity lines covered by tests"},
	}
}

// ValidateSchema checks every feature name written into acc against
// Descriptors, per §3 invariant 4 and §8's testable property of the same
// number: a feature an extractor wrote but never declared is a
// programming error the pipeline should surface loudly, not silently
// score around.
func ValidateSchema(acc *Accumulator) error {
	known := make(map[string]bool, len(Descriptors()))
	for _, d := range Descriptors() {
		known[d.Name] = true
	}
	for id, vec := range acc.Vectors() {
		for name := range vec.Values {
			if !known[name] {
				return fmt.Errorf("feature %q on entity %s has no schema descriptor", name, id)
			}
		}
	}
	return nil
}
