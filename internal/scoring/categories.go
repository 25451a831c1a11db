package scoring

// category names mirror config.ScoringWeights's fields exactly, so the
// reallocation map built from it lines up key-for-key.
const (
	categoryComplexity = "complexity"
	categoryCloneMass  = "clone_mass"
	categoryStructure  = "structure"
	categoryGraph      = "graph"
	categoryCoverage   = "coverage"
)

// categoryFeatures groups the raw feature names each category's extractors
// emit (§4.3/§4.4). A category's score is the mean of its present member
// features' normalized scores for one entity.
var categoryFeatures = map[string][]string{
	categoryComplexity: {
		"cyclomatic_complexity", "cognitive_complexity", "max_nesting_depth",
		"param_count", "return_point_count",
	},
	categoryCloneMass: {
		"clone_mass", "clone_groups_count", "max_clone_similarity", "clone_locations_count",
	},
	categoryStructure: {
		"file_loc", "file_byte_size", "file_entity_count", "huge_file",
		"dir_file_count", "dir_subdir_count", "dir_total_loc",
	},
	categoryGraph: {
		"in_degree", "out_degree", "fan_out_depth", "cycle_membership", "betweenness_approx",
	},
	categoryCoverage: {
		"coverage_ratio",
	},
}

// invertedCategories lists categories where a higher raw value means lower
// risk, so the composite contribution is (1 - normalized) rather than
// normalized — coverage is the only one (§4.5: priority is a risk score,
// and more test coverage is protective, not risky).
var invertedCategories = map[string]bool{
	categoryCoverage: true,
}

var allCategories = []string{categoryComplexity, categoryCloneMass, categoryStructure, categoryGraph, categoryCoverage}
