package results

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// HierarchySchema describes the shape of MarshalHierarchy's output as a
// JSON Schema document, so a downstream CI tool can validate the
// unified hierarchy JSON (§6) before parsing it, the same way the
// teacher describes its MCP tool parameters declaratively rather than
// validating them ad hoc.
func HierarchySchema() *jsonschema.Schema {
	healthSchema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"value":           {Type: "number", Description: "Aggregate health in [0,1], 1 is healthiest"},
			"critical_count":  {Type: "integer"},
			"high_count":      {Type: "integer"},
			"medium_count":    {Type: "integer"},
			"low_count":       {Type: "integer"},
			"mean_composite":  {Type: "number"},
			"worst_composite": {Type: "number"},
		},
		Required: []string{"value"},
	}

	issueSchema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"category": {Type: "string"},
			"severity": {Type: "integer", Description: "0-20 scale"},
			"evidence": {Type: "string"},
		},
		Required: []string{"category", "severity"},
	}

	suggestionSchema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"kind":            {Type: "string"},
			"rationale":       {Type: "string"},
			"estimated_saved": {Type: "integer"},
		},
		Required: []string{"kind"},
	}

	prioritySchema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"entity_id":        {Type: "string"},
			"normalized_score": {Type: "object"},
			"composite":        {Type: "number", Description: "Composite priority in [0,1]"},
			"band":             {Type: "string", Description: "critical | high | medium | low"},
			"issues":           {Type: "array", Items: issueSchema},
			"suggestions":      {Type: "array", Items: suggestionSchema},
			"tags":             {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"entity_id", "composite", "band"},
	}

	// HierarchyNode is self-referential via Children; a literal Go struct
	// cycle here would make this schema itself unmarshalable (json.Marshal
	// never terminates on a cyclic pointer graph), so children is
	// described structurally rather than nested to unbounded depth.
	nodeSchema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"kind":      {Type: "string", Description: "file | directory | entity"},
			"path":      {Type: "string"},
			"entity_id": {Type: "string"},
			"health":    healthSchema,
			"priority":  prioritySchema,
			"children": {
				Type:        "array",
				Description: "recursively shaped like this same node schema",
				Items:       &jsonschema.Schema{Type: "object"},
			},
		},
		Required: []string{"kind"},
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"root":          nodeSchema,
			"generated_for": {Type: "string"},
			"schema_hash":   {Type: "string", Description: "sha256 of the global feature schema used to produce this document"},
		},
		Required: []string{"root", "generated_for"},
	}
}
