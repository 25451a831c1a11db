package types

// HealthScore is a per-file or per-directory well-being aggregate in
// [0,1], where 1 is pristine.
type HealthScore struct {
	Value          float64 `json:"value"`
	CriticalCount  int     `json:"critical_count"`
	HighCount      int     `json:"high_count"`
	MediumCount    int     `json:"medium_count"`
	LowCount       int     `json:"low_count"`
	MeanComposite  float64 `json:"mean_composite"`
	WorstComposite float64 `json:"worst_composite"`
}

// NodeKind distinguishes the container/leaf shapes of a UnifiedHierarchy node.
type NodeKind string

const (
	NodeDirectory NodeKind = "directory"
	NodeFile      NodeKind = "file"
	NodeEntity    NodeKind = "entity"
)

// HierarchyNode is one node of the Directory -> Directory|File -> Entity ->
// Issue|Suggestion output tree (§3 UnifiedHierarchy).
type HierarchyNode struct {
	Kind     NodeKind `json:"kind"`
	Path     string   `json:"path,omitempty"` // directory or file path; empty for entity nodes
	EntityID EntityID `json:"entity_id,omitempty"`

	Health   *HealthScore   `json:"health,omitempty"`   // present for directory/file containers
	Priority *PriorityScore `json:"priority,omitempty"` // present for entity nodes

	Children []*HierarchyNode `json:"children,omitempty"`
}

// UnifiedHierarchy is the full output tree produced by the Rollup stage.
type UnifiedHierarchy struct {
	Root         *HierarchyNode `json:"root"`
	GeneratedFor string         `json:"generated_for"` // project root path
	SchemaHash   string         `json:"schema_hash,omitempty"`
}
