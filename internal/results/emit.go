// Package results implements valknut's Results Model (§3, §6): invariant
// enforcement over the UnifiedHierarchy, the CI summary JSON, and the
// CSV/SonarQube/JSONL export projections, all derived from one Pipeline
// Executor Run so no exported field is present in a projection that is
// absent from the unified JSON (§6's export invariant).
package results

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/sibyllinesoft/valknut/internal/features"
	"github.com/sibyllinesoft/valknut/internal/types"
)

// schemaHash fingerprints the global feature schema (§6: cache entries and
// the unified hierarchy are both tagged by it) so two runs against
// different extractor versions are visibly distinguishable even if their
// raw numbers happen to coincide.
func schemaHash() string {
	data, _ := json.Marshal(features.Descriptors())
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MarshalHierarchy renders the unified hierarchy as indented, stably
// ordered JSON: encoding/json sorts map keys and preserves struct
// declaration order for the rest, so two runs over identical inputs
// produce byte-identical output (§8 invariant 3) without any extra
// canonicalization pass.
func MarshalHierarchy(h *types.UnifiedHierarchy) ([]byte, error) {
	h.SchemaHash = schemaHash()
	return json.MarshalIndent(h, "", "  ")
}

// entityIndex is the slice of *index.Index that ValidateInvariants needs;
// declared locally to avoid an import cycle (internal/index does not need
// to know about internal/results).
type entityIndex interface {
	All() []*types.Entity
	Get(types.EntityID) *types.Entity
}

// ValidateInvariants checks the subset of §8's testable invariants that
// are cheap to verify post hoc against the assembled tree: health and
// composite scores in range, every entity byte range nested inside its
// parent's, and severities in [0,20]. Violations are a sign of a bug
// upstream (rollup drift, clamp omitted, entity-tree corruption) — they
// are reported, never silently fixed here.
func ValidateInvariants(ix entityIndex, h *types.UnifiedHierarchy) error {
	for _, e := range ix.All() {
		if e.ParentID == "" {
			continue
		}
		parent := ix.Get(e.ParentID)
		if parent == nil {
			continue
		}
		if !parent.Range.Contains(e.Range) {
			return fmt.Errorf("entity %s range %v not contained by parent %s range %v", e.ID, e.Range, parent.ID, parent.Range)
		}
	}
	return walkInvariants(h.Root)
}

func walkInvariants(n *types.HierarchyNode) error {
	if n == nil {
		return nil
	}
	if n.Health != nil {
		if n.Health.Value < 0 || n.Health.Value > 1 {
			return fmt.Errorf("health score out of range at %s: %.6f", n.Path, n.Health.Value)
		}
	}
	if n.Priority != nil {
		if n.Priority.Composite < 0 || n.Priority.Composite > 1 {
			return fmt.Errorf("composite priority out of range for %s: %.6f", n.Priority.EntityID, n.Priority.Composite)
		}
		for _, issue := range n.Priority.Issues {
			if issue.Severity < 0 || issue.Severity > 20 {
				return fmt.Errorf("issue severity out of range for %s: %d", n.Priority.EntityID, issue.Severity)
			}
		}
	}
	for _, child := range n.Children {
		if err := walkInvariants(child); err != nil {
			return err
		}
	}
	return nil
}
