package scoring

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

const criticalHealthPenalty = 0.1

// dirAccum is the working aggregate for one directory while the tree is
// built bottom-up: total token weight and the size-weighted sum of child
// health deficits (1 - health), per the Rollup formula (§4.5).
type dirAccum struct {
	node          *types.HierarchyNode
	weightedTotal float64
	deficitSum    float64
	dirs          map[string]*dirAccum
	order         []string
}

// BuildHierarchy assembles the UnifiedHierarchy (§3) from an Entity Index
// and its PriorityScores: entity leaves under file nodes under directory
// nodes, each file/directory carrying a rolled-up HealthScore.
func BuildHierarchy(ix *index.Index, scores map[types.EntityID]*types.PriorityScore, projectRoot string) *types.UnifiedHierarchy {
	byFile := make(map[string][]*types.Entity)
	for _, e := range ix.All() {
		if e.Kind == types.KindFile {
			continue
		}
		byFile[e.Path] = append(byFile[e.Path], e)
	}

	var filePaths []string
	for path := range byFile {
		filePaths = append(filePaths, path)
	}
	sort.Strings(filePaths)

	root := &dirAccum{
		node: &types.HierarchyNode{Kind: types.NodeDirectory, Path: "."},
		dirs: make(map[string]*dirAccum),
	}

	for _, path := range filePaths {
		fileNode, weight := buildFileNode(path, byFile[path], scores)
		deficit := 1 - fileNode.Health.Value
		insertFile(root, path, fileNode, weight, deficit)
	}

	finalizeDir(root)

	return &types.UnifiedHierarchy{
		Root:         root.node,
		GeneratedFor: projectRoot,
	}
}

func buildFileNode(path string, entities []*types.Entity, scores map[types.EntityID]*types.PriorityScore) (*types.HierarchyNode, float64) {
	node := &types.HierarchyNode{Kind: types.NodeFile, Path: path}

	var weightedSum, totalWeight float64
	var criticalCount int
	var worst float64

	sort.Slice(entities, func(i, j int) bool { return entities[i].Range.Start < entities[j].Range.Start })

	for _, e := range entities {
		score, ok := scores[e.ID]
		composite := 0.0
		if ok {
			composite = score.Composite
			if score.Band == types.BandCritical {
				criticalCount++
			}
			if composite > worst {
				worst = composite
			}
		}
		weight := float64(e.TokenCount())
		if weight <= 0 {
			weight = 1
		}
		weightedSum += composite * weight
		totalWeight += weight

		node.Children = append(node.Children, &types.HierarchyNode{
			Kind:     types.NodeEntity,
			EntityID: e.ID,
			Priority: score,
		})
	}

	meanComposite := 0.0
	if totalWeight > 0 {
		meanComposite = weightedSum / totalWeight
	}

	health := 1 - meanComposite
	if criticalCount > 0 {
		health -= criticalHealthPenalty
	}
	health = clamp01(health)

	node.Health = &types.HealthScore{
		Value:          health,
		CriticalCount:  criticalCount,
		MeanComposite:  meanComposite,
		WorstComposite: worst,
	}

	return node, totalWeight
}

// insertFile walks path's directory chain from root, creating intermediate
// dirAccums as needed, and attaches fileNode to its immediate parent. The
// parent's weighted deficit total is updated directly; finalizeDir's
// recursion rolls that contribution further up to every ancestor.
func insertFile(root *dirAccum, path string, fileNode *types.HierarchyNode, weight, deficit float64) {
	dir := filepath.ToSlash(filepath.Dir(path))
	var parts []string
	if dir != "." && dir != "" {
		parts = strings.Split(dir, "/")
	}

	cur := root
	accumPath := "."
	for _, part := range parts {
		if part == "" {
			continue
		}
		accumPath = filepath.ToSlash(filepath.Join(accumPath, part))
		child, ok := cur.dirs[part]
		if !ok {
			child = &dirAccum{
				node: &types.HierarchyNode{Kind: types.NodeDirectory, Path: accumPath},
				dirs: make(map[string]*dirAccum),
			}
			cur.dirs[part] = child
			cur.order = append(cur.order, part)
		}
		cur = child
	}

	cur.node.Children = append(cur.node.Children, fileNode)
	if weight <= 0 {
		weight = 1
	}
	cur.weightedTotal += weight
	cur.deficitSum += deficit * weight
}

// finalizeDir recursively finalizes every directory's HealthScore from its
// accumulated size-weighted deficit sum, then rolls its own deficit
// contribution up into its parent accumulator via the returned
// (weight, deficit) pair — callers at the root discard the return value.
func finalizeDir(d *dirAccum) (float64, float64) {
	for _, name := range d.order {
		child := d.dirs[name]
		weight, deficit := finalizeDir(child)
		d.weightedTotal += weight
		d.deficitSum += deficit * weight
		d.node.Children = append(d.node.Children, child.node)
	}

	health := 1.0
	if d.weightedTotal > 0 {
		health = clamp01(1 - d.deficitSum/d.weightedTotal)
	}
	if d.node.Health == nil {
		d.node.Health = &types.HealthScore{}
	}
	d.node.Health.Value = health

	return d.weightedTotal, 1 - health
}
