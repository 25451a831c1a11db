package features

import (
	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/lsh"
	"github.com/sibyllinesoft/valknut/internal/types"
)

// CloneExtractor wraps the LSH Clone Engine (§4.4) as a feature extractor,
// translating its CloneGroups into the four per-entity features the spec
// names: clone_mass, clone_groups_count, max_clone_similarity and
// clone_locations_count, plus a dedupe_clone Suggestion per group member.
type CloneExtractor struct {
	engine    *lsh.Engine
	totalKLOC float64
}

func NewCloneExtractor(settings lsh.Settings, totalKLOC float64) *CloneExtractor {
	return &CloneExtractor{
		engine:    lsh.NewEngine(lsh.FromSettings(settings)),
		totalKLOC: totalKLOC,
	}
}

func (c *CloneExtractor) Name() string                   { return "clones" }
func (c *CloneExtractor) RequiresProjectGlobalState() bool { return true }

func (c *CloneExtractor) Run(ix *index.Index, acc *Accumulator) error {
	groups, _, _ := c.engine.DetectCalibrated(ix, c.totalKLOC)

	massByEntity := make(map[types.EntityID]int)
	groupsByEntity := make(map[types.EntityID]int)
	maxSimByEntity := make(map[types.EntityID]float64)
	locationsByEntity := make(map[types.EntityID]int)

	for _, g := range groups {
		locations := len(g.Members)
		for _, m := range g.Members {
			groupsByEntity[m]++
			locationsByEntity[m] += locations - 1
			ent := ix.Get(m)
			if ent != nil {
				massByEntity[m] += len(ent.Source)
			}
		}
		for _, p := range g.PairScores {
			if p.Verified > maxSimByEntity[p.A] {
				maxSimByEntity[p.A] = p.Verified
			}
			if p.Verified > maxSimByEntity[p.B] {
				maxSimByEntity[p.B] = p.Verified
			}
		}
		for _, m := range g.Members {
			acc.AddSuggestion(m, types.Suggestion{
				Kind:           types.RefactorDedupeClone,
				Rationale:      "duplicates code already present elsewhere in the clone group",
				EstimatedSaved: g.SavedTokens,
			})
		}
	}

	for id, mass := range massByEntity {
		ent := ix.Get(id)
		total := len(ent.Source)
		ratio := 0.0
		if total > 0 {
			ratio = float64(mass) / float64(total)
			if ratio > 1 {
				ratio = 1
			}
		}
		acc.Set(id, "clone_mass", ratio, c.Name(), 1)
		acc.Set(id, "clone_groups_count", float64(groupsByEntity[id]), c.Name(), 1)
		acc.Set(id, "max_clone_similarity", maxSimByEntity[id], c.Name(), 1)
		acc.Set(id, "clone_locations_count", float64(locationsByEntity[id]), c.Name(), 1)
	}

	return nil
}
