// Package index builds valknut's Entity Index (§4.2): the immutable,
// queryable graph of every Entity discovered across a run, with call edges
// resolved same-file first, then same-module, then project-wide by unique
// name before falling back to an external edge.
package index

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/sibyllinesoft/valknut/internal/types"
)

// Index is the read side of the Entity Index. It is built once via Builder
// and is safe for concurrent reads by every downstream feature extractor;
// nothing mutates it after Build returns.
type Index struct {
	entities map[types.EntityID]*types.Entity
	byPath   map[string][]types.EntityID
	byName   map[string][]types.EntityID
	ordered  []types.EntityID // deterministic, path-sorted iteration order
}

// Get returns the entity for id, or nil if unknown.
func (ix *Index) Get(id types.EntityID) *types.Entity {
	return ix.entities[id]
}

// All returns every entity in deterministic (path, then declaration) order.
func (ix *Index) All() []*types.Entity {
	out := make([]*types.Entity, 0, len(ix.ordered))
	for _, id := range ix.ordered {
		out = append(out, ix.entities[id])
	}
	return out
}

// ByPath returns every entity whose Path is path: the file entity and every
// entity declared in the file, parents and nested alike.
func (ix *Index) ByPath(path string) []*types.Entity {
	ids := ix.byPath[path]
	out := make([]*types.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, ix.entities[id])
	}
	return out
}

// ByName returns every entity sharing a normalized name, across all files —
// the candidate set a call edge resolves against once same-file lookup misses.
func (ix *Index) ByName(name string) []*types.Entity {
	ids := ix.byName[name]
	out := make([]*types.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, ix.entities[id])
	}
	return out
}

// Len reports the total number of indexed entities.
func (ix *Index) Len() int {
	return len(ix.entities)
}

// Builder accumulates EntityTrees from parallel language-adapter workers and
// produces one immutable Index. Builder itself IS safe for concurrent Add
// calls: each Add takes a short mutex to append its tree, and Build
// assembles the final structure once.
type Builder struct {
	mu    sync.Mutex
	trees []*types.EntityTree
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add registers one file's parse result. Safe to call concurrently from
// many pipeline workers.
func (b *Builder) Add(tree *types.EntityTree) {
	if tree == nil {
		return
	}
	b.mu.Lock()
	b.trees = append(b.trees, tree)
	b.mu.Unlock()
}

// Build performs the reduce phase: flattens every accumulated tree into one
// Index, then resolves call edges in three tiers (§4.2): same-file exact
// name match, then same-module (same directory) unique name match, then
// project-wide unique name match; anything left unresolved is marked
// External so downstream graph features can still count it as fan-out.
func (b *Builder) Build() *Index {
	ix := &Index{
		entities: make(map[types.EntityID]*types.Entity),
		byPath:   make(map[string][]types.EntityID),
		byName:   make(map[string][]types.EntityID),
	}

	for _, tree := range b.trees {
		for _, e := range tree.Entities {
			ix.entities[e.ID] = e
			ix.byPath[e.Path] = append(ix.byPath[e.Path], e.ID)
			ix.byName[e.Name] = append(ix.byName[e.Name], e.ID)
		}
	}

	ix.ordered = make([]types.EntityID, 0, len(ix.entities))
	for id := range ix.entities {
		ix.ordered = append(ix.ordered, id)
	}
	sort.Slice(ix.ordered, func(i, j int) bool {
		a, b := ix.entities[ix.ordered[i]], ix.entities[ix.ordered[j]]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Range.Start != b.Range.Start {
			return a.Range.Start < b.Range.Start
		}
		return ix.ordered[i] < ix.ordered[j]
	})

	ix.resolveCallEdges()
	return ix
}

func (ix *Index) resolveCallEdges() {
	for _, id := range ix.ordered {
		e := ix.entities[id]
		for i := range e.Calls {
			ix.resolveOneCallEdge(e, &e.Calls[i])
		}
	}
}

func (ix *Index) resolveOneCallEdge(caller *types.Entity, edge *types.CallEdge) {
	// Tier 1: same file, exact normalized name.
	for _, candID := range ix.byPath[caller.Path] {
		cand := ix.entities[candID]
		if cand.Name == edge.CalleeName && cand.Kind != types.KindFile {
			edge.CalleeID = cand.ID
			return
		}
	}

	candidates := ix.byName[edge.CalleeName]

	// Tier 2: same module (directory), unique match only — an ambiguous
	// same-directory match is no better than guessing, so it falls through.
	dir := filepath.Dir(caller.Path)
	var sameModule []types.EntityID
	for _, candID := range candidates {
		if filepath.Dir(ix.entities[candID].Path) == dir {
			sameModule = append(sameModule, candID)
		}
	}
	if len(sameModule) == 1 {
		edge.CalleeID = sameModule[0]
		return
	}

	// Tier 3: project-wide, unique name match only.
	if len(candidates) == 1 {
		edge.CalleeID = candidates[0]
		return
	}

	edge.External = true
}
