package features

import (
	"math/rand"
	"sort"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

const graphExtractorVersion = 1

// GraphExtractor computes per-entity in-degree, out-degree, fan-out depth,
// strongly-connected-component (cycle) membership, and a betweenness
// approximation via random-walk sampling (§4.3), grounded on the teacher's
// graph_propagator.go / reference_tracker.go call-graph bookkeeping.
type GraphExtractor struct {
	// Walks/WalkLength bound the betweenness approximation's sampling cost;
	// larger values trade runtime for a less noisy estimate.
	Walks      int
	WalkLength int
	rng        *rand.Rand
}

func NewGraphExtractor() *GraphExtractor {
	return &GraphExtractor{Walks: 200, WalkLength: 12, rng: rand.New(rand.NewSource(1))}
}

func (g *GraphExtractor) Name() string                    { return "graph" }
func (g *GraphExtractor) RequiresProjectGlobalState() bool { return true }

func (g *GraphExtractor) Run(ix *index.Index, acc *Accumulator) error {
	callable := callableEntities(ix)
	adj, indeg, outdeg := buildAdjacency(ix, callable)

	sccOf := tarjanSCC(callable, adj)
	betweenness := g.approximateBetweenness(callable, adj)
	fanout := fanOutDepth(callable, adj)

	for _, id := range callable {
		scc := 0.0
		if len(sccOf[id]) > 1 {
			scc = 1.0
		}
		acc.Set(id, "in_degree", float64(indeg[id]), g.Name(), graphExtractorVersion)
		acc.Set(id, "out_degree", float64(outdeg[id]), g.Name(), graphExtractorVersion)
		acc.Set(id, "fan_out_depth", float64(fanout[id]), g.Name(), graphExtractorVersion)
		acc.Set(id, "cycle_membership", scc, g.Name(), graphExtractorVersion)
		acc.Set(id, "betweenness_approx", betweenness[id], g.Name(), graphExtractorVersion)
		if scc == 1.0 {
			acc.AddSuggestion(id, types.Suggestion{Kind: types.RefactorBreakCycle, Rationale: "entity participates in a call cycle"})
		}
	}
	return nil
}

func callableEntities(ix *index.Index) []types.EntityID {
	var out []types.EntityID
	for _, e := range ix.All() {
		if e.Kind == types.KindFunction || e.Kind == types.KindMethod {
			out = append(out, e.ID)
		}
	}
	return out
}

func buildAdjacency(ix *index.Index, ids []types.EntityID) (map[types.EntityID][]types.EntityID, map[types.EntityID]int, map[types.EntityID]int) {
	adj := make(map[types.EntityID][]types.EntityID, len(ids))
	indeg := make(map[types.EntityID]int, len(ids))
	outdeg := make(map[types.EntityID]int, len(ids))
	for _, id := range ids {
		e := ix.Get(id)
		for _, call := range e.Calls {
			if call.CalleeID == "" || call.External {
				continue
			}
			adj[id] = append(adj[id], call.CalleeID)
			outdeg[id]++
			indeg[call.CalleeID]++
		}
	}
	return adj, indeg, outdeg
}

// tarjanSCC returns, for every node, the set of node IDs in its strongly
// connected component (a singleton set for nodes outside any cycle).
func tarjanSCC(ids []types.EntityID, adj map[types.EntityID][]types.EntityID) map[types.EntityID]map[types.EntityID]bool {
	index := 0
	indices := make(map[types.EntityID]int)
	lowlink := make(map[types.EntityID]int)
	onStack := make(map[types.EntityID]bool)
	var stack []types.EntityID
	result := make(map[types.EntityID]map[types.EntityID]bool)

	var strongconnect func(v types.EntityID)
	strongconnect = func(v types.EntityID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, seen := indices[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			comp := make(map[types.EntityID]bool)
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp[w] = true
				if w == v {
					break
				}
			}
			for member := range comp {
				result[member] = comp
			}
		}
	}

	for _, id := range ids {
		if _, seen := indices[id]; !seen {
			strongconnect(id)
		}
	}
	return result
}

// fanOutDepth is the longest simple call chain reachable from each entity,
// capped at a depth budget so acyclic-but-deep graphs still terminate.
func fanOutDepth(ids []types.EntityID, adj map[types.EntityID][]types.EntityID) map[types.EntityID]int {
	const maxDepth = 64
	memo := make(map[types.EntityID]int, len(ids))
	var depthOf func(id types.EntityID, visiting map[types.EntityID]bool) int
	depthOf = func(id types.EntityID, visiting map[types.EntityID]bool) int {
		if d, ok := memo[id]; ok {
			return d
		}
		if visiting[id] || len(visiting) > maxDepth {
			return 0
		}
		visiting[id] = true
		best := 0
		for _, n := range adj[id] {
			if d := depthOf(n, visiting) + 1; d > best {
				best = d
			}
		}
		delete(visiting, id)
		memo[id] = best
		return best
	}
	out := make(map[types.EntityID]int, len(ids))
	for _, id := range ids {
		out[id] = depthOf(id, make(map[types.EntityID]bool))
	}
	return out
}

// approximateBetweenness samples random walks from random start nodes and
// counts how often each node is an interior hop, normalized by
// Walks*WalkLength —
// a cheap stand-in for exact betweenness centrality on large call graphs.
func (g *GraphExtractor) approximateBetweenness(ids []types.EntityID, adj map[types.EntityID][]types.EntityID) map[types.EntityID]float64 {
	counts := make(map[types.EntityID]int, len(ids))
	if len(ids) == 0 {
		return map[types.EntityID]float64{}
	}
	sorted := append([]types.EntityID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for w := 0; w < g.Walks; w++ {
		cur := sorted[g.rng.Intn(len(sorted))]
		for step := 0; step < g.WalkLength; step++ {
			next := adj[cur]
			if len(next) == 0 {
				break
			}
			if step > 0 {
				counts[cur]++
			}
			cur = next[g.rng.Intn(len(next))]
		}
	}

	out := make(map[types.EntityID]float64, len(ids))
	total := float64(g.Walks * g.WalkLength)
	for _, id := range ids {
		out[id] = float64(counts[id]) / total
	}
	return out
}
