package lsh

import (
	"sort"
	"strings"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/semantic"
	"github.com/sibyllinesoft/valknut/internal/types"
)

// identifierSimilarity scores the semantic dimension via Jaro-Winkler
// over each entity's joined stemmed-identifier vocabulary; always
// enabled since the engine already gates its use behind WeightSem.
var identifierSimilarity = semantic.NewFuzzyMatcher(true, 0, "jaro-winkler")

// Config mirrors the tunables in config.LSH; kept as its own struct so
// this package has no dependency on internal/config.
type Config struct {
	MinFunctionTokens int
	MinMatchTokens    int
	Similarity        float64
	NumHashes         int
	Bands             int
	ShingleSize       int
	WeightAST         float64
	WeightToken       float64
	WeightSem         float64
	RequireBlocks     bool
	StopMotifDensity  float64
	AutoCalibrate     bool
	TargetLower       float64 // groups per kloc
	TargetUpper       float64
}

func (c Config) rows() int { return c.NumHashes / c.Bands }

// entityRecord is the engine's per-entity working state through the clone
// pipeline's state machine: Shingled -> Signed -> Banded -> Candidate ->
// Verified -> terminal.
type entityRecord struct {
	entity    *types.Entity
	tokens    []Token
	shingles  []string
	signature Signature
	blockLike bool
}

// Engine runs the clone-detection pass over an index's function/method
// entities and returns the accepted CloneGroups only; the per-entity
// features (clone_mass, clone_groups_count, max_clone_similarity,
// clone_locations_count) are derived from those groups by
// features.CloneExtractor.
type Engine struct {
	cfg    Config
	hashes *HashFamily
}

func NewEngine(cfg Config) *Engine {
	if cfg.ShingleSize <= 0 {
		cfg.ShingleSize = 5
	}
	return &Engine{cfg: cfg, hashes: NewHashFamily(cfg.NumHashes)}
}

// Detect runs the full pipeline: tokenize -> shingle -> sign -> band ->
// verify -> denoise -> group.
func (e *Engine) Detect(ix *index.Index) []*types.CloneGroup {
	records := e.prepare(ix)
	candidates := e.candidatePairs(records)
	stopMotifs := e.stopMotifs(records)

	var scored []types.ClonePairScore
	byID := make(map[types.EntityID]*entityRecord, len(records))
	for _, r := range records {
		byID[r.entity.ID] = r
	}

	for _, pair := range candidates {
		a, b := byID[pair[0]], byID[pair[1]]
		score := e.verify(a, b)
		adjusted, ok := e.passDenoise(a, b, score, stopMotifs)
		if !ok {
			continue
		}
		if adjusted.Verified >= e.cfg.Similarity && minInt(tokenCount(a), tokenCount(b)) >= e.cfg.MinMatchTokens {
			scored = append(scored, adjusted)
		}
	}

	return group(scored, byID)
}

func (e *Engine) prepare(ix *index.Index) []*entityRecord {
	var records []*entityRecord
	for _, ent := range ix.All() {
		if ent.Kind != types.KindFunction && ent.Kind != types.KindMethod {
			continue
		}
		tokens := Normalize(ent.Source)
		if len(tokens) < e.cfg.MinFunctionTokens {
			continue
		}
		shingles := Shingle(tokens, e.cfg.ShingleSize)
		if len(shingles) == 0 {
			continue
		}
		rec := &entityRecord{
			entity:    ent,
			tokens:    tokens,
			shingles:  shingles,
			signature: e.hashes.Sign(shingles),
			blockLike: hasBlockStructure(ent.Source),
		}
		records = append(records, rec)
	}
	return records
}

// candidatePairs runs banded LSH: entities colliding in any band are
// candidate clones (§4.4).
func (e *Engine) candidatePairs(records []*entityRecord) [][2]types.EntityID {
	rows := e.cfg.rows()
	buckets := make(map[uint64][]int)
	for i, r := range records {
		keys := Bands(r.signature, e.cfg.Bands, rows)
		for _, k := range keys {
			buckets[k] = append(buckets[k], i)
		}
		r.signature.Release()
		r.signature = nil
	}

	seen := make(map[[2]types.EntityID]bool)
	var pairs [][2]types.EntityID
	for _, members := range buckets {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := records[members[i]].entity.ID, records[members[j]].entity.ID
				if a > b {
					a, b = b, a
				}
				key := [2]types.EntityID{a, b}
				if !seen[key] {
					seen[key] = true
					pairs = append(pairs, key)
				}
			}
		}
	}
	return pairs
}

// verify rescores a candidate pair on the three dimensions (§4.4): token
// Jaccard (exact, correcting the MinHash estimate), a structural
// similarity proxy (normalized-token multiset overlap, standing in for APTED tree
// edit distance — see DESIGN.md), and semantic similarity via
// Jaro-Winkler over the stemmed identifier stream.
func (e *Engine) verify(a, b *entityRecord) types.ClonePairScore {
	token := exactJaccard(a.shingles, b.shingles)
	structural := structuralSimilarity(a.tokens, b.tokens)
	semantic := semanticSimilarity(a.tokens, b.tokens)

	verified := e.cfg.WeightAST*structural + e.cfg.WeightToken*token + e.cfg.WeightSem*semantic
	return types.ClonePairScore{
		A: a.entity.ID, B: b.entity.ID,
		Structural: structural, Token: token, Semantic: semantic,
		Verified: verified,
	}
}

func exactJaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	inter, union := 0, len(setA)
	for s := range setB {
		if setA[s] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func toSet(shingles []string) map[string]bool {
	set := make(map[string]bool, len(shingles))
	for _, s := range shingles {
		set[s] = true
	}
	return set
}

// structuralSimilarity compares normalized-token streams (which already
// encode control-flow keywords and nesting via scope-renamed identifiers)
// using a sequence-alignment-free multiset overlap, a cheaper proxy for
// APTED tree-edit distance — see DESIGN.md for why no AST-diff library
// from the pack could stand in here.
func structuralSimilarity(a, b []Token) float64 {
	countA := make(map[string]int)
	for _, t := range a {
		countA[t.Normalized]++
	}
	countB := make(map[string]int)
	for _, t := range b {
		countB[t.Normalized]++
	}
	overlap := 0
	for k, ca := range countA {
		if cb, ok := countB[k]; ok {
			overlap += minInt(ca, cb)
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	if larger == 0 {
		return 0
	}
	return float64(overlap) / float64(larger)
}

// semanticSimilarity scores one Jaro-Winkler similarity between each
// entity's stemmed identifiers joined into a single string, used as the
// optional semantic
// dimension in place of embeddings (§4.4) — see DESIGN.md.
func semanticSimilarity(a, b []Token) float64 {
	wordsA := identifierStems(a)
	wordsB := identifierStems(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	joinedA := strings.Join(wordsA, " ")
	joinedB := strings.Join(wordsB, " ")
	return identifierSimilarity.Similarity(joinedA, joinedB)
}

func identifierStems(tokens []Token) []string {
	var out []string
	for _, t := range tokens {
		if strings.HasPrefix(t.Normalized, "V") && t.Stemmed != t.Normalized {
			out = append(out, t.Stemmed)
		}
	}
	return out
}

func hasBlockStructure(source []byte) bool {
	s := string(source)
	markers := []string{"if ", "if(", "for ", "for(", "while ", "while(", "try ", "try{", "switch "}
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func tokenCount(r *entityRecord) int { return len(r.tokens) }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// stopMotifs extracts shingles appearing in at least StopMotifDensity
// fraction of records' files — corpus-wide boilerplate (§4.4 filter 1).
// A shingle found in only two files, the most a single clone pair can
// share, is never a motif.
func (e *Engine) stopMotifs(records []*entityRecord) map[string]bool {
	fileSet := make(map[string]map[string]bool)
	for _, r := range records {
		if fileSet[r.entity.Path] == nil {
			fileSet[r.entity.Path] = make(map[string]bool)
		}
		for _, s := range r.shingles {
			fileSet[r.entity.Path][s] = true
		}
	}
	fileCount := make(map[string]int)
	for _, shingleSet := range fileSet {
		for s := range shingleSet {
			fileCount[s]++
		}
	}
	threshold := e.cfg.StopMotifDensity * float64(len(fileSet))
	motifs := make(map[string]bool)
	for s, count := range fileCount {
		if float64(count) >= threshold && threshold > 0 && count > 2 {
			motifs[s] = true
		}
	}
	return motifs
}

// passDenoise applies the three filters in order (§4.4): stop-motif
// dominance, I/O-mismatch penalty, and (when configured) the
// block-structure requirement. Returns the score with the I/O penalty
// applied, and false if either hard filter rejects the pair.
func (e *Engine) passDenoise(a, b *entityRecord, score types.ClonePairScore, motifs map[string]bool) (types.ClonePairScore, bool) {
	motifCount := 0
	for _, s := range a.shingles {
		if motifs[s] {
			motifCount++
		}
	}
	if len(a.shingles) > 0 && float64(motifCount)/float64(len(a.shingles)) > 0.6 {
		return score, false
	}

	if paramCountDiff(a, b) > 2 {
		score.Verified -= 0.15
	}

	if e.cfg.RequireBlocks && !(a.blockLike && b.blockLike) {
		return score, false
	}

	return score, true
}

// paramCountDiff approximates parameter-count divergence from the raw
// token stream's leading parenthesis depth rather than re-parsing — a
// coarse signal adequate for the denoising penalty, not for scoring.
func paramCountDiff(a, b *entityRecord) int {
	ca := countTopLevelCommas(a.tokens)
	cb := countTopLevelCommas(b.tokens)
	if ca > cb {
		return ca - cb
	}
	return cb - ca
}

func countTopLevelCommas(tokens []Token) int {
	depth := 0
	commas := 0
	started := false
	for _, t := range tokens {
		switch t.Normalized {
		case "(":
			depth++
			started = true
		case ")":
			depth--
			if depth == 0 && started {
				return commas + 1
			}
		case ",":
			if depth == 1 {
				commas++
			}
		}
	}
	return 0
}

// group builds the undirected graph of accepted pairs and returns its
// connected components as CloneGroups, each with a representative chosen
// by tokens*(size-1) (§4.4).
func group(scored []types.ClonePairScore, byID map[types.EntityID]*entityRecord) []*types.CloneGroup {
	adj := make(map[types.EntityID][]types.EntityID)
	pairScores := make(map[types.EntityID][]types.ClonePairScore)
	for _, s := range scored {
		adj[s.A] = append(adj[s.A], s.B)
		adj[s.B] = append(adj[s.B], s.A)
		pairScores[s.A] = append(pairScores[s.A], s)
	}

	visited := make(map[types.EntityID]bool)
	var groups []*types.CloneGroup
	var ids []types.EntityID
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, start := range ids {
		if visited[start] {
			continue
		}
		var members []types.EntityID
		queue := []types.EntityID{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, n := range adj[cur] {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

		var groupScores []types.ClonePairScore
		memberSet := make(map[types.EntityID]bool, len(members))
		for _, m := range members {
			memberSet[m] = true
		}
		for _, s := range scored {
			if memberSet[s.A] && memberSet[s.B] {
				groupScores = append(groupScores, s)
			}
		}

		rep, savedTokens := pickRepresentative(members, byID)
		groups = append(groups, &types.CloneGroup{
			ID:             string(members[0]) + "-clone-group",
			Members:        members,
			Representative: rep,
			PairScores:     groupScores,
			DominantDim:    dominantDimension(groupScores),
			SavedTokens:    savedTokens,
			Verdict:        types.VerdictKept,
		})
	}
	return groups
}

func pickRepresentative(members []types.EntityID, byID map[types.EntityID]*entityRecord) (types.EntityID, int) {
	best := members[0]
	bestScore := -1
	for _, m := range members {
		rec, ok := byID[m]
		if !ok {
			continue
		}
		tokens := len(rec.tokens)
		score := tokens * (len(members) - 1)
		if score > bestScore {
			bestScore = score
			best = m
		}
	}
	if bestScore < 0 {
		bestScore = 0
	}
	return best, bestScore
}

func dominantDimension(scores []types.ClonePairScore) types.CloneDimension {
	var sumStruct, sumToken, sumSem float64
	for _, s := range scores {
		sumStruct += s.Structural
		sumToken += s.Token
		sumSem += s.Semantic
	}
	switch {
	case sumStruct >= sumToken && sumStruct >= sumSem:
		return types.DimStructural
	case sumToken >= sumSem:
		return types.DimToken
	default:
		return types.DimSemantic
	}
}
