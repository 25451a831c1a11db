package features

import (
	"path/filepath"
	"sort"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

const structureExtractorVersion = 1

// StructureExtractor computes directory and file level structural
// features (§4.3): file/subdirectory/LOC counts per directory, LOC/byte
// size/entity count per file, huge_file flagging, and split-candidate
// suggestions via label-propagation community detection on the file's
// internal call graph.
type StructureExtractor struct {
	HugeFileLines int // files with more lines than this get an Issue
	MaxDirFiles   int // directories with more immediate files than this get an Issue
	MaxDirSubdirs int // directories with more immediate subdirectories than this get an Issue
	MaxDirLOC     int // directories with more total LOC (own files only) than this get an Issue
}

func NewStructureExtractor() *StructureExtractor {
	return &StructureExtractor{HugeFileLines: 600, MaxDirFiles: 40, MaxDirSubdirs: 20, MaxDirLOC: 6000}
}

func (s *StructureExtractor) Name() string                    { return "structure" }
func (s *StructureExtractor) RequiresProjectGlobalState() bool { return true }

func (s *StructureExtractor) Run(ix *index.Index, acc *Accumulator) error {
	dirFiles := make(map[string]map[string]bool)
	dirLOC := make(map[string]int)

	for _, e := range ix.All() {
		if e.Kind != types.KindFile {
			continue
		}
		dir := filepath.Dir(e.Path)
		if dirFiles[dir] == nil {
			dirFiles[dir] = make(map[string]bool)
		}
		dirFiles[dir][e.Path] = true

		loc := countLines(e.Source)
		dirLOC[dir] += loc

		entityCount := len(ix.ByPath(e.Path)) - 1 // exclude the file entity itself
		acc.Set(e.ID, "file_loc", float64(loc), s.Name(), structureExtractorVersion)
		acc.Set(e.ID, "file_byte_size", float64(len(e.Source)), s.Name(), structureExtractorVersion)
		acc.Set(e.ID, "file_entity_count", float64(entityCount), s.Name(), structureExtractorVersion)

		hugeFile := 0.0
		if loc > s.HugeFileLines {
			hugeFile = 1.0
			acc.AddIssue(e.ID, types.Issue{Category: "structure", Severity: 8, Evidence: "file exceeds huge-file line threshold"})
		}
		acc.Set(e.ID, "huge_file", hugeFile, s.Name(), structureExtractorVersion)

		if groups := splitCandidates(ix, e.Path); len(groups) > 1 {
			acc.AddSuggestion(e.ID, types.Suggestion{
				Kind:      types.RefactorSplitFile,
				Rationale: "file contains multiple loosely-coupled entity clusters",
			})
		}
	}

	subdirCounts := countImmediateSubdirs(dirFiles)

	for dir, files := range dirFiles {
		fileCount := len(files)
		subdirCount := subdirCounts[dir]
		totalLOC := dirLOC[dir]

		for f := range files {
			id := types.NewFileEntityID(f)
			acc.Set(id, "dir_file_count", float64(fileCount), s.Name(), structureExtractorVersion)
			acc.Set(id, "dir_subdir_count", float64(subdirCount), s.Name(), structureExtractorVersion)
			acc.Set(id, "dir_total_loc", float64(totalLOC), s.Name(), structureExtractorVersion)
		}

		if fileCount > s.MaxDirFiles {
			for f := range files {
				acc.AddIssue(types.NewFileEntityID(f), types.Issue{Category: "structure", Severity: 5, Evidence: "directory exceeds max file count"})
			}
		}
		if subdirCount > s.MaxDirSubdirs {
			for f := range files {
				acc.AddIssue(types.NewFileEntityID(f), types.Issue{Category: "structure", Severity: 4, Evidence: "directory exceeds max subdirectory count"})
			}
		}
		if totalLOC > s.MaxDirLOC {
			for f := range files {
				acc.AddIssue(types.NewFileEntityID(f), types.Issue{Category: "structure", Severity: 6, Evidence: "directory exceeds max total LOC"})
			}
		}
	}
	return nil
}

// countImmediateSubdirs counts, for every directory that holds at least one
// file, how many other such directories are its immediate children —
// §4.3's per-directory subdirectory count.
func countImmediateSubdirs(dirFiles map[string]map[string]bool) map[string]int {
	counts := make(map[string]int, len(dirFiles))
	for dir := range dirFiles {
		parent := filepath.Dir(dir)
		if parent == dir {
			continue
		}
		counts[parent]++
	}
	return counts
}

func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	lines := 1
	for _, b := range src {
		if b == '\n' {
			lines++
		}
	}
	return lines
}

// splitCandidates runs a small label-propagation pass over the call graph
// restricted to entities declared in path: each entity starts in its own
// label, then repeatedly adopts the majority label among its call
// neighbors until labels stabilize or the iteration cap is hit. Clusters
// with more than one surviving label are split candidates.
func splitCandidates(ix *index.Index, path string) map[string]bool {
	entities := ix.ByPath(path)
	if len(entities) < 3 {
		return nil
	}

	label := make(map[types.EntityID]string, len(entities))
	neighbors := make(map[types.EntityID][]types.EntityID, len(entities))
	inFile := make(map[types.EntityID]bool, len(entities))
	for _, e := range entities {
		label[e.ID] = string(e.ID)
		inFile[e.ID] = true
	}
	for _, e := range entities {
		for _, call := range e.Calls {
			if call.CalleeID != "" && inFile[call.CalleeID] {
				neighbors[e.ID] = append(neighbors[e.ID], call.CalleeID)
				neighbors[call.CalleeID] = append(neighbors[call.CalleeID], e.ID)
			}
		}
	}

	for iter := 0; iter < 10; iter++ {
		changed := false
		for _, e := range entities {
			counts := make(map[string]int)
			for _, n := range neighbors[e.ID] {
				counts[label[n]]++
			}
			candidates := make([]string, 0, len(counts))
			for l := range counts {
				candidates = append(candidates, l)
			}
			sort.Strings(candidates)

			best, bestCount := label[e.ID], 0
			for _, l := range candidates {
				if c := counts[l]; c > bestCount {
					best, bestCount = l, c
				}
			}
			if best != label[e.ID] {
				label[e.ID] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	groups := make(map[string]bool)
	for _, e := range entities {
		if e.Kind == types.KindFile {
			continue
		}
		groups[label[e.ID]] = true
	}
	return groups
}
