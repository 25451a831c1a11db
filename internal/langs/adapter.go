package langs

import (
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/sibyllinesoft/valknut/internal/types"
)

// Adapter drives one Profile's tree-sitter grammar and query against a
// file's content, producing an EntityTree. One Adapter per Profile is built
// once and reused across files of that language; tree_sitter.Parser is not
// safe for concurrent use, so callers needing parallelism build one Adapter
// per worker goroutine from the same Profile.
type Adapter struct {
	profile *Profile
	parser  *tree_sitter.Parser
	query   *tree_sitter.Query
}

// NewAdapter compiles profile's grammar and query once. A profile whose
// grammar or query fails to load (the known tree-sitter Go binding quirk
// where NewQuery returns a nil query with no error) yields a nil adapter;
// callers fall back to treating the file as unparseable.
func NewAdapter(profile *Profile) *Adapter {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(profile.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil
	}

	query, _ := tree_sitter.NewQuery(language, profile.EntityQuery)
	if query == nil {
		return nil
	}

	return &Adapter{profile: profile, parser: parser, query: query}
}

// Parse extracts an EntityTree from content. Parents are emitted before
// their children (topological order), matching EntityTree's contract. A
// file that tree-sitter cannot parse at all still yields a single
// file-kind, Unparseable Entity rather than an error, per the adapter
// contract: partial results beat a dropped file.
func (a *Adapter) Parse(path string, content []byte) (*types.EntityTree, error) {
	fileID := types.NewFileEntityID(path)
	fileEntity := newFileEntity(fileID, path, content)
	fileEntity.Language = a.profile.Name

	tree := a.parser.Parse(content, nil)
	if tree == nil || tree.RootNode() == nil {
		fileEntity.Unparseable = true
		return &types.EntityTree{Path: path, Language: a.profile.Name, Entities: []*types.Entity{fileEntity}}, nil
	}
	defer tree.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(a.query, tree.RootNode(), content)
	captureNames := a.query.CaptureNames()

	entities := []*types.Entity{fileEntity}
	seen := make(map[types.ByteRange]bool)

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		names := make(map[string]string, 4)
		var mainNode *tree_sitter.Node
		var mainCapture string

		for _, c := range match.Captures {
			capture := captureNames[c.Index]
			node := c.Node
			if strings.Contains(capture, ".") {
				names[capture] = string(content[node.StartByte():node.EndByte()])
				continue
			}
			if capture == "import" {
				if edge := importEdge(names, node, content); edge.ToPath != "" {
					fileEntity.Imports = append(fileEntity.Imports, edge)
				}
				continue
			}
			if _, isEntity := a.profile.CaptureKinds[capture]; !isEntity {
				continue
			}
			mainNode = &node
			mainCapture = capture
		}

		if mainNode == nil {
			continue
		}
		rng := types.ByteRange{Start: int(mainNode.StartByte()), End: int(mainNode.EndByte())}
		if seen[rng] {
			continue
		}
		seen[rng] = true

		kind := a.profile.CaptureKinds[mainCapture]
		rawName := names[mainCapture+".name"]
		if rawName == "" {
			rawName = "<anonymous>"
		}

		ent := &types.Entity{
			ID:       types.NewEntityID(path, kind, qualifiedName(rawName, mainNode.StartByte())),
			Kind:     kind,
			Path:     path,
			Range:    types.ByteRange{Start: int(mainNode.StartByte()), End: int(mainNode.EndByte())},
			Lines:    types.LineRange{Start: int(mainNode.StartPosition().Row) + 1, End: int(mainNode.EndPosition().Row) + 1},
			Language: a.profile.Name,
			Name:     normalizeName(rawName),
			RawName:  rawName,
			Source:   content[mainNode.StartByte():mainNode.EndByte()],
		}
		ent.Calls = a.collectCalls(mainNode, content)
		entities = append(entities, ent)
	}

	nestEntities(fileEntity, entities[1:])
	sortTopological(entities)

	return &types.EntityTree{Path: path, Language: a.profile.Name, Entities: entities}, nil
}

func newFileEntity(id types.EntityID, path string, content []byte) *types.Entity {
	return &types.Entity{
		ID:      id,
		Kind:    types.KindFile,
		Path:    path,
		Range:   types.ByteRange{Start: 0, End: len(content)},
		Source:  content,
		Name:    path,
		RawName: path,
	}
}

// collectCalls walks node's entire subtree for call-expression nodes. Calls
// made from a nested function are attributed to that inner entity too (it
// gets its own walk on its own visit); the outer entity's call list is a
// superset including its nested bodies. Repeated calls stay repeated: each
// CallEdge is resolved on its own, and duplicates are not merged.
func (a *Adapter) collectCalls(node *tree_sitter.Node, content []byte) []types.CallEdge {
	var calls []types.CallEdge
	var walk func(n tree_sitter.Node)
	walk = func(n tree_sitter.Node) {
		if a.profile.CallNodeKinds[n.Kind()] {
			if callee := firstIdentifierText(n, content); callee != "" {
				calls = append(calls, types.CallEdge{CalleeName: callee})
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child != nil {
				walk(*child)
			}
		}
	}
	walk(*node)
	return calls
}

// firstIdentifierText returns the text of the first identifier-like child
// of a call node, which is the callee in every supported grammar's call
// expression shape (function_call, member_call, invocation_expression...).
func firstIdentifierText(n tree_sitter.Node, content []byte) string {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "field_identifier", "property_identifier",
			"member_expression", "selector_expression", "scoped_identifier",
			"qualified_name", "name":
			text := string(content[child.StartByte():child.EndByte()])
			if idx := strings.LastIndexAny(text, ".:>"); idx >= 0 && idx+1 < len(text) {
				text = text[idx+1:]
			}
			return text
		}
	}
	return ""
}

func importEdge(names map[string]string, node tree_sitter.Node, content []byte) types.ImportEdge {
	target := names["import.source"]
	if target == "" {
		target = names["import.path"]
	}
	if target == "" {
		target = string(content[node.StartByte():node.EndByte()])
	}
	return types.ImportEdge{ToPath: strings.Trim(target, `"'`)}
}

// qualifiedName disambiguates anonymous entities (closures, lambdas) by
// folding in the byte offset; a named entity keeps its name unchanged, so
// same-name siblings such as overloads share it. Callers needing a stable
// human-facing name use Entity.Name instead.
func qualifiedName(rawName string, offset uint) string {
	if rawName == "<anonymous>" {
		return rawName + "@" + itoa(offset)
	}
	return rawName
}

func itoa(v uint) string {
	if v == 0 {
		return "0"
	}
	digits := make([]byte, 0, 10)
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}

// normalizeName strips generic/type-parameter noise so clone detection and
// cross-file name resolution compare on the same surface form.
func normalizeName(raw string) string {
	if idx := strings.IndexByte(raw, '<'); idx >= 0 {
		raw = raw[:idx]
	}
	if idx := strings.IndexByte(raw, '['); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

// nestEntities assigns ParentID/Children by innermost-enclosing byte range;
// entities is mutated in place. Quadratic in entity count per file, which
// is fine: files rarely hold more than a few hundred extracted entities.
func nestEntities(file *types.Entity, entities []*types.Entity) {
	for _, e := range entities {
		var parent *types.Entity = file
		for _, candidate := range entities {
			if candidate == e {
				continue
			}
			if candidate.Range.Contains(e.Range) && candidate.Range.Len() < parent.Range.Len() {
				parent = candidate
			}
		}
		e.ParentID = parent.ID
		parent.Children = append(parent.Children, e.ID)
	}
}

// sortTopological reorders entities so each parent precedes its children,
// satisfying EntityTree's documented contract; stable on input order among
// siblings since nestEntities already emitted them in query-match order.
func sortTopological(entities []*types.Entity) {
	byID := make(map[types.EntityID]*types.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	depth := make(map[types.EntityID]int, len(entities))
	var depthOf func(id types.EntityID) int
	depthOf = func(id types.EntityID) int {
		if d, ok := depth[id]; ok {
			return d
		}
		e, ok := byID[id]
		if !ok || e.ParentID == "" {
			depth[id] = 0
			return 0
		}
		d := depthOf(e.ParentID) + 1
		depth[id] = d
		return d
	}
	for _, e := range entities {
		depthOf(e.ID)
	}
	sort.SliceStable(entities, func(i, j int) bool {
		return depth[entities[i].ID] < depth[entities[j].ID]
	})
}
