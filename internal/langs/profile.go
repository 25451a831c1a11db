// Package langs implements valknut's language adapters (§4.1): one
// tree-sitter grammar per supported language, driven by a shared extractor
// so each adapter only has to declare its grammar, its entity query, and
// its call-expression node kinds.
package langs

import (
	"unsafe"

	"github.com/sibyllinesoft/valknut/internal/types"
)

// Profile is one language's grammar binding plus the tree-sitter query that
// locates its functions/methods/classes/modules/imports, and the node kinds
// that represent a call expression in that grammar.
type Profile struct {
	Name       string
	Extensions []string
	// Language matches the signature every tree-sitter grammar binding
	// exports: Language() unsafe.Pointer, wrapped by tree_sitter.NewLanguage
	// at adapter construction time.
	Language    func() unsafe.Pointer
	EntityQuery string
	// CaptureKinds maps a top-level capture name (e.g. "function") from
	// EntityQuery to the EntityKind it represents.
	CaptureKinds map[string]types.EntityKind
	// CallNodeKinds are node Kind() strings that represent a call/invocation
	// expression in this grammar; the callee identifier is taken from the
	// first identifier-like child.
	CallNodeKinds map[string]bool
	// BlockNodeKinds are node kinds counted as nested blocks for the LSH
	// require_blocks denoising filter (§4.4).
	BlockNodeKinds map[string]bool
}

func set(vals ...string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}
