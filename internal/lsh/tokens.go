// Package lsh implements valknut's LSH Clone Engine (§4.4): token
// normalization, shingling, MinHash signatures, banded candidate
// generation, three-dimension verification, denoising, grouping, and
// similarity auto-calibration.
package lsh

import (
	"unicode"

	"github.com/sibyllinesoft/valknut/internal/semantic"
)

// tokenStemmer stems identifier words into a canonical root form so
// near-miss verification can recognize renamed-but-equivalent tokens
// (validate/validation, compute/computing). Excludes nothing; the
// 3-character minimum length lives in stem below, matching the
// shingler's own token-length judgment rather than the stemmer's
// separate (and here unused) minLength gate.
var tokenStemmer = semantic.NewStemmer(true, "porter2", 0, nil)

// Token is one normalized lexical unit plus its stemmed identifier form,
// kept alongside each other so shingling can hash the normalized stream
// while verification still has the stemmed form for near-miss scoring.
type Token struct {
	Normalized string
	Stemmed    string
}

// Normalize strips comments, collapses literals to typed placeholders, and
// renames identifiers by scope position (V1, V2, ...) so structurally
// identical code with different names still matches (§4.4). Keywords,
// operators and punctuation pass through verbatim. It operates on raw
// source bytes with a hand-rolled scanner rather than a full language
// parser — the shingling stage does not need a parse tree, just a stable
// lexical stream, and valknut already owns ten different grammars for the
// stages that do need one.
func Normalize(source []byte) []Token {
	raw := lex(source)
	return renameIdentifiers(raw)
}

// lex splits source into a crude but consistent token stream: numbers and
// strings collapse to placeholders, identifiers are kept verbatim, and
// everything else is emitted rune-by-rune, so a multi-rune operator such as
// := becomes one token per rune.
func lex(source []byte) []string {
	runes := []rune(string(source))
	var out []string
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
		case r == '#':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '"' || r == '\'' || r == '`':
			quote := r
			i++
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				i++
			}
			i++
			out = append(out, "STR")
		case unicode.IsDigit(r):
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.' || runes[i] == '_' || unicode.IsLetter(runes[i])) {
				i++
			}
			out = append(out, "NUM")
		case unicode.IsLetter(r) || r == '_' || r == '$':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '$') {
				i++
			}
			out = append(out, string(runes[start:i]))
		default:
			out = append(out, string(r))
			i++
		}
	}
	return out
}

var keywords = buildKeywordSet()

func buildKeywordSet() map[string]bool {
	words := []string{
		"if", "else", "for", "while", "do", "switch", "case", "default", "break", "continue",
		"return", "func", "function", "def", "class", "struct", "interface", "enum", "trait",
		"try", "catch", "except", "finally", "throw", "raise", "import", "package", "using",
		"namespace", "public", "private", "protected", "static", "const", "let", "var", "new",
		"this", "self", "true", "false", "null", "nil", "none", "void", "int", "string", "bool",
		"float", "double", "async", "await", "yield", "in", "of", "as", "from", "export", "module",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// renameIdentifiers replaces non-keyword, non-placeholder tokens with
// positional names (V1, V2, ...) assigned in first-seen order, so two
// functions differing only by variable/parameter names produce identical
// shingle streams.
func renameIdentifiers(raw []string) []Token {
	seen := make(map[string]string)
	out := make([]Token, 0, len(raw))
	for _, tok := range raw {
		switch {
		case tok == "STR" || tok == "NUM":
			out = append(out, Token{Normalized: tok, Stemmed: tok})
		case len(tok) > 0 && (unicode.IsLetter(rune(tok[0])) || tok[0] == '_' || tok[0] == '$') && !keywords[tok]:
			name, ok := seen[tok]
			if !ok {
				name = "V" + itoa(len(seen)+1)
				seen[tok] = name
			}
			out = append(out, Token{Normalized: name, Stemmed: stem(tok)})
		default:
			out = append(out, Token{Normalized: tok, Stemmed: tok})
		}
	}
	return out
}

func stem(word string) string {
	if len(word) < 3 {
		return word
	}
	return tokenStemmer.Stem(word)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}

// Shingle emits overlapping k-grams of normalized tokens (§4.4), joining
// each window's Normalized forms with a separator unlikely to appear in
// source text.
func Shingle(tokens []Token, k int) []string {
	if k <= 0 || len(tokens) < k {
		return nil
	}
	shingles := make([]string, 0, len(tokens)-k+1)
	for i := 0; i+k <= len(tokens); i++ {
		s := ""
		for j := 0; j < k; j++ {
			if j > 0 {
				s += "\x1f"
			}
			s += tokens[i+j].Normalized
		}
		shingles = append(shingles, s)
	}
	return shingles
}
