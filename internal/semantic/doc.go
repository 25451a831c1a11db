// Package semantic provides the two string-similarity primitives the LSH
// clone engine's semantic dimension is built on (§4.4): stemming
// identifiers to a canonical root form, and scoring similarity between
// two stemmed-identifier vocabularies.
//
// Stemmer reduces words to their root forms using the Porter2 algorithm,
// so "validate" and "validation" normalize to the same token before
// near-miss clone verification compares them.
//
// FuzzyMatcher scores similarity between two strings using a
// configurable algorithm (Jaro-Winkler by default, with Levenshtein and
// bigram-cosine alternatives); the clone engine joins each entity's
// stemmed identifiers into one string per side and scores the pair.
//
// # Usage Example
//
//	stemmer := semantic.NewStemmer(true, "porter2", 3, nil)
//	fuzzer := semantic.NewFuzzyMatcher(true, 0.7, "jaro-winkler")
//	similarity := fuzzer.Similarity(stemmer.Stem("validate"), stemmer.Stem("validation"))
package semantic