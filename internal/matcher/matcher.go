// Package matcher finds the anagrams of a query inside a corpus.
package matcher

import (
	"github.com/gcbaptista/go-anagram-search/internal/tokenizer"
)

// Corpus is the read side of a loaded word list.
type Corpus interface {
	// Words returns every word in corpus order.
	Words() []string
	// Lookup returns the words with the given canonical signature, in corpus order.
	Lookup(signature string) []string
}

// Match returns every corpus word that is an anagram of query, in corpus order.
// An empty normalized query matches nothing and the corpus is not consulted.
func Match(query string, corpus Corpus) []string {
	normalized := tokenizer.Normalize(query)
	if normalized == "" {
		return []string{}
	}
	return corpus.Lookup(tokenizer.Signature(normalized))
}

// Scan is the linear reference for Match: it recomputes every word's signature
// and keeps the ones equal to the query's. Match must always agree with it.
func Scan(query string, corpus Corpus) []string {
	normalized := tokenizer.Normalize(query)
	if normalized == "" {
		return []string{}
	}

	target := tokenizer.Signature(normalized)
	result := []string{}
	for _, word := range corpus.Words() {
		if tokenizer.CanonicalSignature(word) == target {
			result = append(result, word)
		}
	}
	return result
}
