// Package index builds the signature lookup used to answer anagram queries.
//
// A SignatureIndex maps every canonical signature found in a corpus to the
// positions of the words that produce it. It is built once per corpus load
// and never mutated afterwards, so concurrent readers need no locking.
package index

import (
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/gcbaptista/go-anagram-search/internal/tokenizer"
)

// SignatureIndex maps a canonical signature to the corpus positions of its words.
type SignatureIndex struct {
	trie        *patricia.Trie
	words       []string
	signatures  int
	indexed     int
	largestList int
}

// Stats describes the shape of a built index.
type Stats struct {
	Words             int `json:"words"`
	IndexedWords      int `json:"indexed_words"`
	DistinctSignature int `json:"distinct_signatures"`
	LargestGroup      int `json:"largest_group"`
}

// Build indexes words by their canonical signature. Words that normalize to
// the empty string are left out, so they never match anything.
// The words slice is retained and must not be modified afterwards.
func Build(words []string) *SignatureIndex {
	idx := &SignatureIndex{
		trie:  patricia.NewTrie(),
		words: words,
	}

	for i, word := range words {
		sig := tokenizer.CanonicalSignature(word)
		if sig == "" {
			continue
		}

		key := patricia.Prefix(sig)
		list, _ := idx.trie.Get(key).(*PostingList)
		if list == nil {
			list = newPostingList()
			idx.trie.Insert(key, list)
			idx.signatures++
		}
		list.add(uint32(i))
		idx.indexed++
	}

	_ = idx.trie.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		list := item.(*PostingList)
		list.positions.RunOptimize()
		if n := list.Len(); n > idx.largestList {
			idx.largestList = n
		}
		return nil
	})

	return idx
}

// Lookup returns the words whose signature equals sig, in corpus order.
// The returned slice is freshly allocated.
func (idx *SignatureIndex) Lookup(sig string) []string {
	if sig == "" {
		return []string{}
	}

	list, _ := idx.trie.Get(patricia.Prefix(sig)).(*PostingList)
	if list == nil {
		return []string{}
	}

	positions := list.Positions()
	result := make([]string, len(positions))
	for i, pos := range positions {
		result[i] = idx.words[pos]
	}
	return result
}

// Stats returns counters describing the index.
func (idx *SignatureIndex) Stats() Stats {
	return Stats{
		Words:             len(idx.words),
		IndexedWords:      idx.indexed,
		DistinctSignature: idx.signatures,
		LargestGroup:      idx.largestList,
	}
}
