package store

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/gcbaptista/go-anagram-search/index"
)

// Corpus is an immutable, fully loaded word list together with its signature index.
// A *Corpus is only published once construction has finished, so readers never
// observe a partially loaded corpus.
type Corpus struct {
	words    []string
	index    *index.SignatureIndex
	Epoch    uint64
	Checksum uint64
	Source   string
	LoadedAt time.Time
}

// CorpusInfo is the JSON-friendly description of a loaded corpus.
type CorpusInfo struct {
	Epoch    uint64      `json:"epoch"`
	Checksum string      `json:"checksum"`
	Source   string      `json:"source"`
	LoadedAt time.Time   `json:"loaded_at"`
	Index    index.Stats `json:"index"`
}

// NewCorpus builds the signature index for words and wraps them into a Corpus.
// words is retained and must not be modified by the caller afterwards.
func NewCorpus(words []string, source string, epoch uint64) *Corpus {
	return &Corpus{
		words:    words,
		index:    index.Build(words),
		Epoch:    epoch,
		Checksum: Checksum(words),
		Source:   source,
		LoadedAt: time.Now(),
	}
}

// Words returns the corpus words in load order. The slice is shared and must be treated as read-only.
func (c *Corpus) Words() []string {
	return c.words
}

// Lookup returns the words with the given canonical signature in corpus order.
func (c *Corpus) Lookup(signature string) []string {
	return c.index.Lookup(signature)
}

// Len returns the number of words in the corpus.
func (c *Corpus) Len() int {
	return len(c.words)
}

// Info describes the corpus for status endpoints.
func (c *Corpus) Info() CorpusInfo {
	return CorpusInfo{
		Epoch:    c.Epoch,
		Checksum: fmt.Sprintf("%016x", c.Checksum),
		Source:   c.Source,
		LoadedAt: c.LoadedAt,
		Index:    c.index.Stats(),
	}
}

// ParseWordList splits a line-delimited payload into words.
// Lines are trimmed and blank lines dropped; case and punctuation are kept
// as-is because normalization happens at match time.
func ParseWordList(payload []byte) ([]string, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}

	words := make([]string, 0, bytes.Count(payload, []byte{'\n'})+1)
	for _, line := range strings.Split(string(payload), "\n") {
		word := strings.TrimSpace(line)
		if word == "" {
			continue
		}
		words = append(words, word)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("word list contains no words")
	}
	return words, nil
}

// Checksum returns the xxh3 hash of the newline-joined words.
func Checksum(words []string) uint64 {
	h := xxh3.New()
	for _, w := range words {
		_, _ = h.WriteString(w)
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}
