package model

import (
	"github.com/gcbaptista/go-anagram-search/store"
)

// CorpusStats describes the corpus cache for the status endpoints.
type CorpusStats struct {
	Loaded        bool              `json:"loaded"`
	Source        string            `json:"source"`
	Snapshot      string            `json:"snapshot,omitempty"`
	Corpus        *store.CorpusInfo `json:"corpus,omitempty"`
	Waiting       int64             `json:"waiting"`
	Fetches       int64             `json:"fetches"`
	Failures      int64             `json:"failures"`
	SnapshotHits  int64             `json:"snapshot_hits"`
	Invalidations int64             `json:"invalidations"`
}
