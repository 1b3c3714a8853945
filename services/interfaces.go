package services

import (
	"context"

	"github.com/gcbaptista/go-anagram-search/model"
	"github.com/gcbaptista/go-anagram-search/store"
)

// CorpusProvider gives access to the shared, lazily loaded corpus.
type CorpusProvider interface {
	// GetCorpus returns the loaded corpus, loading it first if needed.
	// Failures satisfy errors.Is(err, errors.ErrCorpusUnavailable).
	GetCorpus(ctx context.Context) (*store.Corpus, error)
	// Current returns the loaded corpus without triggering a load, or nil.
	Current() *store.Corpus
}

// CorpusManager extends CorpusProvider with lifecycle operations
type CorpusManager interface {
	CorpusProvider
	// Invalidate forgets the loaded corpus; the next GetCorpus loads again.
	Invalidate()
	// Refresh fetches the word list from its source and swaps it in on success.
	// On failure the previous corpus keeps being served.
	Refresh(ctx context.Context) (*store.Corpus, error)
	Stats() model.CorpusStats
}

// Searcher answers anagram queries
type Searcher interface {
	Search(ctx context.Context, rawQuery string) (model.SearchResult, error)
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	CreateJob(jobType model.JobType, target string, metadata map[string]string) string
	ExecuteJob(jobID string, jobFunc func(ctx context.Context, job *model.Job) error) error
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
}
