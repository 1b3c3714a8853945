package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	internalErrors "github.com/gcbaptista/go-anagram-search/internal/errors"
	"github.com/gcbaptista/go-anagram-search/internal/logger"
	"github.com/gcbaptista/go-anagram-search/internal/matcher"
	"github.com/gcbaptista/go-anagram-search/internal/metrics"
	"github.com/gcbaptista/go-anagram-search/internal/tokenizer"
	"github.com/gcbaptista/go-anagram-search/model"
	"github.com/gcbaptista/go-anagram-search/services"
)

// Service answers anagram queries against the shared corpus.
// It fulfills the services.Searcher interface.
type Service struct {
	corpus  services.CorpusProvider
	metrics metrics.Recorder
	logger  *log.Logger
}

var _ services.Searcher = (*Service)(nil)

// NewService creates a new search Service.
func NewService(corpus services.CorpusProvider, recorder metrics.Recorder) (*Service, error) {
	if corpus == nil {
		return nil, fmt.Errorf("corpus provider cannot be nil")
	}
	if recorder == nil {
		recorder = metrics.NewNop()
	}

	return &Service{
		corpus:  corpus,
		metrics: recorder,
		logger:  logger.New("search"),
	}, nil
}

// Search normalizes rawQuery and returns every corpus word that is an anagram of it.
// A query that normalizes to nothing returns an empty result without touching the corpus.
func (s *Service) Search(ctx context.Context, rawQuery string) (model.SearchResult, error) {
	start := time.Now()

	normalized := tokenizer.Normalize(rawQuery)
	if normalized == "" {
		s.metrics.RecordSearch(metrics.OutcomeEmpty, 0, time.Since(start).Seconds())
		return model.EmptySearchResult(), nil
	}

	corpus, err := s.corpus.GetCorpus(ctx)
	if err != nil {
		outcome := metrics.OutcomeFailure
		if errors.Is(err, internalErrors.ErrCorpusUnavailable) {
			outcome = metrics.OutcomeUnavailable
		}
		s.metrics.RecordSearch(outcome, 0, time.Since(start).Seconds())
		return model.SearchResult{}, err
	}

	anagrams := matcher.Match(normalized, corpus)
	elapsed := time.Since(start)
	s.metrics.RecordSearch(metrics.OutcomeSuccess, len(anagrams), elapsed.Seconds())
	s.logger.Debug("Search", "query", normalized, "results", len(anagrams), "epoch", corpus.Epoch, "took", elapsed)

	return model.SearchResult{Anagrams: anagrams}, nil
}
