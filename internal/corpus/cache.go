// Package corpus owns the process-wide word list. The first search triggers a
// load, concurrent searches share that load, and every later search reuses the
// published corpus until it is invalidated or refreshed.
package corpus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	internalErrors "github.com/gcbaptista/go-anagram-search/internal/errors"
	"github.com/gcbaptista/go-anagram-search/internal/logger"
	"github.com/gcbaptista/go-anagram-search/internal/metrics"
	"github.com/gcbaptista/go-anagram-search/internal/snapshot"
	"github.com/gcbaptista/go-anagram-search/internal/source"
	"github.com/gcbaptista/go-anagram-search/model"
	"github.com/gcbaptista/go-anagram-search/services"
	"github.com/gcbaptista/go-anagram-search/store"
)

// DefaultFetchTimeout bounds a single load when Options.FetchTimeout is zero.
const DefaultFetchTimeout = 30 * time.Second

const (
	loadKey    = "load"
	refreshKey = "refresh"
)

// Options configures a Cache.
type Options struct {
	FetchTimeout time.Duration
	Snapshots    snapshot.Store // nil disables snapshots
	Metrics      metrics.Recorder
	Logger       *log.Logger
}

// Cache lazily loads the corpus and shares it across all callers.
type Cache struct {
	source       source.Source
	snapshots    snapshot.Store
	fetchTimeout time.Duration
	metrics      metrics.Recorder
	logger       *log.Logger

	group   singleflight.Group
	current atomic.Pointer[store.Corpus]

	// mu orders publication against invalidation and refresh so a load that
	// started before either can never publish after it.
	mu         sync.Mutex
	generation uint64
	epoch      atomic.Uint64

	waiting       atomic.Int64
	fetches       atomic.Int64
	failures      atomic.Int64
	snapshotHits  atomic.Int64
	invalidations atomic.Int64
}

var _ services.CorpusManager = (*Cache)(nil)

// New creates a Cache reading from src. Nothing is fetched until the first GetCorpus.
func New(src source.Source, opts Options) *Cache {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("corpus")
	}

	return &Cache{
		source:       src,
		snapshots:    opts.Snapshots,
		fetchTimeout: opts.FetchTimeout,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

// GetCorpus returns the loaded corpus, loading it if necessary. Concurrent
// callers share one load. The load itself is detached from ctx and bounded by
// the fetch timeout; ctx only bounds how long this caller waits for it.
func (c *Cache) GetCorpus(ctx context.Context) (*store.Corpus, error) {
	if corpus := c.current.Load(); corpus != nil {
		return corpus, nil
	}

	ch := c.group.DoChan(loadKey, func() (any, error) {
		return c.load()
	})
	return c.wait(ctx, ch)
}

// Current returns the loaded corpus, or nil if none is loaded.
func (c *Cache) Current() *store.Corpus {
	return c.current.Load()
}

// Invalidate forgets the loaded corpus. A load that is still in flight
// completes for its waiters but is not published.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.current.Store(nil)
	c.mu.Unlock()

	c.group.Forget(loadKey)
	c.invalidations.Add(1)
	c.metrics.RecordCorpusInvalidation()
	c.logger.Info("Corpus invalidated")
}

// Refresh fetches the word list from the source, bypassing the snapshot, and
// publishes it on success. On failure the previous corpus stays in place.
// Concurrent refreshes share one fetch.
func (c *Cache) Refresh(ctx context.Context) (*store.Corpus, error) {
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()

		words, err := c.fetchFromSource(loadCtx)
		if err != nil {
			return nil, err
		}

		corpus := store.NewCorpus(words, c.source.String(), c.epoch.Add(1))
		c.mu.Lock()
		c.generation++
		c.current.Store(corpus)
		c.mu.Unlock()

		c.published(corpus, metrics.OriginSource)
		return corpus, nil
	})
	return c.wait(ctx, ch)
}

// Stats describes the cache state.
func (c *Cache) Stats() model.CorpusStats {
	stats := model.CorpusStats{
		Source:        c.source.String(),
		Waiting:       c.waiting.Load(),
		Fetches:       c.fetches.Load(),
		Failures:      c.failures.Load(),
		SnapshotHits:  c.snapshotHits.Load(),
		Invalidations: c.invalidations.Load(),
	}
	if c.snapshots != nil {
		stats.Snapshot = c.snapshots.String()
	}
	if corpus := c.current.Load(); corpus != nil {
		info := corpus.Info()
		stats.Loaded = true
		stats.Corpus = &info
	}
	return stats
}

func (c *Cache) wait(ctx context.Context, ch <-chan singleflight.Result) (*store.Corpus, error) {
	c.waiting.Add(1)
	defer c.waiting.Add(-1)

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*store.Corpus), nil
	case <-ctx.Done():
		return nil, internalErrors.NewCorpusUnavailableError(c.source.String(), ctx.Err())
	}
}

func (c *Cache) load() (*store.Corpus, error) {
	// A flight that finished between the caller's check and DoChan already published.
	if corpus := c.current.Load(); corpus != nil {
		return corpus, nil
	}

	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	origin := metrics.OriginSnapshot
	words := c.loadSnapshot(ctx)
	if words == nil {
		origin = metrics.OriginSource
		var err error
		if words, err = c.fetchFromSource(ctx); err != nil {
			return nil, err
		}
	}

	corpus := store.NewCorpus(words, c.source.String(), c.epoch.Add(1))

	c.mu.Lock()
	stale := generation != c.generation
	newer := c.current.Load()
	if !stale {
		c.current.Store(corpus)
	}
	c.mu.Unlock()

	if stale {
		c.logger.Info("Discarding corpus superseded during load", "epoch", corpus.Epoch)
		if newer != nil {
			return newer, nil
		}
		return corpus, nil
	}

	c.published(corpus, origin)
	return corpus, nil
}

// loadSnapshot returns the snapshot's words, or nil when there is no usable
// snapshot for this source.
func (c *Cache) loadSnapshot(ctx context.Context) []string {
	if c.snapshots == nil {
		return nil
	}

	snap, err := c.snapshots.Load(ctx)
	switch {
	case errors.Is(err, internalErrors.ErrSnapshotNotFound):
		c.metrics.RecordSnapshot(metrics.SnapshotMiss)
		return nil
	case err != nil:
		c.metrics.RecordSnapshot(metrics.SnapshotError)
		c.logger.Warn("Ignoring unreadable snapshot", "store", c.snapshots, "err", err)
		return nil
	case snap.Source != c.source.String():
		c.metrics.RecordSnapshot(metrics.SnapshotMiss)
		c.logger.Info("Ignoring snapshot of another source", "snapshot_source", snap.Source, "source", c.source)
		return nil
	case len(snap.Words) == 0:
		c.metrics.RecordSnapshot(metrics.SnapshotMiss)
		return nil
	}

	c.snapshotHits.Add(1)
	c.metrics.RecordSnapshot(metrics.SnapshotHit)
	c.logger.Debug("Loaded corpus snapshot", "store", c.snapshots, "fetched_at", snap.FetchedAt, "words", len(snap.Words))
	return snap.Words
}

// fetchFromSource downloads and parses the word list and writes the snapshot back.
func (c *Cache) fetchFromSource(ctx context.Context) ([]string, error) {
	c.fetches.Add(1)
	start := time.Now()

	payload, err := c.source.Fetch(ctx)
	var words []string
	if err == nil {
		words, err = store.ParseWordList(payload)
	}

	elapsed := time.Since(start)
	if err != nil {
		c.failures.Add(1)
		c.metrics.RecordCorpusFetch(metrics.OutcomeFailure, elapsed.Seconds())
		c.logger.Error("Corpus fetch failed", "source", c.source, "duration", elapsed, "err", err)
		return nil, internalErrors.NewCorpusUnavailableError(c.source.String(), err)
	}

	c.metrics.RecordCorpusFetch(metrics.OutcomeSuccess, elapsed.Seconds())
	c.logger.Info("Corpus fetched", "source", c.source, "bytes", len(payload), "words", len(words), "duration", elapsed)

	if c.snapshots != nil {
		if err := c.snapshots.Save(ctx, snapshot.New(c.source.String(), words, time.Now())); err != nil {
			c.metrics.RecordSnapshot(metrics.SnapshotError)
			c.logger.Warn("Failed to save corpus snapshot", "store", c.snapshots, "err", err)
		} else {
			c.metrics.RecordSnapshot(metrics.SnapshotSaved)
		}
	}
	return words, nil
}

func (c *Cache) published(corpus *store.Corpus, origin string) {
	c.metrics.RecordCorpusLoad(origin, corpus.Len(), corpus.Epoch)
	c.logger.Info("Corpus loaded", "origin", origin, "epoch", corpus.Epoch, "words", corpus.Len())
}
