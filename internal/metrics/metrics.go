// Package metrics records corpus and search instrumentation.
package metrics

// Outcome labels shared by the recorders.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"

	OriginSnapshot = "snapshot"
	OriginSource   = "source"

	SnapshotHit   = "hit"
	SnapshotMiss  = "miss"
	SnapshotError = "error"
	SnapshotSaved = "saved"
)

// Recorder receives instrumentation events. Implementations must be safe for concurrent use.
type Recorder interface {
	// RecordCorpusFetch records one attempt to download the word list.
	RecordCorpusFetch(outcome string, seconds float64)
	// RecordCorpusLoad records a corpus being published, and where it came from.
	RecordCorpusLoad(origin string, words int, epoch uint64)
	// RecordCorpusInvalidation records an explicit invalidation.
	RecordCorpusInvalidation()
	// RecordSnapshot records a snapshot store interaction.
	RecordSnapshot(result string)
	// RecordSearch records one search request.
	RecordSearch(outcome string, results int, seconds float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

var _ Recorder = (*NopMetrics)(nil)

// NewNop creates a new no-op recorder.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

func (n *NopMetrics) RecordCorpusFetch(_ string, _ float64)       {}
func (n *NopMetrics) RecordCorpusLoad(_ string, _ int, _ uint64) {}
func (n *NopMetrics) RecordCorpusInvalidation()                  {}
func (n *NopMetrics) RecordSnapshot(_ string)                    {}
func (n *NopMetrics) RecordSearch(_ string, _ int, _ float64)    {}
