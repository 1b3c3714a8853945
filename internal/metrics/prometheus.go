package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Recorder backed by Prometheus.
// Collectors are created and registered on first use.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	corpusFetches       *prometheus.CounterVec
	corpusFetchLatency  prometheus.Histogram
	corpusLoads         *prometheus.CounterVec
	corpusWords         prometheus.Gauge
	corpusEpoch         prometheus.Gauge
	corpusInvalidations prometheus.Counter
	snapshotOps         *prometheus.CounterVec
	searches            *prometheus.CounterVec
	searchLatency       prometheus.Histogram
	searchResults       prometheus.Histogram
}

var _ Recorder = (*PrometheusCollector)(nil)

// NewPrometheus creates a Prometheus-backed recorder.
// A nil reg uses prometheus.DefaultRegisterer; an empty namespace defaults to "anagram".
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "anagram"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.corpusFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "corpus",
			Name:      "fetches_total",
			Help:      "Word list download attempts by outcome (success, failure).",
		}, []string{"outcome"})

		p.corpusFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "corpus",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of word list downloads in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		})

		p.corpusLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "corpus",
			Name:      "loads_total",
			Help:      "Corpora published by origin (snapshot, source).",
		}, []string{"origin"})

		p.corpusWords = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "corpus",
			Name:      "words",
			Help:      "Number of words in the currently loaded corpus.",
		})

		p.corpusEpoch = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "corpus",
			Name:      "epoch",
			Help:      "Epoch of the currently loaded corpus.",
		})

		p.corpusInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "corpus",
			Name:      "invalidations_total",
			Help:      "Explicit corpus invalidations.",
		})

		p.snapshotOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "snapshot",
			Name:      "operations_total",
			Help:      "Snapshot store interactions by result (hit, miss, error, saved).",
		}, []string{"result"})

		p.searches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search requests by outcome (success, empty, unavailable, failure).",
		}, []string{"outcome"})

		p.searchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search latency in seconds, including any corpus load it waited for.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs .. ~26s
		})

		p.searchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Number of anagrams returned per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		})

		p.reg.MustRegister(p.corpusFetches)
		p.reg.MustRegister(p.corpusFetchLatency)
		p.reg.MustRegister(p.corpusLoads)
		p.reg.MustRegister(p.corpusWords)
		p.reg.MustRegister(p.corpusEpoch)
		p.reg.MustRegister(p.corpusInvalidations)
		p.reg.MustRegister(p.snapshotOps)
		p.reg.MustRegister(p.searches)
		p.reg.MustRegister(p.searchLatency)
		p.reg.MustRegister(p.searchResults)
	})
}

// RecordCorpusFetch counts a download attempt and observes its latency.
func (p *PrometheusCollector) RecordCorpusFetch(outcome string, seconds float64) {
	p.ensureRegistered()
	p.corpusFetches.WithLabelValues(outcome).Inc()
	p.corpusFetchLatency.Observe(seconds)
}

// RecordCorpusLoad counts a published corpus and updates the size and epoch gauges.
func (p *PrometheusCollector) RecordCorpusLoad(origin string, words int, epoch uint64) {
	p.ensureRegistered()
	p.corpusLoads.WithLabelValues(origin).Inc()
	p.corpusWords.Set(float64(words))
	p.corpusEpoch.Set(float64(epoch))
}

// RecordCorpusInvalidation counts an invalidation and zeroes the size gauge.
func (p *PrometheusCollector) RecordCorpusInvalidation() {
	p.ensureRegistered()
	p.corpusInvalidations.Inc()
	p.corpusWords.Set(0)
}

// RecordSnapshot counts a snapshot store interaction.
func (p *PrometheusCollector) RecordSnapshot(result string) {
	p.ensureRegistered()
	p.snapshotOps.WithLabelValues(result).Inc()
}

// RecordSearch counts a search and observes its latency and result size.
func (p *PrometheusCollector) RecordSearch(outcome string, results int, seconds float64) {
	p.ensureRegistered()
	p.searches.WithLabelValues(outcome).Inc()
	p.searchLatency.Observe(seconds)
	p.searchResults.Observe(float64(results))
}
