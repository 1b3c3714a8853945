package jobs

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/gcbaptista/go-anagram-search/model"
)

// JobMetricsData is a point-in-time copy of JobMetrics
type JobMetricsData struct {
	JobsCreated          int64                     `json:"jobs_created"`
	JobsCompleted        int64                     `json:"jobs_completed"`
	JobsFailed           int64                     `json:"jobs_failed"`
	TotalExecutionTime   time.Duration             `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration             `json:"average_execution_time_ns"`
	JobsByType           map[model.JobType]int64   `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64 `json:"jobs_by_status"`
	LastUpdated          time.Time                 `json:"last_updated"`
}

// JobMetrics tracks job counters without a global lock
type JobMetrics struct {
	created       atomic.Int64
	completed     atomic.Int64
	failed        atomic.Int64
	totalExecNano atomic.Int64
	lastUpdated   atomic.Int64
	byType        *xsync.Map[model.JobType, *xsync.Counter]
	byStatus      *xsync.Map[model.JobStatus, *xsync.Counter]
}

// NewJobMetrics creates a new metrics collector
func NewJobMetrics() *JobMetrics {
	m := &JobMetrics{
		byType:   xsync.NewMap[model.JobType, *xsync.Counter](),
		byStatus: xsync.NewMap[model.JobStatus, *xsync.Counter](),
	}
	m.touch()
	return m
}

func (m *JobMetrics) touch() {
	m.lastUpdated.Store(time.Now().UnixNano())
}

func counter[K comparable](table *xsync.Map[K, *xsync.Counter], key K) *xsync.Counter {
	if c, ok := table.Load(key); ok {
		return c
	}
	c, _ := table.LoadOrStore(key, xsync.NewCounter())
	return c
}

// RecordJobCreated increments job creation counters
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.created.Add(1)
	counter(m.byType, jobType).Inc()
	counter(m.byStatus, model.JobStatusPending).Inc()
	m.touch()
}

// RecordJobStatusChange moves one job between status counters
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	if oldStatus != "" {
		counter(m.byStatus, oldStatus).Dec()
	}
	counter(m.byStatus, newStatus).Inc()
	m.touch()
}

// RecordJobCompleted records successful job completion
func (m *JobMetrics) RecordJobCompleted(_ model.JobType, executionTime time.Duration) {
	m.completed.Add(1)
	m.totalExecNano.Add(int64(executionTime))
	m.touch()
}

// RecordJobFailed records job failure
func (m *JobMetrics) RecordJobFailed(_ model.JobType) {
	m.failed.Add(1)
	m.touch()
}

// GetMetrics returns a copy of current metrics
func (m *JobMetrics) GetMetrics() JobMetricsData {
	data := JobMetricsData{
		JobsCreated:        m.created.Load(),
		JobsCompleted:      m.completed.Load(),
		JobsFailed:         m.failed.Load(),
		TotalExecutionTime: time.Duration(m.totalExecNano.Load()),
		JobsByType:         make(map[model.JobType]int64),
		JobsByStatus:       make(map[model.JobStatus]int64),
		LastUpdated:        time.Unix(0, m.lastUpdated.Load()),
	}
	if data.JobsCompleted > 0 {
		data.AverageExecutionTime = data.TotalExecutionTime / time.Duration(data.JobsCompleted)
	}

	m.byType.Range(func(k model.JobType, c *xsync.Counter) bool {
		data.JobsByType[k] = c.Value()
		return true
	})
	m.byStatus.Range(func(k model.JobStatus, c *xsync.Counter) bool {
		if v := c.Value(); v > 0 {
			data.JobsByStatus[k] = v
		}
		return true
	})
	return data
}

// GetSuccessRate returns the success rate (0.0 to 1.0)
func (m *JobMetrics) GetSuccessRate() float64 {
	completed, failed := m.completed.Load(), m.failed.Load()
	if completed+failed == 0 {
		return 1.0 // No jobs yet, assume 100% success
	}
	return float64(completed) / float64(completed+failed)
}

// GetCurrentWorkload returns the number of pending and running jobs
func (m *JobMetrics) GetCurrentWorkload() int64 {
	var workload int64
	if c, ok := m.byStatus.Load(model.JobStatusPending); ok {
		workload += c.Value()
	}
	if c, ok := m.byStatus.Load(model.JobStatusRunning); ok {
		workload += c.Value()
	}
	return workload
}
