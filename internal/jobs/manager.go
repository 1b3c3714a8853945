package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/gcbaptista/go-anagram-search/internal/errors"
	"github.com/gcbaptista/go-anagram-search/internal/logger"
	"github.com/gcbaptista/go-anagram-search/model"
	"github.com/gcbaptista/go-anagram-search/services"
)

// jobEntry guards one job; the table itself is lock-free.
type jobEntry struct {
	mu  sync.Mutex
	job model.Job
}

func (e *jobEntry) snapshot() *model.Job {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobCopy := e.job
	if e.job.Progress != nil {
		progressCopy := *e.job.Progress
		jobCopy.Progress = &progressCopy
	}
	if e.job.Metadata != nil {
		jobCopy.Metadata = make(map[string]string, len(e.job.Metadata))
		for k, v := range e.job.Metadata {
			jobCopy.Metadata[k] = v
		}
	}
	return &jobCopy
}

// Manager handles background job execution and tracking
type Manager struct {
	jobs     *xsync.Map[string, *jobEntry]
	workers  chan struct{} // Limits concurrent jobs
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
	metrics  *JobMetrics
	logger   *log.Logger
}

var _ services.JobManager = (*Manager)(nil)

// NewManager creates a new job manager with specified worker count
func NewManager(maxWorkers int) *Manager {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:    xsync.NewMap[string, *jobEntry](),
		workers: make(chan struct{}, maxWorkers),
		ctx:     ctx,
		cancel:  cancel,
		metrics: NewJobMetrics(),
		logger:  logger.New("jobs"),
	}
}

// Start begins the job manager and starts background cleanup
func (m *Manager) Start() {
	m.logger.Info("Job manager started", "workers", cap(m.workers))

	m.wg.Add(1)
	go m.cleanupRoutine()
}

// Stop cancels running jobs and waits for them to return
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		m.wg.Wait()
		m.logger.Info("Job manager stopped")
	})
}

// CreateJob creates a new job and returns its ID
func (m *Manager) CreateJob(jobType model.JobType, target string, metadata map[string]string) string {
	entry := &jobEntry{job: model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		Target:    target,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}}

	m.jobs.Store(entry.job.ID, entry)
	m.metrics.RecordJobCreated(jobType)
	m.logger.Debug("Created job", "id", entry.job.ID, "type", jobType, "target", target)
	return entry.job.ID
}

// GetJob retrieves a copy of a job by ID
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	entry, exists := m.jobs.Load(jobID)
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return entry.snapshot(), nil
}

// ListJobs returns copies of all jobs, newest first, optionally filtered by status
func (m *Manager) ListJobs(status *model.JobStatus) []*model.Job {
	result := make([]*model.Job, 0, m.jobs.Size())
	m.jobs.Range(func(_ string, entry *jobEntry) bool {
		job := entry.snapshot()
		if status == nil || job.Status == *status {
			result = append(result, job)
		}
		return true
	})

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// ExecuteJob runs a job function in a goroutine with proper tracking.
// jobFunc receives a copy of the job and a context cancelled on Stop.
func (m *Manager) ExecuteJob(jobID string, jobFunc func(ctx context.Context, job *model.Job) error) error {
	entry, exists := m.jobs.Load(jobID)
	if !exists {
		return errors.NewJobNotFoundError(jobID)
	}

	entry.mu.Lock()
	if entry.job.Status != model.JobStatusPending {
		status := entry.job.Status
		entry.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, status)
	}
	m.metrics.RecordJobStatusChange(entry.job.Status, model.JobStatusRunning)
	entry.job.Status = model.JobStatusRunning
	now := time.Now()
	entry.job.StartedAt = &now
	entry.mu.Unlock()

	if m.ctx.Err() != nil {
		m.updateJobStatus(entry, model.JobStatusCancelled, "job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	}

	// Acquire worker slot
	select {
	case m.workers <- struct{}{}:
	case <-m.ctx.Done():
		m.updateJobStatus(entry, model.JobStatusCancelled, "job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	}

	job := entry.snapshot()
	m.wg.Add(1)
	go func() {
		defer func() {
			<-m.workers // Release worker slot
			m.wg.Done()
		}()

		startTime := time.Now()
		err := jobFunc(m.ctx, job)
		executionTime := time.Since(startTime)

		switch {
		case err != nil && m.ctx.Err() != nil:
			m.updateJobStatus(entry, model.JobStatusCancelled, err.Error())
			m.logger.Warn("Job cancelled", "id", jobID, "after", executionTime)
		case err != nil:
			m.metrics.RecordJobFailed(job.Type)
			m.updateJobStatus(entry, model.JobStatusFailed, err.Error())
			m.logger.Error("Job failed", "id", jobID, "type", job.Type, "after", executionTime, "err", err)
		default:
			m.metrics.RecordJobCompleted(job.Type, executionTime)
			m.updateJobStatus(entry, model.JobStatusCompleted, "")
			m.logger.Info("Job completed", "id", jobID, "type", job.Type, "took", executionTime)
		}
	}()

	return nil
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	entry, exists := m.jobs.Load(jobID)
	if !exists {
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.job.Progress == nil {
		entry.job.Progress = &model.JobProgress{}
	}
	entry.job.Progress.Current = current
	entry.job.Progress.Total = total
	entry.job.Progress.Message = message
}

// updateJobStatus records the metrics change under the entry lock so readers
// that observe the new status also observe its counters.
func (m *Manager) updateJobStatus(entry *jobEntry, status model.JobStatus, errorMsg string) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	m.metrics.RecordJobStatusChange(entry.job.Status, status)
	entry.job.Status = status
	if errorMsg != "" {
		entry.job.Error = errorMsg
	}
	if status.IsTerminal() {
		now := time.Now()
		entry.job.CompletedAt = &now
	}
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine() {
	defer m.wg.Done()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(24 * time.Hour)
		case <-m.ctx.Done():
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than maxAge
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	cleaned := 0

	m.jobs.Range(func(jobID string, entry *jobEntry) bool {
		entry.mu.Lock()
		expired := entry.job.CompletedAt != nil && entry.job.CompletedAt.Before(cutoff)
		entry.mu.Unlock()

		if expired {
			m.jobs.Delete(jobID)
			cleaned++
		}
		return true
	})

	if cleaned > 0 {
		m.logger.Info("Cleaned up old jobs", "count", cleaned)
	}
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetCurrentWorkload returns the number of pending and running jobs
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}

// GetSuccessRate returns the share of finished jobs that completed (0.0 to 1.0)
func (m *Manager) GetSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}
