// Package testing provides fixtures and helpers shared by the anagram search tests.
package testing

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-anagram-search/model"
	"github.com/gcbaptista/go-anagram-search/services"
)

// SampleWords is the reference corpus used across the test suites.
var SampleWords = []string{"listen", "silent", "enlist", "banana", "tea", "eat"}

// WordListPayload joins words the way the upstream word list is served.
func WordListPayload(words []string) []byte {
	return []byte(strings.Join(words, "\r\n") + "\r\n")
}

// WriteWordList writes words to a file inside t.TempDir and returns its file:// URL.
func WriteWordList(t *testing.T, words []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, WordListPayload(words), 0600), "Failed to write word list")
	return "file://" + filepath.ToSlash(path)
}

// WordListServer is an httptest server serving a word list and counting requests.
// Requests block while the gate is closed, which lets tests pile up concurrent
// callers on a single in-flight fetch.
type WordListServer struct {
	*httptest.Server

	mu      sync.Mutex
	payload []byte
	status  int
	gate    chan struct{}
	hits    atomic.Int64
}

// NewWordListServer starts a server returning words with status 200.
func NewWordListServer(t *testing.T, words []string) *WordListServer {
	t.Helper()

	s := &WordListServer{payload: WordListPayload(words), status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(func() {
		s.Open()
		s.Close()
	})
	return s
}

func (s *WordListServer) serve(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	s.mu.Lock()
	gate, payload, status := s.gate, s.payload, s.status
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// Hold makes subsequent requests wait until Open is called.
func (s *WordListServer) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate == nil {
		s.gate = make(chan struct{})
	}
}

// Open releases every held request.
func (s *WordListServer) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

// Respond changes the status and body served from now on.
func (s *WordListServer) Respond(status int, words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.payload = WordListPayload(words)
}

// Hits returns the number of requests received so far.
func (s *WordListServer) Hits() int64 {
	return s.hits.Load()
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 10 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJob polls a job until it reaches a terminal status or times out
func WaitForJob(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()

	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not finish within %v timeout", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
				return job
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s",
						jobID,
						job.Progress.Current,
						job.Progress.Total,
						job.Progress.Message)
				}
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedTarget string) {
	t.Helper()

	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedTarget, job.Target, "Job target should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}
