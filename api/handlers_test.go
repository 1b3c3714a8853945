package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-anagram-search/config"
	"github.com/gcbaptista/go-anagram-search/internal/corpus"
	"github.com/gcbaptista/go-anagram-search/internal/jobs"
	"github.com/gcbaptista/go-anagram-search/internal/logger"
	"github.com/gcbaptista/go-anagram-search/internal/metrics"
	"github.com/gcbaptista/go-anagram-search/internal/search"
	"github.com/gcbaptista/go-anagram-search/internal/source"
	testutil "github.com/gcbaptista/go-anagram-search/internal/testing"
	"github.com/gcbaptista/go-anagram-search/model"
)

type testStack struct {
	router *gin.Engine
	cache  *corpus.Cache
	jobs   *jobs.Manager
	words  *testutil.WordListServer
}

func setupTestStack(t *testing.T, server config.ServerSettings) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	words := testutil.NewWordListServer(t, testutil.SampleWords)
	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheus(registry, "anagram")

	cache := corpus.New(source.NewHTTPSource(words.URL, 1<<20), corpus.Options{
		FetchTimeout: 5 * time.Second,
		Metrics:      recorder,
		Logger:       logger.Discard(),
	})
	searcher, err := search.NewService(cache, recorder)
	require.NoError(t, err)

	manager := jobs.NewManager(2)
	manager.Start()
	t.Cleanup(manager.Stop)

	router := NewRouter(server, Dependencies{
		Searcher: searcher,
		Corpus:   cache,
		Jobs:     manager,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:   logger.Discard(),
	})

	return &testStack{router: router, cache: cache, jobs: manager, words: words}
}

func (s *testStack) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func searchPath(raw string) string {
	return "/search?" + url.Values{"search": {raw}}.Encode()
}

func TestSearchHandler(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{name: "missing parameter", path: "/search", expected: []string{}},
		{name: "empty query", path: searchPath(""), expected: []string{}},
		{name: "punctuation only", path: searchPath("?! -"), expected: []string{}},
		{name: "mixed case with punctuation", path: searchPath("LISTEN!"), expected: []string{"listen", "silent", "enlist"}},
		{name: "short word", path: searchPath("tea"), expected: []string{"tea", "eat"}},
		{name: "no anagrams", path: searchPath("zebra"), expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := stack.do(http.MethodGet, tt.path)

			require.Equal(t, http.StatusOK, w.Code)
			result := decodeBody[model.SearchResult](t, w)
			assert.Equal(t, tt.expected, result.Anagrams)
		})
	}

	assert.Equal(t, int64(1), stack.words.Hits(), "the word list should be fetched once")
}

func TestSearchHandler_EmptyQueryDoesNotLoadCorpus(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	w := stack.do(http.MethodGet, searchPath("   "))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anagrams":[]}`, w.Body.String())
	assert.Zero(t, stack.words.Hits())
	assert.Nil(t, stack.cache.Current())
}

func TestSearchHandler_CorpusUnavailable(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})
	stack.words.Respond(http.StatusBadGateway, nil)

	w := stack.do(http.MethodGet, searchPath("listen"))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	apiErr := decodeBody[APIError](t, w)
	assert.Equal(t, ErrorCodeCorpusUnavailable, apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)

	// The failure is not cached: the next request loads again.
	stack.words.Respond(http.StatusOK, testutil.SampleWords)
	w = stack.do(http.MethodGet, searchPath("silent"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"listen", "silent", "enlist"}, decodeBody[model.SearchResult](t, w).Anagrams)
}

type failingSearcher struct{ err error }

func (f failingSearcher) Search(context.Context, string) (model.SearchResult, error) {
	return model.SearchResult{}, f.err
}

func TestSearchHandler_InternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, Dependencies{
		Searcher: failingSearcher{err: errors.New("boom")},
		Logger:   logger.Discard(),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, searchPath("listen"), nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrorCodeSearchFailed, decodeBody[APIError](t, w).Code)
}

func TestHealthCheckHandler(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	w := stack.do(http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["corpus_loaded"])

	stack.do(http.MethodGet, searchPath("tea"))

	body = decodeBody[map[string]any](t, stack.do(http.MethodGet, "/health"))
	assert.Equal(t, true, body["corpus_loaded"])
}

func TestCorpusHandlers(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	stats := decodeBody[model.CorpusStats](t, stack.do(http.MethodGet, "/corpus"))
	assert.False(t, stats.Loaded)
	assert.Equal(t, stack.words.URL, stats.Source)
	assert.Zero(t, stack.words.Hits(), "stats must not trigger a load")

	stack.do(http.MethodGet, searchPath("tea"))

	stats = decodeBody[model.CorpusStats](t, stack.do(http.MethodGet, "/corpus"))
	require.True(t, stats.Loaded)
	require.NotNil(t, stats.Corpus)
	assert.Equal(t, 6, stats.Corpus.Index.Words)
	assert.Equal(t, int64(1), stats.Fetches)

	w := stack.do(http.MethodDelete, "/corpus")
	require.Equal(t, http.StatusOK, w.Code)

	stats = decodeBody[model.CorpusStats](t, stack.do(http.MethodGet, "/corpus"))
	assert.False(t, stats.Loaded)
	assert.Equal(t, int64(1), stats.Invalidations)

	stack.do(http.MethodGet, searchPath("tea"))
	assert.Equal(t, int64(2), stack.words.Hits())
}

func TestRefreshCorpusHandler(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	w := stack.do(http.MethodPost, "/corpus/refresh")
	require.Equal(t, http.StatusAccepted, w.Code)

	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "accepted", body["status"])
	jobID, ok := body["job_id"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(jobID)
	require.NoError(t, err)

	job := testutil.WaitForJob(t, stack.jobs, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeCorpusRefresh, stack.words.URL)

	require.NotNil(t, stack.cache.Current())
	assert.Equal(t, int64(1), stack.words.Hits())

	w = stack.do(http.MethodGet, "/jobs/"+jobID)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decodeBody[model.Job](t, w)
	assert.Equal(t, model.JobStatusCompleted, fetched.Status)
	assert.NotEmpty(t, fetched.Metadata["request_id"])
}

func TestRefreshCorpusHandler_FailureKeepsCorpus(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})
	require.Equal(t, http.StatusOK, stack.do(http.MethodGet, searchPath("tea")).Code)
	before := stack.cache.Current()

	stack.words.Respond(http.StatusInternalServerError, nil)
	w := stack.do(http.MethodPost, "/corpus/refresh")
	require.Equal(t, http.StatusAccepted, w.Code)

	jobID := decodeBody[map[string]any](t, w)["job_id"].(string)
	job := testutil.WaitForJob(t, stack.jobs, jobID, testutil.DefaultJobPollingOptions())
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)

	assert.Same(t, before, stack.cache.Current())
	w = stack.do(http.MethodGet, searchPath("eat"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tea", "eat"}, decodeBody[model.SearchResult](t, w).Anagrams)
}

func TestGetJobHandler_Errors(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	tests := []struct {
		name           string
		jobID          string
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{name: "malformed id", jobID: "not-a-uuid", expectedStatus: http.StatusBadRequest, expectedCode: ErrorCodeValidationFailed},
		{name: "unknown id", jobID: uuid.NewString(), expectedStatus: http.StatusNotFound, expectedCode: ErrorCodeJobNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := stack.do(http.MethodGet, "/jobs/"+tt.jobID)
			require.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, decodeBody[APIError](t, w).Code)
		})
	}
}

func TestListJobsHandler(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	w := stack.do(http.MethodPost, "/corpus/refresh")
	require.Equal(t, http.StatusAccepted, w.Code)
	jobID := decodeBody[map[string]any](t, w)["job_id"].(string)
	testutil.WaitForJob(t, stack.jobs, jobID, testutil.DefaultJobPollingOptions())

	type listResponse struct {
		Jobs  []model.Job `json:"jobs"`
		Total int         `json:"total"`
	}

	all := decodeBody[listResponse](t, stack.do(http.MethodGet, "/jobs"))
	assert.Equal(t, 1, all.Total)

	completed := decodeBody[listResponse](t, stack.do(http.MethodGet, "/jobs?status=completed"))
	require.Equal(t, 1, completed.Total)
	assert.Equal(t, jobID, completed.Jobs[0].ID)

	failed := decodeBody[listResponse](t, stack.do(http.MethodGet, "/jobs?status=failed"))
	assert.Zero(t, failed.Total)

	w = stack.do(http.MethodGet, "/jobs?status=exploded")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorCodeValidationFailed, decodeBody[APIError](t, w).Code)
}

func TestGetJobMetricsHandler(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	w := stack.do(http.MethodGet, "/jobs/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody[map[string]any](t, w)
	assert.Contains(t, body, "metrics")
	assert.Equal(t, 1.0, body["success_rate"])
	assert.Equal(t, 0.0, body["current_workload"])
}

func TestMetricsEndpoint(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})
	stack.do(http.MethodGet, searchPath("listen"))

	w := stack.do(http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anagram_search_requests_total")
	assert.Contains(t, w.Body.String(), "anagram_corpus_fetches_total")
}

func TestNoRoute(t *testing.T) {
	stack := setupTestStack(t, config.ServerSettings{})

	w := stack.do(http.MethodGet, "/indexes")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeNotFound, decodeBody[APIError](t, w).Code)
}
