package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/go-anagram-search/internal/errors"
)

func TestHTTPSearcher_Search(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("search")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"anagrams":["listen","silent","enlist"]}`))
	}))
	defer server.Close()

	searcher := NewHTTPSearcher(server.URL+"/", time.Second)
	result, err := searcher.Search(context.Background(), "LISTEN! & co?")

	require.NoError(t, err)
	assert.Equal(t, "LISTEN! & co?", gotQuery, "the raw query is escaped, not normalized")
	assert.Equal(t, []string{"listen", "silent", "enlist"}, result.Anagrams)
}

func TestHTTPSearcher_NullAnagrams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"anagrams":null}`))
	}))
	defer server.Close()

	result, err := NewHTTPSearcher(server.URL, time.Second).Search(context.Background(), "tea")

	require.NoError(t, err)
	assert.NotNil(t, result.Anagrams)
	assert.Empty(t, result.Anagrams)
}

func TestHTTPSearcher_StatusErrors(t *testing.T) {
	tests := []struct {
		name              string
		status            int
		body              string
		expectedCode      string
		corpusUnavailable bool
	}{
		{
			name:              "corpus unavailable",
			status:            http.StatusServiceUnavailable,
			body:              `{"error":"Request failed","code":"CORPUS_UNAVAILABLE","message":"Word list is unavailable"}`,
			expectedCode:      "CORPUS_UNAVAILABLE",
			corpusUnavailable: true,
		},
		{
			name:         "rate limited",
			status:       http.StatusTooManyRequests,
			body:         `{"error":"Request failed","code":"RATE_LIMITED","message":"Too many requests"}`,
			expectedCode: "RATE_LIMITED",
		},
		{
			name:   "plain text error",
			status: http.StatusBadGateway,
			body:   "bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHTTPSearcher(server.URL, time.Second).Search(context.Background(), "tea")
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.expectedCode, statusErr.Code)
			assert.Equal(t, tt.corpusUnavailable, errors.Is(err, internalErrors.ErrCorpusUnavailable))
		})
	}
}

func TestHTTPSearcher_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewHTTPSearcher(server.URL, 0).Search(ctx, "tea")

	assert.ErrorIs(t, err, context.Canceled)
}
