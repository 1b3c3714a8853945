package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	internalErrors "github.com/gcbaptista/go-anagram-search/internal/errors"
	"github.com/gcbaptista/go-anagram-search/model"
	"github.com/gcbaptista/go-anagram-search/services"
)

const corpusUnavailableCode = "CORPUS_UNAVAILABLE"

// StatusError is returned for non-2xx search responses.
type StatusError struct {
	StatusCode int
	Code       string // API error code, empty if the body was not an API error
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("search failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("search failed with status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Is lets callers test a 503 with errors.Is(err, errors.ErrCorpusUnavailable).
func (e *StatusError) Is(target error) bool {
	return target == internalErrors.ErrCorpusUnavailable && e.Code == corpusUnavailableCode
}

// HTTPSearcher calls the search endpoint of a running server.
type HTTPSearcher struct {
	baseURL string
	client  *http.Client
}

var _ services.Searcher = (*HTTPSearcher)(nil)

// NewHTTPSearcher creates a searcher for the server at baseURL.
// A zero timeout leaves requests bounded only by their context.
func NewHTTPSearcher(baseURL string, timeout time.Duration) *HTTPSearcher {
	return &HTTPSearcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Search sends GET {base}/search?search=<raw>.
func (s *HTTPSearcher) Search(ctx context.Context, rawQuery string) (model.SearchResult, error) {
	endpoint := s.baseURL + "/search?" + url.Values{"search": {rawQuery}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.SearchResult{}, decodeStatusError(resp)
	}

	var result model.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.SearchResult{}, fmt.Errorf("failed to decode search response: %w", err)
	}
	if result.Anagrams == nil {
		result.Anagrams = []string{}
	}
	return result, nil
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(data, &body) == nil {
		statusErr.Code = body.Code
		statusErr.Message = body.Message
	}
	return statusErr
}
