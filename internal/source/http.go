package source

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// shared client (keep-alive, TLS session reuse). Deadlines come from the
// caller's context, so no client-wide timeout is set.
var httpClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	},
}

const userAgent = "go-anagram-search/1.0"

// HTTPSource downloads the word list with a GET request.
type HTTPSource struct {
	url      string
	maxBytes int64
}

// NewHTTPSource creates an HTTPSource for url.
func NewHTTPSource(url string, maxBytes int64) *HTTPSource {
	return &HTTPSource{url: url, maxBytes: maxBytes}
}

// Fetch downloads the payload. Any non-200 status is an error.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", s.url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/plain")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, s.url)
	}

	data, err := readLimited(resp.Body, s.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.url, err)
	}
	return data, nil
}

func (s *HTTPSource) String() string {
	return s.url
}
