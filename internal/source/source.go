// Package source fetches the raw word list payload from its configured origin.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gcbaptista/go-anagram-search/config"
)

// ErrPayloadTooLarge is returned when a word list exceeds the configured size limit.
var ErrPayloadTooLarge = errors.New("word list payload too large")

// Source fetches the complete word list payload. Implementations honour ctx
// cancellation and must be safe for concurrent use.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// New builds the Source described by settings.Source.
func New(ctx context.Context, settings config.CorpusSettings) (Source, error) {
	u, err := url.Parse(settings.Source)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus source %q: %w", settings.Source, err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPSource(settings.Source, settings.MaxBytes), nil
	case "file":
		return NewFileSource(filePath(u), settings.MaxBytes), nil
	case "s3":
		bucket, key, err := bucketKey(u)
		if err != nil {
			return nil, err
		}
		return NewS3Source(ctx, bucket, key, settings.S3, settings.MaxBytes)
	case "minio":
		bucket, key, err := bucketKey(u)
		if err != nil {
			return nil, err
		}
		return NewMinioSource(bucket, key, settings.MinIO, settings.MaxBytes)
	default:
		return nil, fmt.Errorf("unsupported corpus source scheme %q", u.Scheme)
	}
}

func filePath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

func bucketKey(u *url.URL) (string, string, error) {
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("corpus source %q must look like %s://bucket/key", u.String(), u.Scheme)
	}
	return u.Host, key, nil
}

// readLimited reads r fully, failing once more than limit bytes arrive.
// A limit <= 0 disables the check.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, limit)
	}
	return data, nil
}
