package source

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gcbaptista/go-anagram-search/config"
)

// MinioSource reads the word list object from MinIO or any S3-compatible store.
type MinioSource struct {
	client   *minio.Client
	bucket   string
	key      string
	maxBytes int64
}

// NewMinioSource creates a MinioSource using static credentials from settings.
func NewMinioSource(bucket, key string, settings config.MinIOSettings, maxBytes int64) (*MinioSource, error) {
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client for %s: %w", settings.Endpoint, err)
	}
	return &MinioSource{client: client, bucket: bucket, key: key, maxBytes: maxBytes}, nil
}

// Fetch streams the object into memory.
func (s *MinioSource) Fetch(ctx context.Context) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := readLimited(obj, s.maxBytes)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("word list %s does not exist: %w", s, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s, err)
	}
	return data, nil
}

func (s *MinioSource) String() string {
	return "minio://" + s.bucket + "/" + s.key
}
