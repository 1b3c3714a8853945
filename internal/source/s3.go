package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gcbaptista/go-anagram-search/config"
)

// S3Source downloads the word list object with the S3 transfer manager.
type S3Source struct {
	client     *s3.Client
	downloader *manager.Downloader
	bucket     string
	key        string
	maxBytes   int64
}

// NewS3Source resolves AWS credentials from the default chain and creates an S3Source.
func NewS3Source(ctx context.Context, bucket, key string, settings config.S3Settings, maxBytes int64) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(settings.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		}
		o.UsePathStyle = settings.UsePathStyle
	})

	return NewS3SourceWithClient(client, bucket, key, maxBytes), nil
}

// NewS3SourceWithClient creates an S3Source around an existing client.
func NewS3SourceWithClient(client *s3.Client, bucket, key string, maxBytes int64) *S3Source {
	return &S3Source{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		key:        key,
		maxBytes:   maxBytes,
	}
}

// Fetch downloads the whole object into memory. The object size is checked
// before anything is downloaded, and the download is pinned to the checked ETag.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, s.wrapError("stat", err)
	}

	size := aws.ToInt64(head.ContentLength)
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrPayloadTooLarge, s, size)
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
	n, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket:  aws.String(s.bucket),
		Key:     aws.String(s.key),
		IfMatch: head.ETag,
	})
	if err != nil {
		return nil, s.wrapError("download", err)
	}

	if s.maxBytes > 0 && n > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrPayloadTooLarge, s, n)
	}
	return buf.Bytes(), nil
}

func (s *S3Source) wrapError(op string, err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("word list %s does not exist: %w", s, err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, s, err)
}

func (s *S3Source) String() string {
	return "s3://" + s.bucket + "/" + s.key
}
