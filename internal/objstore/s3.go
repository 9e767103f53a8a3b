package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/driftstore/driftstore/pkg/types"
)

// S3Config holds the settings needed to reach an S3 bucket.
type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	MaxRetries      int    `yaml:"max_retries"`

	// KeyPrefix is prepended to every object key, so multiple repositories
	// can share one bucket.
	KeyPrefix string `yaml:"key_prefix"`
}

// S3 is an ObjectStore backed by an S3 bucket.
type S3 struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	logger    *slog.Logger
}

var _ ObjectStore = (*S3)(nil)

// NewS3 builds an S3 object store from cfg. Static credentials are used when
// configured; otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.MaxRetries > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	keyPrefix := cfg.KeyPrefix
	if keyPrefix != "" && !strings.HasSuffix(keyPrefix, "/") {
		keyPrefix += "/"
	}

	store := &S3{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
	if err := store.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("S3 health check failed: %w", err)
	}
	return store, nil
}

func (s *S3) fullKey(key string) string {
	return s.keyPrefix + key
}

func (s *S3) GetObject(ctx context.Context, key string) ([]byte, error) {
	return s.GetObjectRange(ctx, key, types.EntireObject)
}

func (s *S3) GetObjectRange(ctx context.Context, key string, rng types.BackendRange) ([]byte, error) {
	// A zero-length window has no HTTP Range representation, and a
	// malformed Range header makes S3 answer with the whole object. Skip
	// the round trip entirely.
	if rng.Count == 0 {
		return []byte{}, nil
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Range:  rangeHeader(rng),
	}

	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		return nil, s.translateError(err, "GetObject", key)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

func (s *S3) PutObject(ctx context.Context, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.fullKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return s.translateError(err, "PutObject", key)
	}
	return nil
}

func (s *S3) DeleteObject(ctx context.Context, key string) error {
	// S3 DeleteObject succeeds on missing keys; probe first so callers get
	// the NotFoundError the ObjectStore contract promises.
	if _, err := s.HeadObject(ctx, key); err != nil {
		return err
	}
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	}
	if _, err := s.client.DeleteObject(ctx, input); err != nil {
		return s.translateError(err, "DeleteObject", key)
	}
	return nil
}

func (s *S3) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.fullKey(prefix)),
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.translateError(err, "ListObjects", prefix)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), s.keyPrefix)
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *S3) HeadObject(ctx context.Context, key string) (ObjectInfo, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	}
	result, err := s.client.HeadObject(ctx, input)
	if err != nil {
		return ObjectInfo{}, s.translateError(err, "HeadObject", key)
	}
	return ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(result.ContentLength),
		LastModified: aws.ToTime(result.LastModified),
		ETag:         aws.ToString(result.ETag),
	}, nil
}

// HealthCheck verifies the bucket is reachable.
func (s *S3) HealthCheck(ctx context.Context) error {
	input := &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	}
	if _, err := s.client.HeadBucket(ctx, input); err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", s.bucket, err)
	}
	return nil
}

// rangeHeader renders rng as an HTTP Range header, or nil for a whole-object
// read. Zero-length reads are resolved by GetObjectRange before a request is
// built, so rng.Count is never 0 here.
func rangeHeader(rng types.BackendRange) *string {
	switch {
	case rng.Suffix:
		return aws.String(fmt.Sprintf("bytes=-%d", rng.Count))
	case rng.Start == 0 && rng.Count < 0:
		return nil
	case rng.Count < 0:
		return aws.String(fmt.Sprintf("bytes=%d-", rng.Start))
	default:
		return aws.String(fmt.Sprintf("bytes=%d-%d", rng.Start, rng.Start+uint64(rng.Count)-1))
	}
}

func (s *S3) translateError(err error, operation, key string) error {
	switch {
	case isErrorType[*s3types.NoSuchKey](err), isErrorType[*s3types.NotFound](err):
		return &types.NotFoundError{Key: key}
	case isErrorType[*s3types.NoSuchBucket](err):
		return fmt.Errorf("bucket not found: %s", s.bucket)
	default:
		return fmt.Errorf("%s failed for %s: %w", operation, key, err)
	}
}

// isErrorType checks if an error is of a specific type
func isErrorType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
