package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ghuser/supplytrack/services/item/infrastructure/persistence/snapshot"
)

var _ snapshot.Backend = (*SnapshotBackend)(nil)

// Config holds the connection parameters for an S3 or MinIO bucket.
type Config struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string // optional; set for MinIO or other S3-compatible stores
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
}

// SnapshotBackend keeps the item snapshot as a single object. Every save
// is a full PutObject of the encoded state.
type SnapshotBackend struct {
	client *s3.Client
	bucket string
	key    string
}

// New builds an S3 client from cfg. A custom endpoint switches the client to
// path-style addressing, which MinIO requires.
func New(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*SnapshotBackend, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, errors.New("s3 bucket and key are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}}, optFns...)...)

	return NewFromClient(client, cfg.Bucket, cfg.Key), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *s3.Client, bucket, key string) *SnapshotBackend {
	return &SnapshotBackend{client: client, bucket: bucket, key: key}
}

func (b *SnapshotBackend) Driver() string { return "s3" }

// Load fetches the snapshot object. A missing object maps to
// snapshot.ErrSnapshotNotFound.
func (b *SnapshotBackend) Load(ctx context.Context) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, snapshot.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", b.bucket, b.key, err)
	}
	defer out.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", b.bucket, b.key, err)
	}
	return data, nil
}

// Save overwrites the snapshot object with data.
func (b *SnapshotBackend) Save(ctx context.Context, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", b.bucket, b.key, err)
	}
	return nil
}

// Ping checks that the bucket exists and is reachable.
func (b *SnapshotBackend) Ping(ctx context.Context) error {
	if _, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", b.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
