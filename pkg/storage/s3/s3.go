// Package s3 implements the storage backend port over one object-storage
// bucket. Each key is an object path; enumeration uses prefix listing with
// pagination; conditional creates use If-None-Match so concurrent creation
// of the same id is deduplicated by the store itself.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/warden/pkg/storage"
)

var tracer = otel.Tracer("github.com/platinummonkey/warden/pkg/storage/s3")

// Backend stores directory documents as objects in one bucket.
type Backend struct {
	client *s3.Client
	bucket string
}

// New creates a bucket-backed storage backend. Static credentials are used
// when configured (MinIO, or AWS with explicit keys), otherwise the default
// credential chain applies. The bucket is created if it does not exist, for
// local development setups.
func New(ctx context.Context, cfg storage.Config) (*Backend, error) {
	var awsCfg aws.Config
	var err error

	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKey,
				cfg.S3SecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		if cfg.S3UsePathStyle {
			o.UsePathStyle = true
		}
	})

	if err := createBucketIfNotExists(ctx, client, cfg.S3Bucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return &Backend{client: client, bucket: cfg.S3Bucket}, nil
}

// Load implements storage.Backend.Load.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "S3.Load",
		trace.WithAttributes(
			attribute.String("s3.bucket", b.bucket),
			attribute.String("s3.key", key),
		),
	)
	defer span.End()

	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrKeyNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object")
		return nil, fmt.Errorf("failed to get object %q: %w", key, err)
	}
	defer result.Body.Close()

	doc, err := io.ReadAll(result.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read object body")
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	span.SetAttributes(attribute.Int("content.size", len(doc)))
	return doc, nil
}

// Store implements storage.Backend.Store.
func (b *Backend) Store(ctx context.Context, key string, doc []byte) error {
	ctx, span := tracer.Start(ctx, "S3.Store",
		trace.WithAttributes(
			attribute.String("s3.bucket", b.bucket),
			attribute.String("s3.key", key),
			attribute.Int("content.size", len(doc)),
		),
	)
	defer span.End()

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put object")
		return fmt.Errorf("failed to put object %q: %w", key, err)
	}
	return nil
}

// Create implements storage.Backend.Create via a conditional put: the write
// succeeds only when no object exists at the key. A plain overwrite here
// would make concurrent creation of the same id silently lose one writer.
func (b *Backend) Create(ctx context.Context, key string, doc []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isPreconditionError(err) {
			return storage.ErrKeyExists
		}
		return fmt.Errorf("failed to create object %q: %w", key, err)
	}
	return nil
}

// Delete implements storage.Backend.Delete. Deleting an absent object is a
// no-op on S3 already.
func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

// ListKeysBelow implements storage.Backend.ListKeysBelow using prefix
// listing with continuation-token pagination.
func (b *Backend) ListKeysBelow(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var continuation *string
	for {
		page, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.bucket),
			Prefix:            aws.String(prefix + "/"),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects below %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
		if page.IsTruncated == nil || !*page.IsTruncated {
			return keys, nil
		}
		continuation = page.NextContinuationToken
	}
}

// HealthCheck verifies bucket connectivity.
func (b *Backend) HealthCheck(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil && !isBucketAlreadyExistsError(err) {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func isNotFoundError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "NotFound") ||
		strings.Contains(err.Error(), "NoSuchKey"))
}

func isPreconditionError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "PreconditionFailed") ||
		strings.Contains(err.Error(), "ConditionalRequestConflict"))
}

func isBucketAlreadyExistsError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "BucketAlreadyExists") ||
		strings.Contains(err.Error(), "BucketAlreadyOwnedByYou"))
}
