// Package archive writes provenance documents of finalized batches to an
// S3-compatible bucket (AWS S3 or MinIO).
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const defaultPrefix = "provenance"

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, e.g. a MinIO URL
	Prefix          string
	AccessKeyID     string // optional; default credential chain otherwise
	SecretAccessKey string
	PathStyle       bool
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool { return c.Bucket != "" }

type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// New builds an archiver from cfg. Extra client options are applied last,
// which is how tests swap in a fake transport.
func New(ctx context.Context, cfg Config, logger *zap.Logger, optFns ...func(*s3.Options)) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
	})

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &S3Archiver{client: client, bucket: cfg.Bucket, prefix: prefix, logger: logger}, nil
}

// Key returns the object key a batch document is stored under.
func (a *S3Archiver) Key(batchID string) string {
	return path.Join(a.prefix, batchID+".json")
}

// Archive overwrites the batch document. Finalizing twice in legacy mode
// simply refreshes it.
func (a *S3Archiver) Archive(ctx context.Context, batchID string, document []byte) error {
	if batchID == "" {
		return fmt.Errorf("archive: empty batch id")
	}
	key := a.Key(batchID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(document),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"batch-id": batchID},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	a.logger.Info("batch provenance archived", zap.String("batch_id", batchID), zap.String("key", key))
	return nil
}

// Ping checks that the bucket is reachable.
func (a *S3Archiver) Ping(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	return err
}
