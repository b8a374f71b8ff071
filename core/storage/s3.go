package storage

import (
	"bytes"
	"context"
	"fmt"

	appconfig "booking-gateway/core/config"
	"booking-gateway/core/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of the S3 API used here; narrowed so tests can fake it.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes operator exports to S3.
type Uploader struct {
	client S3Client
	bucket string
}

func NewUploader(ctx context.Context, cfg appconfig.AWSConfig) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
	}, nil
}

// NewUploaderWithClient wraps an existing client. Intended for tests.
func NewUploaderWithClient(client S3Client, bucket string) *Uploader {
	return &Uploader{client: client, bucket: bucket}
}

func (u *Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if u.bucket == "" {
		return "", fmt.Errorf("export bucket is not configured")
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	logger.Info("Storage:Upload:Success", "location", location, "bytes", len(body))
	return location, nil
}
