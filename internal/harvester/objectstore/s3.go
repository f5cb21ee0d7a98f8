// Package objectstore persists payload bytes in an S3-compatible backend.
// The catalog row in PostgreSQL references objects by key; content is
// immutable once written.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Seams for tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// Settings configures access to the S3-compatible backend.
type Settings struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store writes immutable payload objects.
type S3Store struct {
	bucket string
	client *s3.Client
}

// NewS3Store builds the client once; credentials are static (MinIO-style
// root user or an IAM key pair).
func NewS3Store(ctx context.Context, s Settings) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.User,
			s.Password,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{bucket: s.Bucket, client: client}, nil
}

// Key shards stored objects by upload date so bucket listings stay usable
// as the catalog grows.
func Key(pid string, uploaded time.Time) string {
	d := uploaded.UTC()
	return fmt.Sprintf("objects/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), pid)
}

// Put writes content under key.
func (s *S3Store) Put(ctx context.Context, key string, content []byte) error {
	_, err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
