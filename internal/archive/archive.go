// Package archive stores exported Q&A documents in an S3-compatible bucket
// (Cloudflare R2 by default) and hands out time-limited download links.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
)

const markdownContentType = "text/markdown; charset=utf-8"

var ErrNotConfigured = errors.New("archive bucket is not configured")

// Config holds archive configuration.
type Config struct {
	AccountID string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	URLExpiry time.Duration
}

// endpoint returns the configured endpoint, deriving the R2 endpoint from
// the account ID when none is set.
func (c Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if c.AccountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	}
	return ""
}

// Object describes a stored document.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store uploads Q&A markdown to the bucket.
type Store struct {
	client  putter
	presign func(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	bucket  string
	expiry  time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// New builds a Store from static credentials, falling back to the default
// AWS credential chain when no keys are given.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.endpoint()
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	presignClient := s3.NewPresignClient(client)

	log.Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", endpoint).
		Msg("Q&A archive initialized")

	return &Store{
		client: client,
		presign: func(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
			req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			}, s3.WithPresignExpires(expiry))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
		bucket:  cfg.Bucket,
		expiry:  cfg.URLExpiry,
		now:     time.Now,
		metrics: metrics.DefaultMetrics,
	}, nil
}

// Key returns the object key for a report's Q&A document. Keys are
// timestamped so every export is kept.
func Key(reportID string, at time.Time) string {
	return fmt.Sprintf("qa/%s/interview-qa-%s-%d.md", reportID, reportID, at.UTC().Unix())
}

// PutMarkdown uploads a report's Q&A markdown and returns its key and a
// presigned download URL.
func (s *Store) PutMarkdown(ctx context.Context, reportID, markdown string) (Object, error) {
	key := Key(reportID, s.now())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader([]byte(markdown)),
		ContentType:        aws.String(markdownContentType),
		ContentDisposition: aws.String(fmt.Sprintf(`attachment; filename="interview-qa-%s.md"`, reportID)),
	})
	s.metrics.RecordArchiveUpload(err)
	if err != nil {
		log.Error().Err(err).Str("reportId", reportID).Str("key", key).Msg("Archive upload failed")
		return Object{}, fmt.Errorf("put %s: %w", key, err)
	}

	url, err := s.presign(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return Object{}, fmt.Errorf("presign %s: %w", key, err)
	}

	log.Info().Str("reportId", reportID).Str("key", key).Msg("Q&A archived")
	return Object{Key: key, URL: url}, nil
}
