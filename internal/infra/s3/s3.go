// Package s3 provides the S3-compatible blob store for processed images.
package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
)

// Config holds the object storage settings.
type Config struct {
	InstanceURL  string // custom endpoint; empty means AWS
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
}

// Store implements domain.BlobStore on top of the S3 upload manager.
type Store struct {
	uploader *manager.Uploader
	bucket   string
	logger   *zap.Logger
}

var _ domain.BlobStore = (*Store)(nil)

// New builds an S3 client for cfg and wraps it in a Store.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
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
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.InstanceURL != "" {
			o.BaseEndpoint = aws.String(cfg.InstanceURL)
			// S3-compatible stores often reject the default flexible checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info("object storage configured",
		zap.String("endpoint", cfg.InstanceURL),
		zap.String("bucket", cfg.Bucket),
		zap.Bool("path_style", cfg.UsePathStyle),
	)

	return &Store{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		logger:   logger,
	}, nil
}

// Put uploads body under key with the given content type, replacing any
// existing object.
func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}

	s.logger.Debug("object uploaded",
		zap.String("key", key),
		zap.Int("bytes", len(body)),
	)

	return nil
}
