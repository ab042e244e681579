// Package artifact moves model files between the local filesystem and an
// S3-compatible object store.
package artifact

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

const (
	DefaultRegion  = "eu-west-1"
	DefaultProfile = "default"

	// DefaultTimeout bounds a single upload or download.
	DefaultTimeout = 2 * time.Minute
)

// Config selects the bucket endpoint and credentials. When AccessKeyID and
// SecretAccessKey are both set they are used as static credentials;
// otherwise the shared config Profile is used.
type Config struct {
	Region          string
	Endpoint        string // empty means AWS S3
	AccessKeyID     string
	SecretAccessKey string
	Profile         string
	UsePathStyle    bool // required by most S3-compatible servers

	// Timeout bounds client setup and each transfer. Zero means no limit.
	Timeout time.Duration
}

// ObjectAPI is the subset of the S3 client used by Store.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store uploads and downloads whole files as single objects.
type Store struct {
	api     ObjectAPI
	timeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds every Upload and Download call by d. Zero or negative
// means no limit beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// New builds an S3 client from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	} else {
		profile := cfg.Profile
		if profile == "" {
			profile = DefaultProfile
		}
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewArtifactTransferError("configure", "", "", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewWithAPI(client, WithTimeout(cfg.Timeout)), nil
}

// NewWithAPI wraps an existing client.
func NewWithAPI(api ObjectAPI, opts ...Option) *Store {
	s := &Store{api: api}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Upload stores the file at path under bucket/key, replacing any existing
// object.
func (s *Store) Upload(ctx context.Context, path, bucket, key string) error {
	logger := slog.With(log.ComponentKey, "artifact", log.OperationKey, log.OperationUpload,
		log.BucketKey, bucket, log.KeyKey, key)

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewFilesystemError("read", path, err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return errors.NewArtifactTransferError("upload", bucket, key, err)
	}

	logger.Info("Uploaded model artifact",
		log.PathKey, path,
		log.BytesKey, len(data),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Download writes the object bucket/key to path, creating parent
// directories and replacing any existing file.
func (s *Store) Download(ctx context.Context, bucket, key, path string) error {
	logger := slog.With(log.ComponentKey, "artifact", log.OperationKey, log.OperationDownload,
		log.BucketKey, bucket, log.KeyKey, key)

	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.NewArtifactTransferError("download", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return errors.NewArtifactTransferError("download", bucket, key, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewFilesystemError("mkdir", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewFilesystemError("write", path, err)
	}

	logger.Info("Downloaded model artifact",
		log.PathKey, path,
		log.BytesKey, len(data),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}
