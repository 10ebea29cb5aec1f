package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const minioRegion = "us-east-1"

type MinIOOptions struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

type MinIOStorage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

func NewMinIOStorage(opts MinIOOptions) (*MinIOStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: minioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	base := opts.PublicBaseURL
	if base == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}

	return &MinIOStorage{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: base,
	}, nil
}

// EnsureBucket creates the bucket with an anonymous read policy when it does
// not exist yet. Existing buckets keep whatever policy they have.
func (s *MinIOStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: minioRegion}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	slog.Info("Created bucket", "bucket", s.bucket)

	if err := s.client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket)); err != nil {
		return fmt.Errorf("failed to set policy on bucket %s: %w", s.bucket, err)
	}
	return nil
}

// publicReadPolicy lets anonymous clients GET objects so PublicURL resolves.
func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

func (s *MinIOStorage) Upload(ctx context.Context, key string, data []byte, opts UploadOptions) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *MinIOStorage) PublicURL(key string) string {
	return joinURL(s.publicBaseURL, key)
}
