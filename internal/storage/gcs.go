package storage

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

type GCSOptions struct {
	Bucket          string
	CredentialsFile string
	Endpoint        string
	PublicBaseURL   string
}

type GCSStorage struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

func NewGCSStorage(ctx context.Context, opts GCSOptions) (*GCSStorage, error) {
	clientOpts, err := gcsClientOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	base := opts.PublicBaseURL
	if base == "" {
		base = gcsPublicHost + "/" + opts.Bucket
	}

	return &GCSStorage{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: base,
	}, nil
}

func gcsClientOptions(ctx context.Context, opts GCSOptions) ([]option.ClientOption, error) {
	var clientOpts []option.ClientOption

	if opts.CredentialsFile != "" {
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read GCS credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, storage.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GCS credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}

	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	return clientOpts, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) Upload(ctx context.Context, key string, data []byte, opts UploadOptions) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.CacheControl = opts.CacheControl

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *GCSStorage) PublicURL(key string) string {
	return joinURL(s.publicBaseURL, key)
}
