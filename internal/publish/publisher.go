package publish

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"newsreel/internal/metadata"
	"newsreel/internal/storage"
	"newsreel/pkg/httputil"
)

const (
	ContentType     = "video/mp4"
	CacheControl    = "max-age=3600"
	downloadTimeout = 5 * time.Minute
)

// Publisher moves a provider hosted video into our own storage and records it.
type Publisher struct {
	blobs      storage.BlobStore
	records    metadata.Store
	httpClient *http.Client
	newKey     func() string
}

func New(blobs storage.BlobStore, records metadata.Store) *Publisher {
	return &Publisher{
		blobs:      blobs,
		records:    records,
		httpClient: &http.Client{Timeout: downloadTimeout},
		newKey:     NewKey,
	}
}

// NewKey returns a collision free object name for a video.
func NewKey() string {
	return "video-" + uuid.NewString() + ".mp4"
}

func (p *Publisher) Fetch(ctx context.Context, url string) ([]byte, error) {
	data, err := httputil.Download(ctx, p.httpClient, url)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	return data, nil
}

// Store uploads data under a fresh key and returns its public URL.
func (p *Publisher) Store(ctx context.Context, data []byte) (key, publicURL string, err error) {
	key = p.newKey()
	err = p.blobs.Upload(ctx, key, data, storage.UploadOptions{
		ContentType:  ContentType,
		CacheControl: CacheControl,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload video: %w", err)
	}
	return key, p.blobs.PublicURL(key), nil
}

func (p *Publisher) Record(ctx context.Context, script, publicURL string) (*metadata.Record, error) {
	rec, err := p.records.Insert(ctx, script, publicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to save to database: %w", err)
	}
	return rec, nil
}
