package storage

import (
	"context"
	"strings"
)

// UploadOptions are object headers applied at upload time.
type UploadOptions struct {
	ContentType  string
	CacheControl string
}

// BlobStore is durable object storage that can hand out public URLs.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, opts UploadOptions) error
	PublicURL(key string) string
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
