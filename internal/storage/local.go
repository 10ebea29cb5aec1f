package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStorage writes blobs to a directory served under baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{
		dir:     dir,
		baseURL: baseURL,
	}
}

func (s *LocalStorage) Upload(_ context.Context, key string, data []byte, _ UploadOptions) error {
	if key != filepath.Base(key) {
		return fmt.Errorf("invalid object key: %q", key)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0644); err != nil {
		return fmt.Errorf("failed to write video file: %w", err)
	}

	return nil
}

func (s *LocalStorage) PublicURL(key string) string {
	return joinURL(s.baseURL, key)
}
