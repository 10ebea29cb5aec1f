package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileStore keeps records in a single JSON file.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records []Record
	now     func() time.Time
}

func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, now: time.Now}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Insert(_ context.Context, script, videoURL string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		ID:        uuid.NewString(),
		Script:    script,
		VideoURL:  videoURL,
		CreatedAt: s.now().UTC(),
	}

	s.records = append(s.records, rec)
	if err := s.save(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return nil, err
	}
	return &rec, nil
}

// List returns the newest records first.
func (s *FileStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = ClampLimit(limit)
	result := make([]Record, 0, min(limit, len(s.records)))
	for i := len(s.records) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.records[i])
	}
	return result, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read metadata file: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("parse metadata file: %w", err)
	}
	return nil
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace metadata file: %w", err)
	}
	return nil
}
