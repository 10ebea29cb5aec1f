package metadata

import (
	"context"
	"time"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Record is one published video and the script it was voiced from.
type Record struct {
	ID        string    `json:"id"`
	Script    string    `json:"script"`
	VideoURL  string    `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Insert(ctx context.Context, script, videoURL string) (*Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
}

// ClampLimit maps a caller supplied page size into [1, MaxListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
