package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	data, err := Download(context.Background(), server.Client(), server.URL)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("Download() = %q, want %q", data, "video-bytes")
	}
}

func TestDownloadStatusError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"notFound", http.StatusNotFound},
		{"forbidden", http.StatusForbidden},
		{"serverError", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := Download(context.Background(), server.Client(), server.URL)
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("Download() error = %v, want *StatusError", err)
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.status)
			}
			if atomic.LoadInt32(&attempts) != 1 {
				t.Errorf("expected exactly 1 attempt, got %d", attempts)
			}
		})
	}
}

func TestDownloadNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	if _, err := Download(context.Background(), nil, url); err == nil {
		t.Error("expected error for closed server")
	}
}
