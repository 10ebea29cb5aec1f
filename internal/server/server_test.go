package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newsreel/internal/app"
	"newsreel/internal/metadata"
)

type mockGenerator struct {
	result *app.GenerateResult
	err    error
	calls  int
	input  string
	ctxErr error
}

func (m *mockGenerator) Generate(ctx context.Context, businessData string) (*app.GenerateResult, error) {
	m.calls++
	m.input = businessData
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockRecords struct {
	records   []metadata.Record
	err       error
	lastLimit int
}

func (m *mockRecords) Insert(context.Context, string, string) (*metadata.Record, error) {
	return nil, errors.New("not used")
}

func (m *mockRecords) List(_ context.Context, limit int) ([]metadata.Record, error) {
	m.lastLimit = limit
	return m.records, m.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestGenerateSuccess(t *testing.T) {
	gen := &mockGenerator{result: &app.GenerateResult{VideoURL: "https://cdn/videos/video-1.mp4"}}
	h := New(Options{Generator: gen, Records: &mockRecords{}})

	rec := do(t, h, http.MethodPost, "/api/generate", `{"businessData":"Sales up 20%, hired 5 engineers"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := decode[map[string]string](t, rec)
	if body["videoUrl"] != "https://cdn/videos/video-1.mp4" {
		t.Errorf("videoUrl = %q", body["videoUrl"])
	}
	if gen.input != "Sales up 20%, hired 5 engineers" {
		t.Errorf("generator input = %q", gen.input)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		genErr     error
		wantStatus int
		wantError  string
		wantCalls  int
	}{
		{
			name:       "malformedJSON",
			body:       `{"businessData":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid JSON body",
			wantCalls:  0,
		},
		{
			name:       "validation",
			body:       `{}`,
			genErr:     &app.Error{Kind: app.KindValidation, Err: app.ErrBusinessDataRequired},
			wantStatus: http.StatusBadRequest,
			wantError:  "Business data is required",
			wantCalls:  1,
		},
		{
			name:       "insufficientCredits",
			body:       `{"businessData":"x"}`,
			genErr:     &app.Error{Kind: app.KindInsufficientCredits, Err: errors.New("Insufficient Replicate credits. Please add billing at https://replicate.com/account/billing")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Insufficient Replicate credits. Please add billing at https://replicate.com/account/billing",
			wantCalls:  1,
		},
		{
			name:       "upload",
			body:       `{"businessData":"x"}`,
			genErr:     &app.Error{Kind: app.KindUpload, Err: errors.New("failed to upload video: denied")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "failed to upload video: denied",
			wantCalls:  1,
		},
		{
			name:       "unclassified",
			body:       `{"businessData":"x"}`,
			genErr:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "boom",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{err: tt.genErr}
			h := New(Options{Generator: gen, Records: &mockRecords{}})

			rec := do(t, h, http.MethodPost, "/api/generate", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decode[map[string]string](t, rec)
			if body["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", body["error"], tt.wantError)
			}
			if gen.calls != tt.wantCalls {
				t.Errorf("generator calls = %d, want %d", gen.calls, tt.wantCalls)
			}
		})
	}
}

func TestGenerateDetachesCancellation(t *testing.T) {
	gen := &mockGenerator{result: &app.GenerateResult{VideoURL: "u"}}
	h := New(Options{Generator: gen, Records: &mockRecords{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"businessData":"x"}`)).WithContext(ctx)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gen.ctxErr != nil {
		t.Errorf("pipeline context err = %v, want detached context", gen.ctxErr)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"getGenerate", http.MethodGet, "/api/generate"},
		{"postVideos", http.MethodPost, "/api/videos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Options{Generator: &mockGenerator{}, Records: &mockRecords{}})
			rec := do(t, h, tt.method, tt.path, "")
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s status = %d, want 405", tt.method, tt.path, rec.Code)
			}
		})
	}
}

func TestGenerateBodyTooLarge(t *testing.T) {
	gen := &mockGenerator{result: &app.GenerateResult{VideoURL: "u"}}
	h := New(Options{Generator: gen, Records: &mockRecords{}})

	body := `{"businessData":"` + strings.Repeat("a", MaxRequestBytes) + `"}`
	rec := do(t, h, http.MethodPost, "/api/generate", body)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if gen.calls != 0 {
		t.Errorf("generator calls = %d, want 0", gen.calls)
	}
}

func TestHealth(t *testing.T) {
	h := New(Options{Generator: &mockGenerator{}, Records: &mockRecords{}})
	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

type pingingRecords struct {
	mockRecords
	err error
}

func (p *pingingRecords) Ping(context.Context) error {
	return p.err
}

func TestHealthPingsStore(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{"healthy", nil, http.StatusOK, "ok"},
		{"databaseDown", errors.New("connection refused"), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Options{Generator: &mockGenerator{}, Records: &pingingRecords{err: tt.pingErr}})
			rec := do(t, h, http.MethodGet, "/health", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := decode[map[string]string](t, rec); body["status"] != tt.wantBody {
				t.Errorf("status field = %q, want %q", body["status"], tt.wantBody)
			}
		})
	}
}

func TestListVideos(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"defaultLimit", "", http.StatusOK, metadata.DefaultListLimit},
		{"customLimit", "?limit=5", http.StatusOK, 5},
		{"clampedLimit", "?limit=500", http.StatusOK, metadata.MaxListLimit},
		{"invalidLimit", "?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := &mockRecords{records: []metadata.Record{{ID: "1", Script: "s", VideoURL: "u"}}}
			h := New(Options{Generator: &mockGenerator{}, Records: records})

			rec := do(t, h, http.MethodGet, "/api/videos"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if records.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", records.lastLimit, tt.wantLimit)
			}
			body := decode[videosResponse](t, rec)
			if len(body.Videos) != 1 || body.Videos[0].VideoURL != "u" {
				t.Errorf("videos = %+v", body.Videos)
			}
		})
	}
}

func TestListVideosEmpty(t *testing.T) {
	h := New(Options{Generator: &mockGenerator{}, Records: &mockRecords{}})
	rec := do(t, h, http.MethodGet, "/api/videos", "")
	if !strings.Contains(rec.Body.String(), `"videos":[]`) {
		t.Errorf("body = %s, want empty array", rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	h := New(Options{
		Generator:      &mockGenerator{result: &app.GenerateResult{VideoURL: "u"}},
		Records:        &mockRecords{},
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"businessData":"x"}`))
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestServesLocalVideos(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "video-1.mp4"), []byte("mp4"), 0644); err != nil {
		t.Fatal(err)
	}

	h := New(Options{Generator: &mockGenerator{}, Records: &mockRecords{}, LocalDir: dir})
	rec := do(t, h, http.MethodGet, "/videos/video-1.mp4", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "mp4" {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}
