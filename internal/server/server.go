package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"newsreel/internal/app"
	"newsreel/internal/metadata"
)

// MaxRequestBytes caps the POST /api/generate body.
const MaxRequestBytes = 1 << 20

// Generator runs the full pipeline for one request.
type Generator interface {
	Generate(ctx context.Context, businessData string) (*app.GenerateResult, error)
}

type Options struct {
	Generator      Generator
	Records        metadata.Store
	AllowedOrigins []string
	// LocalDir, when set, is served under /videos/.
	LocalDir string
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	generator Generator
	records   metadata.Store
}

type generateRequest struct {
	BusinessData string `json:"businessData"`
}

type generateResponse struct {
	VideoURL string `json:"videoUrl"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type videosResponse struct {
	Videos []metadata.Record `json:"videos"`
}

// New builds the router wrapped in CORS and access logging.
func New(opts Options) http.Handler {
	s := &Server{generator: opts.Generator, records: opts.Records}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	r.HandleFunc("/api/generate", s.generate).Methods(http.MethodPost)
	r.HandleFunc("/api/videos", s.listVideos).Methods(http.MethodGet)

	if opts.LocalDir != "" {
		r.PathPrefix("/videos/").Handler(
			http.StripPrefix("/videos/", http.FileServer(http.Dir(opts.LocalDir))),
		)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	return handlers.LoggingHandler(os.Stdout, cors(r))
}

// health pings the record store when it supports it.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.records.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			slog.Warn("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	// The pipeline keeps running if the client goes away.
	ctx := context.WithoutCancel(r.Context())

	result, err := s.generator.Generate(ctx, req.BusinessData)
	if err != nil {
		status := http.StatusInternalServerError
		var appErr *app.Error
		if errors.As(err, &appErr) {
			status = appErr.HTTPStatus()
		}
		slog.Error("Generation failed", "kind", app.KindOf(err), "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{VideoURL: result.VideoURL})
}

func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	limit := metadata.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
			return
		}
		limit = n
	}

	records, err := s.records.List(r.Context(), metadata.ClampLimit(limit))
	if err != nil {
		slog.Error("List videos failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if records == nil {
		records = []metadata.Record{}
	}

	writeJSON(w, http.StatusOK, videosResponse{Videos: records})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}
