package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tiktok_ingest/config"
	"tiktok_ingest/internal/domain"
	"tiktok_ingest/internal/logger"
)

const maxSearchLimit = 50

// SearchEngine runs a scrape query against the source site.
type SearchEngine interface {
	Search(ctx context.Context, mode domain.SearchMode, query string, limit int) ([]domain.VideoRecord, error)
}

// ImportService runs the import pipeline and exposes the import ledger.
type ImportService interface {
	ImportFromURL(ctx context.Context, videoURL string) (*domain.ImportOutcome, error)
	ListRecentImports(limit int) ([]*domain.ImportJob, error)
}

// TrendingProvider serves the cached trending snapshot.
type TrendingProvider interface {
	Get(ctx context.Context) ([]domain.VideoRecord, error)
}

// Server exposes the REST API for search, import, and ledger visibility.
type Server struct {
	cfg      *config.Config
	engine   SearchEngine
	importer ImportService
	trending TrendingProvider
	server   *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Config, engine SearchEngine, importer ImportService, trending TrendingProvider) *Server {
	mux := http.NewServeMux()
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		importer: importer,
		trending: trending,
	}

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/tiktok/search", s.handleSearch)
	mux.HandleFunc("/api/tiktok/trending", s.handleTrending)
	mux.HandleFunc("/api/tiktok/hashtag/", s.handleHashtag)
	mux.HandleFunc("/api/tiktok/import", s.handleImport)
	mux.HandleFunc("/api/imports", s.handleImports)

	s.server = &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: loggingMiddleware(mux),
	}
	return s
}

// Handler returns the root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving HTTP requests in a separate goroutine.
func (s *Server) Start() error {
	if s.cfg.ServerPort == "" {
		return fmt.Errorf("server port is not configured")
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Printf("http api server stopped with error: %v", err)
		}
	}()
	logger.Info().Printf("HTTP API server listening on %s", s.server.Addr)
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}

	mode := domain.SearchModeKeyword
	switch r.URL.Query().Get("type") {
	case "", "keyword":
	case "hashtag":
		mode = domain.SearchModeHashtag
	default:
		respondError(w, http.StatusBadRequest, "type must be keyword or hashtag")
		return
	}

	limit := parseLimit(r, 20)

	records, err := s.engine.Search(r.Context(), mode, query, limit)
	if err != nil {
		s.respondExtractionError(w, err)
		return
	}

	respondVideoList(w, records)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	records, err := s.trending.Get(r.Context())
	if err != nil {
		s.respondExtractionError(w, err)
		return
	}

	if limit := parseLimit(r, maxSearchLimit); len(records) > limit {
		records = records[:limit]
	}

	respondVideoList(w, records)
}

func (s *Server) handleHashtag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	tag := strings.TrimPrefix(r.URL.Path, "/api/tiktok/hashtag/")
	tag = strings.Trim(strings.TrimPrefix(tag, "#"), "/")
	if tag == "" {
		respondError(w, http.StatusBadRequest, "hashtag is required in path")
		return
	}

	limit := parseLimit(r, 20)

	records, err := s.engine.Search(r.Context(), domain.SearchModeHashtag, tag, limit)
	if err != nil {
		s.respondExtractionError(w, err)
		return
	}

	respondVideoList(w, records)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.URL) == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	outcome, err := s.importer.ImportFromURL(r.Context(), payload.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		// A duplicate is reported via the outcome with a nil error, so any
		// error here is a genuine pipeline failure
		respondJSON(w, http.StatusBadGateway, outcome)
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit := parseLimit(r, 20)

	jobs, err := s.importer.ListRecentImports(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]*importJobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, toImportJobResponse(job))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"imports": resp,
		"count":   len(resp),
	})
}

// respondExtractionError maps scrape failures onto HTTP statuses. Bad input
// is the caller's fault; everything else means the source site or browser
// is misbehaving and is reported as a gateway problem.
func (s *Server) respondExtractionError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidURL) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Error().Printf("Extraction failed: %v", err)
	respondError(w, http.StatusBadGateway, "source data is temporarily unavailable")
}

func parseLimit(r *http.Request, fallback int) int {
	limit := fallback
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return limit
}

func respondVideoList(w http.ResponseWriter, records []domain.VideoRecord) {
	resp := make([]*videoResponse, 0, len(records))
	for idx := range records {
		resp = append(resp, toVideoResponse(&records[idx]))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"videos": resp,
		"count":  len(resp),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info().Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

type videoResponse struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	VideoURL     string    `json:"video_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	Author       string    `json:"author"`
	AuthorName   string    `json:"author_name,omitempty"`
	Verified     bool      `json:"verified,omitempty"`
	MusicTitle   string    `json:"music_title,omitempty"`
	MusicArtist  string    `json:"music_artist,omitempty"`
	Likes        int64     `json:"likes"`
	Comments     int64     `json:"comments"`
	Shares       int64     `json:"shares"`
	Views        int64     `json:"views"`
	CapturedAt   time.Time `json:"captured_at"`
}

func toVideoResponse(record *domain.VideoRecord) *videoResponse {
	return &videoResponse{
		ID:           record.ExternalID,
		URL:          record.SourceURL,
		VideoURL:     record.MediaURL,
		ThumbnailURL: record.ThumbnailURL,
		Caption:      record.Caption,
		Author:       record.Creator.Handle,
		AuthorName:   record.Creator.DisplayName,
		Verified:     record.Creator.Verified,
		MusicTitle:   record.Audio.Title,
		MusicArtist:  record.Audio.Artist,
		Likes:        record.Engagement.Likes,
		Comments:     record.Engagement.Comments,
		Shares:       record.Engagement.Shares,
		Views:        record.Engagement.Views,
		CapturedAt:   record.CapturedAt,
	}
}

type importJobResponse struct {
	ID              string    `json:"id"`
	ExternalVideoID string    `json:"external_video_id"`
	SourceURL       string    `json:"source_url,omitempty"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	PostID          string    `json:"post_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toImportJobResponse(job *domain.ImportJob) *importJobResponse {
	return &importJobResponse{
		ID:              job.ID,
		ExternalVideoID: job.ExternalVideoID,
		SourceURL:       job.SourceURL,
		Status:          string(job.Status),
		ErrorMessage:    job.ErrorMessage,
		PostID:          job.PostID,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}
