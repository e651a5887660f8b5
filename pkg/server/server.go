// Package server exposes the ingestion and search pipelines over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/talentvec/talentvec/pkg/ingest"
	"github.com/talentvec/talentvec/pkg/logger"
	"github.com/talentvec/talentvec/pkg/ollama"
	"github.com/talentvec/talentvec/pkg/search"
	"github.com/talentvec/talentvec/pkg/store"
	"github.com/talentvec/talentvec/pkg/vector"
)

const (
	shutdownTimeout = 10 * time.Second

	// multipartMemory bounds the in-memory part of multipart parsing;
	// larger files spill to disk.
	multipartMemory = 8 << 20
)

// Server hosts the REST API.
type Server struct {
	orchestrator *ingest.Orchestrator
	engine       *search.Engine
	store        *store.Store
	llm          *ollama.Client
	vec          *vector.Client
	searchDirs   []string
	log          *slog.Logger

	httpServer *http.Server
}

func New(addr string, orchestrator *ingest.Orchestrator, engine *search.Engine,
	st *store.Store, llm *ollama.Client, vec *vector.Client, searchDirs []string) *Server {

	s := &Server{
		orchestrator: orchestrator,
		engine:       engine,
		store:        st,
		llm:          llm,
		vec:          vec,
		searchDirs:   searchDirs,
		log:          logger.GetLogger(),
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)

	r.Post("/api/resumes", metricsMiddleware("upload", s.handleUpload))
	r.Get("/api/resumes/{id}", metricsMiddleware("get_resume", s.handleGetResume))
	r.Post("/api/resumes/{id}/retry", metricsMiddleware("retry", s.handleRetry))
	r.Post("/api/search", metricsMiddleware("search", s.handleSearch))

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", MetricsHandler().ServeHTTP)
	return r
}

// Start serves until the context is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// ---- middleware ----

type contextKey string

const requestIDKey contextKey = "request_id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", r.Context().Value(requestIDKey))
	})
}

// ---- handlers ----

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	outcome, err := s.orchestrator.Ingest(r.Context(), data, header.Filename, ingest.Options{
		Modules: r.FormValue("modules"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	ingestionsTotal.WithLabelValues(outcome.Status).Inc()

	code := http.StatusCreated
	if outcome.Reused {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]interface{}{
		"resume_id": outcome.ResumeID,
		"status":    outcome.Status,
		"reused":    outcome.Reused,
	})
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid resume id"))
		return
	}

	resume, err := s.store.GetResume(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("resume %d not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid resume id"))
		return
	}

	outcome, err := s.orchestrator.RetryWithOCR(r.Context(), id, s.searchDirs, r.URL.Query().Get("modules"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	ingestionsTotal.WithLabelValues(outcome.Status).Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resume_id": outcome.ResumeID,
		"status":    outcome.Status,
	})
}

type searchRequest struct {
	Query          string `json:"query"`
	MasterCategory string `json:"mastercategory"`
	Category       string `json:"category"`
	TopK           int    `json:"top_k"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}

	resp, err := s.engine.Search(r.Context(), req.Query, req.MasterCategory, req.Category, req.TopK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	searchesTotal.WithLabelValues(resp.SearchType).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok", "llm": "ok", "vector": "ok"}
	healthy := true

	if err := s.store.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if err := s.llm.Healthy(r.Context()); err != nil {
		checks["llm"] = err.Error()
		healthy = false
	}
	if err := s.vec.Healthy(r.Context()); err != nil {
		checks["vector"] = err.Error()
		healthy = false
	}

	code := http.StatusOK
	status := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		status = "degraded"
	}
	writeJSON(w, code, map[string]interface{}{"status": status, "checks": checks})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
