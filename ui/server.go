// Package ui exposes the ingestion core over HTTP: workbook upload, batch
// status, per-task retry, batch reports, and an SSE progress stream.
package ui

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sheetwise/domain/core"
	"sheetwise/internal/api"
	"sheetwise/internal/report"
	"sheetwise/internal/upload"
)

const maxUploadBytes = 50 << 20

// Server routes HTTP requests to the upload orchestrator.
type Server struct {
	router       *chi.Mux
	orchestrator *upload.Orchestrator
	hub          *api.SSEHub
}

// NewServer builds the router
func NewServer(orchestrator *upload.Orchestrator, hub *api.SSEHub) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		orchestrator: orchestrator,
		hub:          hub,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/uploads", s.handleUpload)
		r.Get("/batches/{batchID}", s.handleBatch)
		r.Get("/batches/{batchID}/report", s.handleReport)
		r.Post("/batches/{batchID}/tasks/{taskID}/retry", s.handleRetry)
	})

	// SSE streaming is served by a gin engine hung off the chi tree; gin
	// sees the unmodified request path and resolves its own params.
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/events/:batchID", hub.StreamBatch)
	s.router.Handle("/events/{batchID}", engine)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return s
}

// Handler exposes the router for the HTTP server
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleUpload ingests one workbook from a multipart form
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing \"file\" form field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
		return
	}

	log.Printf("[Server] upload %q (%d bytes)", header.Filename, len(data))
	job, err := s.orchestrator.ProcessWorkbook(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	job, ok := s.orchestrator.Job(core.BatchID(chi.URLParam(r, "batchID")))
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.orchestrator.Job(core.BatchID(chi.URLParam(r, "batchID")))
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.HTML(job))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	batchID := core.BatchID(chi.URLParam(r, "batchID"))
	taskID, err := core.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.orchestrator.Retry(r.Context(), batchID, taskID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, task)
	case errors.Is(err, core.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case core.IsRetryPrecondition(err), errors.Is(err, core.ErrSheetNotFound):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[Server] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
