// Package api provides the HTTP API server for the refdata service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/refdata-io/refdata/internal/api/middleware"
)

const healthCheckTimeout = 2 * time.Second

// buildVersion is overridden at link time via -ldflags.
var buildVersion = "dev"

// setupRoutes registers every HTTP route the server exposes.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handlePing)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("/", s.handleNotFound)

	mux.HandleFunc("POST /api/v1/segments/merge", s.handleMergeSegments)
	mux.HandleFunc("GET /api/v1/segments/as-of", s.handleSegmentsAsOf)
	mux.HandleFunc("GET /api/v1/watermark", s.handleGetWatermark)
	mux.Handle("PUT /api/v1/watermark",
		middleware.WithAdminAuth(s.config.AdminAPIKeyHash, s.logger)(http.HandlerFunc(s.handlePutWatermark)))
}

// handlePing responds to liveness probes.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		s.logger.Error("failed to write ping response", "error", err.Error())
	}
}

// handleReady responds to readiness probes by checking the timeline store's
// connectivity, when the store implements healthChecker. MemoryStore doesn't,
// so readiness is always reported ready for in-memory deployments.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checker, ok := s.timeline.(healthChecker)
	if !ok {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))

		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := checker.HealthCheck(ctx); err != nil {
		s.logger.Error("timeline store health check failed",
			"correlation_id", middleware.GetCorrelationID(r.Context()),
			"error", err.Error(),
		)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("storage unavailable"))

		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleVersion returns the service's build version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, Version{
		Version:     buildVersion,
		ServiceName: "refdata",
	})
}

// handleNotFound returns RFC 7807 compliant 404 responses for unknown endpoints.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r, s.logger, NotFound("The requested resource was not found"))
}

// writeJSON marshals v and writes it with status, logging and falling back to
// a 500 problem response on encode failure.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal response",
			"correlation_id", middleware.GetCorrelationID(r.Context()),
			"error", err.Error(),
		)
		WriteErrorResponse(w, r, s.logger, InternalServerError("failed to encode response"))

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write response",
			"correlation_id", middleware.GetCorrelationID(r.Context()),
			"error", err.Error(),
		)
	}
}
