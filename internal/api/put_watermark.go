// Package api provides the HTTP API server for the refdata service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/refdata-io/refdata/internal/api/middleware"
	"github.com/refdata-io/refdata/internal/watermark"
)

// handlePutWatermark handles PUT /api/v1/watermark: an administrative
// override that force-sets the configured pipeline's watermark. Gated
// behind middleware.WithAdminAuth in setupRoutes.
func (s *Server) handlePutWatermark(w http.ResponseWriter, r *http.Request) {
	var req WatermarkUpdateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("request body must be valid JSON"))

		return
	}

	if req.Value.IsZero() {
		WriteErrorResponse(w, r, s.logger, BadRequest("value is required"))

		return
	}

	if err := s.driver.ForceAdvance(r.Context(), req.Value.UTC()); err != nil {
		if errors.Is(err, watermark.ErrWatermarkRegression) {
			WriteErrorResponse(w, r, s.logger, NewProblemDetail(
				http.StatusConflict, "Conflict", err.Error(),
			))

			return
		}

		s.logger.Error("watermark override failed",
			"correlation_id", middleware.GetCorrelationID(r.Context()),
			"error", err.Error(),
		)
		WriteErrorResponse(w, r, s.logger, InternalServerError("failed to update watermark"))

		return
	}

	s.writeJSON(w, r, http.StatusOK, WatermarkResponse{Value: &req.Value})
}
