// Package api provides the HTTP API server for the refdata service.
package api

import "net/http"

// handleGetWatermark handles GET /api/v1/watermark, reporting the
// configured pipeline's current high-water mark on event_time.
func (s *Server) handleGetWatermark(w http.ResponseWriter, r *http.Request) {
	value, ok, err := s.driver.Current(r.Context())
	if err != nil {
		WriteErrorResponse(w, r, s.logger, InternalServerError("failed to read watermark"))

		return
	}

	resp := WatermarkResponse{}
	if ok {
		resp.Value = &value
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}
