// Package api provides the HTTP API server for the refdata service.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/refdata-io/refdata/internal/api/middleware"
	"github.com/refdata-io/refdata/internal/segment"
)

// maxMergeBatchSize caps the number of facts accepted in a single merge
// request, matching the batch sizes the pipeline is tuned for.
const maxMergeBatchSize = 10_000

// handleMergeSegments handles POST /api/v1/segments/merge: it validates each
// raw fact, runs the batch through watermark.Driver.MergeBatch inside one
// transaction, and reports the resulting summary.
func (s *Server) handleMergeSegments(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("request body must be valid JSON"))

		return
	}

	if len(req.Facts) == 0 {
		WriteErrorResponse(w, r, s.logger, BadRequest("facts must contain at least one entry"))

		return
	}

	if len(req.Facts) > maxMergeBatchSize {
		WriteErrorResponse(w, r, s.logger, BadRequest("facts exceeds the maximum batch size"))

		return
	}

	facts := make([]segment.Fact, 0, len(req.Facts))

	for i, raw := range req.Facts {
		fact, err := s.validator.ValidateFact(raw)
		if err != nil {
			WriteErrorResponse(w, r, s.logger,
				BadRequest("fact "+strconv.Itoa(i)+": "+err.Error()))

			return
		}

		facts = append(facts, *fact)
	}

	knowledgeTime := time.Now().UTC()
	if req.KnowledgeTime != nil {
		knowledgeTime = req.KnowledgeTime.UTC()
	}

	knowledgeTime = knowledgeTime.Truncate(time.Second)

	summary, err := s.driver.MergeBatch(r.Context(), facts, knowledgeTime, req.AllowLate)
	if err != nil {
		s.logger.Error("batch merge failed",
			"correlation_id", middleware.GetCorrelationID(r.Context()),
			"error", err.Error(),
		)
		WriteErrorResponse(w, r, s.logger, InternalServerError("failed to merge batch"))

		return
	}

	s.writeJSON(w, r, http.StatusOK, MergeSummaryResponse{
		Processed:     summary.Processed,
		SkippedAsLate: summary.SkippedAsLate,
		InsertedRows:  summary.InsertedRows,
		KnowledgeTime: summary.KnowledgeTime,
		MaxEventTime:  summary.MaxEventTime,
	})
}
