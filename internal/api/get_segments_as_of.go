// Package api provides the HTTP API server for the refdata service.
package api

import (
	"net/http"
	"strings"

	"github.com/refdata-io/refdata/internal/asof"
	"github.com/refdata-io/refdata/internal/temporal"
)

// handleSegmentsAsOf handles GET /api/v1/segments/as-of: it resolves the
// bi-temporal projection for the given knowledge_time (required) and
// effective_time (defaults to knowledge_time), optionally restricted to
// entity_ids.
func (s *Server) handleSegmentsAsOf(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	knowledgeRaw := query.Get("knowledge_time")
	if knowledgeRaw == "" {
		WriteErrorResponse(w, r, s.logger, BadRequest("knowledge_time is required"))

		return
	}

	knowledgeTime, err := temporal.ParseInstant(knowledgeRaw)
	if err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("knowledge_time: "+err.Error()))

		return
	}

	params := asof.Params{KnowledgeTime: knowledgeTime}

	if effectiveRaw := query.Get("effective_time"); effectiveRaw != "" {
		effectiveTime, err := temporal.ParseInstant(effectiveRaw)
		if err != nil {
			WriteErrorResponse(w, r, s.logger, BadRequest("effective_time: "+err.Error()))

			return
		}

		params.EffectiveTime = effectiveTime
	}

	if entityIDs := query.Get("entity_ids"); entityIDs != "" {
		params.EntityIDs = strings.Split(entityIDs, ",")
	}

	segments, err := asof.Query(r.Context(), s.asofStore, params)
	if err != nil {
		WriteErrorResponse(w, r, s.logger, InternalServerError("failed to resolve as-of projection"))

		return
	}

	responses := make([]SegmentResponse, 0, len(segments))
	for _, seg := range segments {
		responses = append(responses, SegmentResponse{
			ID:            seg.ID,
			EntityID:      seg.EntityID,
			Attributes:    seg.Attributes,
			EventTime:     seg.EventTime,
			ValidFrom:     seg.ValidFrom,
			ValidTo:       seg.ValidTo,
			KnowledgeFrom: seg.KnowledgeFrom,
			KnowledgeTo:   seg.KnowledgeTo,
			IsCurrent:     seg.IsCurrent,
		})
	}

	s.writeJSON(w, r, http.StatusOK, responses)
}
