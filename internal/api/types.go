// Package api provides the HTTP API server for the refdata service.
package api

import "time"

type (
	// Version represents the API version response structure.
	Version struct {
		Version     string `json:"version"`
		ServiceName string `json:"serviceName"`
		BuildInfo   string `json:"buildInfo,omitempty"`
	}

	// HealthStatus represents the health check response structure.
	HealthStatus struct {
		Status      string `json:"status"`
		ServiceName string `json:"serviceName"`
		Version     string `json:"version"`
		Uptime      string `json:"uptime,omitempty"`
	}

	// MergeRequest is the body of POST /api/v1/segments/merge.
	MergeRequest struct {
		Facts         []map[string]any `json:"facts"`
		KnowledgeTime *time.Time       `json:"knowledge_time,omitempty"` //nolint: tagliatelle
		AllowLate     bool             `json:"allow_late,omitempty"`     //nolint: tagliatelle
	}

	// MergeSummaryResponse mirrors watermark.Summary for the wire.
	MergeSummaryResponse struct {
		Processed     int        `json:"processed"`
		SkippedAsLate int        `json:"skipped_as_late"` //nolint: tagliatelle
		InsertedRows  int        `json:"inserted_rows"`   //nolint: tagliatelle
		KnowledgeTime time.Time  `json:"knowledge_time"`  //nolint: tagliatelle
		MaxEventTime  *time.Time `json:"max_event_time,omitempty"` //nolint: tagliatelle
	}

	// SegmentResponse is the wire shape of a single segment.Segment.
	SegmentResponse struct {
		ID            int64          `json:"id"`
		EntityID      string         `json:"entity_id"`      //nolint: tagliatelle
		Attributes    map[string]any `json:"attributes"`
		EventTime     time.Time      `json:"event_time"`     //nolint: tagliatelle
		ValidFrom     time.Time      `json:"valid_from"`     //nolint: tagliatelle
		ValidTo       *time.Time     `json:"valid_to,omitempty"`     //nolint: tagliatelle
		KnowledgeFrom time.Time      `json:"knowledge_from"` //nolint: tagliatelle
		KnowledgeTo   *time.Time     `json:"knowledge_to,omitempty"` //nolint: tagliatelle
		IsCurrent     bool           `json:"is_current"`     //nolint: tagliatelle
	}

	// WatermarkResponse is the response body for GET /api/v1/watermark.
	WatermarkResponse struct {
		Value *time.Time `json:"value"`
	}

	// WatermarkUpdateRequest is the body of PUT /api/v1/watermark.
	WatermarkUpdateRequest struct {
		Value time.Time `json:"value"`
	}
)
