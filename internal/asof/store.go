// Package asof implements point-in-time projection over the bi-temporal
// timeline: given a knowledge-time and an effective (valid-time) instant,
// it returns exactly the segments that were believed true at that moment.
package asof

import (
	"context"
	"time"

	"github.com/refdata-io/refdata/internal/segment"
)

// Store is the read-only interface the as-of projector depends on,
// segregated from segment.TimelineStore so a read replica or caching layer
// can implement only what queries need.
type Store interface {
	// SegmentsAsOf returns every segment whose knowledge window covers
	// knowledgeTime and whose valid window covers validTime, optionally
	// restricted to entityIDs (all entities when empty), ordered by
	// entity_id then valid_from.
	SegmentsAsOf(
		ctx context.Context, knowledgeTime, validTime time.Time, entityIDs []string,
	) ([]segment.Segment, error)
}
