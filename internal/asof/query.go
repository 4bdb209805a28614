package asof

import (
	"context"
	"fmt"
	"time"

	"github.com/refdata-io/refdata/internal/segment"
)

// Params bounds an as-of query.
type Params struct {
	// KnowledgeTime is the transaction-time snapshot: only facts the
	// system believed as of this instant are considered.
	KnowledgeTime time.Time

	// EffectiveTime is the valid-time cut-off. Zero means "use
	// KnowledgeTime", producing a single point-in-time snapshot - the
	// common case of "what did we know, about what was true, right now".
	EffectiveTime time.Time

	// EntityIDs restricts the result to these entities; empty means all.
	EntityIDs []string
}

// Query resolves params against store and returns the matching segments.
func Query(ctx context.Context, store Store, params Params) ([]segment.Segment, error) {
	effectiveTime := params.EffectiveTime
	if effectiveTime.IsZero() {
		effectiveTime = params.KnowledgeTime
	}

	segments, err := store.SegmentsAsOf(ctx, params.KnowledgeTime, effectiveTime, params.EntityIDs)
	if err != nil {
		return nil, fmt.Errorf("as-of query: %w", err)
	}

	return segments, nil
}
