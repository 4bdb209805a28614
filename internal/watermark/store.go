// Package watermark drives batches of facts through the merge engine,
// tracking a per-pipeline high-water mark on event_time so that late
// arrivals can be gated or controlled backfills explicitly allowed.
package watermark

import (
	"context"
	"errors"
	"time"

	"github.com/refdata-io/refdata/internal/segment"
)

// ErrWatermarkRegression is returned when an administrative override
// attempts to set a pipeline's watermark to a value at or before its
// current value. Batch merges (MergeBatch) never trigger this: they only
// ever advance forward, silently, by construction.
var ErrWatermarkRegression = errors.New("watermark value does not advance past the current watermark")

// Store persists the event-time watermark for a named pipeline. Both
// methods take the same segment.Tx the timeline store uses, so a batch's
// segment mutations and its watermark advance commit or roll back
// together.
type Store interface {
	// Get returns the current watermark for pipeline, and false if none has
	// been recorded yet.
	Get(ctx context.Context, tx segment.Tx, pipeline string) (time.Time, bool, error)

	// Advance persists value as pipeline's new watermark.
	Advance(ctx context.Context, tx segment.Tx, pipeline string, value time.Time) error
}
