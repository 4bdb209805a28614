package watermark

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/refdata-io/refdata/internal/merge"
	"github.com/refdata-io/refdata/internal/segment"
)

// Summary reports the outcome of one MergeBatch call.
type Summary struct {
	Processed     int
	SkippedAsLate int
	InsertedRows  int
	KnowledgeTime time.Time
	MaxEventTime  *time.Time
}

// Driver merges batches of facts for one named pipeline, enforcing the
// watermark gate and persisting the batch's entire effect - every segment
// mutation plus the watermark advance - as one transaction.
type Driver struct {
	engine   *merge.Engine
	timeline segment.TimelineStore
	marks    Store
	pipeline string
}

// NewDriver creates a Driver for pipeline, merging facts into timeline and
// tracking progress in marks.
func NewDriver(timeline segment.TimelineStore, marks Store, pipeline string) *Driver {
	return &Driver{
		engine:   merge.NewEngine(timeline),
		timeline: timeline,
		marks:    marks,
		pipeline: pipeline,
	}
}

// MergeBatch sorts facts by (entity_id, event_time) and merges each in
// turn inside one transaction. When allowLateArrivals is false, facts whose
// event_time does not exceed the pipeline's current watermark are skipped
// rather than merged, supporting strict forward-only ingestion; set it true
// to perform a controlled backfill.
//
// The watermark only advances to the maximum event_time actually merged,
// and only if that exceeds the existing watermark - a batch that merges
// nothing (all no-ops or all skipped) leaves the watermark untouched.
func (d *Driver) MergeBatch(
	ctx context.Context, facts []segment.Fact, knowledgeTime time.Time, allowLateArrivals bool,
) (Summary, error) {
	sorted := make([]segment.Fact, len(facts))
	copy(sorted, facts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EntityID != sorted[j].EntityID {
			return sorted[i].EntityID < sorted[j].EntityID
		}

		return sorted[i].EventTime.Before(sorted[j].EventTime)
	})

	tx, err := d.timeline.BeginTx(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("begin batch transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	existingMark, hasMark, err := d.marks.Get(ctx, tx, d.pipeline)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch watermark: %w", err)
	}

	summary := Summary{KnowledgeTime: knowledgeTime}

	for _, fact := range sorted {
		if hasMark && !allowLateArrivals && !fact.EventTime.After(existingMark) {
			summary.SkippedAsLate++

			continue
		}

		inserted, err := d.engine.MergeFact(ctx, tx, fact, knowledgeTime)
		if err != nil {
			return Summary{}, fmt.Errorf("merge fact for %q: %w", fact.EntityID, err)
		}

		summary.Processed++
		summary.InsertedRows += inserted

		if inserted == 0 {
			continue
		}

		if summary.MaxEventTime == nil || fact.EventTime.After(*summary.MaxEventTime) {
			t := fact.EventTime
			summary.MaxEventTime = &t
		}
	}

	if summary.MaxEventTime != nil && (!hasMark || summary.MaxEventTime.After(existingMark)) {
		if err := d.marks.Advance(ctx, tx, d.pipeline, *summary.MaxEventTime); err != nil {
			return Summary{}, fmt.Errorf("advance watermark: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit batch transaction: %w", err)
	}

	return summary, nil
}

// Current returns the pipeline's current watermark, opening and committing
// its own read-only transaction.
func (d *Driver) Current(ctx context.Context) (time.Time, bool, error) {
	tx, err := d.timeline.BeginTx(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("begin watermark read transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	value, ok, err := d.marks.Get(ctx, tx, d.pipeline)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("fetch watermark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return time.Time{}, false, fmt.Errorf("commit watermark read transaction: %w", err)
	}

	return value, ok, nil
}

// ForceAdvance administratively sets the pipeline's watermark, bypassing
// MergeBatch's monotonic-from-merged-facts rule. It still refuses to move
// the watermark backwards or sideways: value must exceed the current
// watermark, or ErrWatermarkRegression is returned.
func (d *Driver) ForceAdvance(ctx context.Context, value time.Time) error {
	tx, err := d.timeline.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin watermark override transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	existing, hasMark, err := d.marks.Get(ctx, tx, d.pipeline)
	if err != nil {
		return fmt.Errorf("fetch watermark: %w", err)
	}

	if hasMark && !value.After(existing) {
		return ErrWatermarkRegression
	}

	if err := d.marks.Advance(ctx, tx, d.pipeline, value); err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit watermark override transaction: %w", err)
	}

	return nil
}
