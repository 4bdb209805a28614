// Package merge implements the bi-temporal SCD2 merge algorithm: given one
// incoming fact and the entity's current open segments, it decides what to
// supersede and what to insert so the valid-time and knowledge-time
// timelines stay internally consistent.
//
// The engine is pure with respect to persistence - it drives a
// segment.TimelineStore through its interface and never issues SQL
// directly, so the same logic runs unchanged against a Postgres-backed
// store or the in-memory one used in tests.
package merge

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/refdata-io/refdata/internal/segment"
	"github.com/refdata-io/refdata/internal/temporal"
)

// Engine applies facts to a segment.TimelineStore using the merge rules.
type Engine struct {
	store segment.TimelineStore
}

// NewEngine creates a merge Engine over store.
func NewEngine(store segment.TimelineStore) *Engine {
	return &Engine{store: store}
}

// MergeFact merges one fact into the entity's timeline as of knowledgeTime,
// returning the number of segments inserted (0, 1 or 2).
//
// Four cases, in priority order:
//  1. Idempotent no-op: an open segment already starts at the same
//     valid_from with semantically identical attributes.
//  2. Same-boundary correction: an open segment starts at the same
//     valid_from but with different attributes - supersede it and reinsert
//     with its old valid_to (no overlap is possible by invariant).
//  3. Overlap: the fact lands inside an existing open segment's valid
//     window - supersede it, reinstate its prefix up to the fact's
//     event_time if any, and insert the new segment clamped to the next
//     segment's valid_from (if one exists).
//  4. Plain insert: the fact is new or precedes every known segment -
//     insert it, clamped to the next segment's valid_from if one exists.
func (e *Engine) MergeFact(
	ctx context.Context, tx segment.Tx, fact segment.Fact, knowledgeTime time.Time,
) (int, error) {
	attrsCanonical, err := temporal.CanonicalizeAttributes(fact.Attributes)
	if err != nil {
		return 0, fmt.Errorf("canonicalize attributes: %w", err)
	}

	live, err := e.store.CurrentSegments(ctx, tx, fact.EntityID)
	if err != nil {
		return 0, fmt.Errorf("fetch current segments: %w", err)
	}

	for _, seg := range live {
		if seg.ValidFrom.Equal(fact.EventTime) && bytes.Equal(seg.AttributesCanonical, attrsCanonical) {
			return 0, nil
		}
	}

	for _, seg := range live {
		if !seg.ValidFrom.Equal(fact.EventTime) {
			continue
		}

		if err := e.supersede(ctx, tx, &live, seg.ID, knowledgeTime); err != nil {
			return 0, err
		}

		newSeg := segment.NewSegment(
			fact.EntityID, fact.Attributes, attrsCanonical,
			fact.EventTime, fact.EventTime, seg.ValidTo,
			knowledgeTime, nil,
		)

		inserted, err := e.insert(ctx, tx, &live, newSeg)
		if err != nil {
			return 0, err
		}

		if inserted {
			return 1, nil
		}

		return 0, nil
	}

	prev := findPrev(live, fact.EventTime)
	next := findNext(live, fact.EventTime)

	if prev != nil && overlaps(*prev, fact.EventTime) {
		return e.mergeOverlap(ctx, tx, &live, fact, attrsCanonical, *prev, next, knowledgeTime)
	}

	var newValidTo *time.Time
	if next != nil {
		t := next.ValidFrom
		newValidTo = &t
	}

	newSeg := segment.NewSegment(
		fact.EntityID, fact.Attributes, attrsCanonical,
		fact.EventTime, fact.EventTime, newValidTo,
		knowledgeTime, nil,
	)

	inserted, err := e.insert(ctx, tx, &live, newSeg)
	if err != nil {
		return 0, err
	}

	if inserted {
		return 1, nil
	}

	return 0, nil
}

func (e *Engine) mergeOverlap(
	ctx context.Context, tx segment.Tx, live *[]segment.Segment,
	fact segment.Fact, attrsCanonical []byte, prev segment.Segment,
	next *segment.Segment, knowledgeTime time.Time,
) (int, error) {
	inserted := 0

	if err := e.supersede(ctx, tx, live, prev.ID, knowledgeTime); err != nil {
		return 0, err
	}

	if !prev.ValidFrom.Equal(fact.EventTime) {
		eventTime := fact.EventTime
		reinstated := segment.NewSegment(
			fact.EntityID, prev.Attributes, prev.AttributesCanonical,
			prev.EventTime, prev.ValidFrom, &eventTime,
			knowledgeTime, nil,
		)

		ok, err := e.insert(ctx, tx, live, reinstated)
		if err != nil {
			return 0, err
		}

		if ok {
			inserted++
		}
	}

	newValidTo := prev.ValidTo
	if next != nil {
		if newValidTo == nil || newValidTo.After(next.ValidFrom) {
			t := next.ValidFrom
			newValidTo = &t
		}
	}

	newSeg := segment.NewSegment(
		fact.EntityID, fact.Attributes, attrsCanonical,
		fact.EventTime, fact.EventTime, newValidTo,
		knowledgeTime, nil,
	)

	ok, err := e.insert(ctx, tx, live, newSeg)
	if err != nil {
		return 0, err
	}

	if ok {
		inserted++
	}

	return inserted, nil
}

// supersede closes seg's knowledge window and drops it from the local view
// of live segments, mirroring the row leaving the "currently open" set.
func (e *Engine) supersede(
	ctx context.Context, tx segment.Tx, live *[]segment.Segment, segmentID int64, knowledgeTime time.Time,
) error {
	if err := e.store.SupersedeSegment(ctx, tx, segmentID, knowledgeTime); err != nil {
		return fmt.Errorf("supersede segment: %w", err)
	}

	for i := range *live {
		if (*live)[i].ID == segmentID {
			*live = append((*live)[:i], (*live)[i+1:]...)

			break
		}
	}

	return nil
}

// insert persists seg unless an identical open segment already exists,
// mirroring the row-exists dedupe guard the algorithm applies before every
// write. Reports whether a row was actually inserted.
func (e *Engine) insert(
	ctx context.Context, tx segment.Tx, live *[]segment.Segment, seg segment.Segment,
) (bool, error) {
	for _, existing := range *live {
		if segmentEqual(existing, seg) {
			return false, nil
		}
	}

	stored, err := e.store.InsertSegment(ctx, tx, seg)
	if err != nil {
		return false, fmt.Errorf("insert segment: %w", err)
	}

	*live = append(*live, stored)

	return true, nil
}

func segmentEqual(a, b segment.Segment) bool {
	if a.EntityID != b.EntityID || !a.ValidFrom.Equal(b.ValidFrom) {
		return false
	}

	if !bytes.Equal(a.AttributesCanonical, b.AttributesCanonical) {
		return false
	}

	return timePtrEqual(a.ValidTo, b.ValidTo)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}

// findPrev returns the last segment (by valid_from, ascending) whose
// valid_from is at or before eventTime.
func findPrev(live []segment.Segment, eventTime time.Time) *segment.Segment {
	var prev *segment.Segment

	for i := range live {
		if live[i].ValidFrom.After(eventTime) {
			break
		}

		s := live[i]
		prev = &s
	}

	return prev
}

// findNext returns the first segment (by valid_from, ascending) whose
// valid_from is strictly after eventTime.
func findNext(live []segment.Segment, eventTime time.Time) *segment.Segment {
	for i := range live {
		if live[i].ValidFrom.After(eventTime) {
			s := live[i]

			return &s
		}
	}

	return nil
}

// overlaps reports whether eventTime falls inside seg's valid window.
func overlaps(seg segment.Segment, eventTime time.Time) bool {
	if seg.ValidTo == nil {
		return !eventTime.Before(seg.ValidFrom)
	}

	return !eventTime.Before(seg.ValidFrom) && eventTime.Before(*seg.ValidTo)
}
