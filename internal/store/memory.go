package store

import (
	"context"
	"sync"
	"time"

	"github.com/refdata-io/refdata/internal/segment"
)

// MemoryStore is an in-process segment.TimelineStore backed by a map,
// exercising the exact interface the merge engine depends on without a
// database. Used by fast unit/property tests; not for production use.
type MemoryStore struct {
	mu         sync.Mutex
	segments   map[int64]*segment.Segment
	nextID     int64
	entityLock map[string]*sync.Mutex
	watermarks map[string]time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		segments:   make(map[int64]*segment.Segment),
		entityLock: make(map[string]*sync.Mutex),
		watermarks: make(map[string]time.Time),
	}
}

// Get implements watermark.Store.
func (s *MemoryStore) Get(_ context.Context, _ segment.Tx, pipeline string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.watermarks[pipeline]

	return v, ok, nil
}

// Advance implements watermark.Store.
func (s *MemoryStore) Advance(_ context.Context, _ segment.Tx, pipeline string, value time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watermarks[pipeline] = value

	return nil
}

// memTx holds the per-entity lock acquired by the first CurrentSegments call
// in the transaction until Commit or Rollback releases it, standing in for
// the FOR UPDATE row lock a real transaction would hold. Only that first
// entity is locked; entities scanned later in the same transaction are not.
type memTx struct {
	store    *MemoryStore
	lock     *sync.Mutex
	acquired bool
}

func (t *memTx) Commit() error   { t.release(); return nil }
func (t *memTx) Rollback() error { t.release(); return nil }

func (t *memTx) release() {
	if t.acquired {
		t.lock.Unlock()
		t.acquired = false
	}
}

func (s *MemoryStore) BeginTx(_ context.Context) (segment.Tx, error) {
	return &memTx{store: s}, nil
}

func (s *MemoryStore) lockFor(entityID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.entityLock[entityID]
	if !ok {
		l = &sync.Mutex{}
		s.entityLock[entityID] = l
	}

	return l
}

func (s *MemoryStore) CurrentSegments(
	_ context.Context, tx segment.Tx, entityID string,
) ([]segment.Segment, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return nil, ErrUnexpectedTxType
	}

	if !mt.acquired {
		mt.lock = s.lockFor(entityID)
		mt.lock.Lock()
		mt.acquired = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []segment.Segment

	for _, seg := range s.segments {
		if seg.EntityID == entityID && seg.KnowledgeTo == nil {
			out = append(out, *seg)
		}
	}

	sortSegmentsByValidFrom(out)

	return out, nil
}

func (s *MemoryStore) InsertSegment(
	_ context.Context, _ segment.Tx, seg segment.Segment,
) (segment.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	seg.ID = s.nextID
	stored := seg
	s.segments[seg.ID] = &stored

	return seg, nil
}

func (s *MemoryStore) SupersedeSegment(
	_ context.Context, _ segment.Tx, segmentID int64, knowledgeTo time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[segmentID]
	if !ok || seg.KnowledgeTo != nil {
		return ErrSegmentNotFound
	}

	t := knowledgeTo
	seg.KnowledgeTo = &t
	seg.IsCurrent = false

	return nil
}

// SegmentsAsOf implements asof.Store.
func (s *MemoryStore) SegmentsAsOf(
	_ context.Context, knowledgeTime, validTime time.Time, entityIDs []string,
) ([]segment.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(entityIDs))
	for _, id := range entityIDs {
		wanted[id] = true
	}

	var out []segment.Segment

	for _, seg := range s.segments {
		if len(wanted) > 0 && !wanted[seg.EntityID] {
			continue
		}

		if seg.KnowledgeFrom.After(knowledgeTime) {
			continue
		}

		if seg.KnowledgeTo != nil && !seg.KnowledgeTo.After(knowledgeTime) {
			continue
		}

		if seg.ValidFrom.After(validTime) {
			continue
		}

		if seg.ValidTo != nil && !seg.ValidTo.After(validTime) {
			continue
		}

		out = append(out, *seg)
	}

	sortSegmentsByEntityThenValidFrom(out)

	return out, nil
}

func sortSegmentsByEntityThenValidFrom(segs []segment.Segment) {
	for i := 1; i < len(segs); i++ {
		for j := i; j > 0 && segmentLess(segs[j], segs[j-1]); j-- {
			segs[j], segs[j-1] = segs[j-1], segs[j]
		}
	}
}

func segmentLess(a, b segment.Segment) bool {
	if a.EntityID != b.EntityID {
		return a.EntityID < b.EntityID
	}

	return a.ValidFrom.Before(b.ValidFrom)
}

func sortSegmentsByValidFrom(segs []segment.Segment) {
	for i := 1; i < len(segs); i++ {
		for j := i; j > 0 && segs[j].ValidFrom.Before(segs[j-1].ValidFrom); j-- {
			segs[j], segs[j-1] = segs[j-1], segs[j]
		}
	}
}
