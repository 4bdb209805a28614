package merge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdata-io/refdata/internal/segment"
	"github.com/refdata-io/refdata/internal/store"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)

	return parsed
}

func mergeOne(
	t *testing.T, eng *Engine, st *store.MemoryStore, entityID, eventTime string, attrs map[string]any, knowledge string,
) int {
	t.Helper()

	ctx := context.Background()

	tx, err := st.BeginTx(ctx)
	require.NoError(t, err)

	n, err := eng.MergeFact(ctx, tx, segment.Fact{
		EntityID:   entityID,
		EventTime:  mustTime(t, eventTime),
		Attributes: attrs,
	}, mustTime(t, knowledge))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	return n
}

func fetchCurrent(t *testing.T, st *store.MemoryStore, entityID string) []segment.Segment {
	t.Helper()

	ctx := context.Background()

	tx, err := st.BeginTx(ctx)
	require.NoError(t, err)

	segs, err := st.CurrentSegments(ctx, tx, entityID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	return segs
}

func TestMergeFact_PlainInsert(t *testing.T) {
	st := store.NewMemoryStore()
	eng := NewEngine(st)

	n := mergeOne(t, eng, st, "AAPL", "2024-01-01T00:00:00Z", map[string]any{"status": "ACTIVE"}, "2024-01-02T00:00:00Z")
	assert.Equal(t, 1, n)

	current := fetchCurrent(t, st, "AAPL")
	require.Len(t, current, 1)
	assert.True(t, current[0].IsCurrent)
	assert.Nil(t, current[0].ValidTo)
}

func TestMergeFact_IdempotentNoOp(t *testing.T) {
	st := store.NewMemoryStore()
	eng := NewEngine(st)

	mergeOne(t, eng, st, "AAPL", "2024-01-01T00:00:00Z", map[string]any{"status": "ACTIVE"}, "2024-01-02T00:00:00Z")
	n := mergeOne(t, eng, st, "AAPL", "2024-01-01T00:00:00Z", map[string]any{"status": "ACTIVE"}, "2024-01-03T00:00:00Z")

	assert.Equal(t, 0, n)
	assert.Len(t, fetchCurrent(t, st, "AAPL"), 1)
}

func TestMergeFact_SameBoundaryCorrection(t *testing.T) {
	st := store.NewMemoryStore()
	eng := NewEngine(st)

	mergeOne(t, eng, st, "AAPL", "2024-01-01T00:00:00Z", map[string]any{"status": "ACTIVE"}, "2024-01-02T00:00:00Z")
	n := mergeOne(t, eng, st, "AAPL", "2024-01-01T00:00:00Z", map[string]any{"status": "HALTED"}, "2024-01-03T00:00:00Z")

	assert.Equal(t, 1, n)

	current := fetchCurrent(t, st, "AAPL")
	require.Len(t, current, 1)
	assert.Equal(t, "HALTED", current[0].Attributes["status"])
	assert.Nil(t, current[0].ValidTo)
}

func TestMergeFact_OverlapSplitsPredecessor(t *testing.T) {
	st := store.NewMemoryStore()
	eng := NewEngine(st)

	mergeOne(t, eng, st, "AAPL", "2024-01-01T00:00:00Z", map[string]any{"status": "ACTIVE"}, "2024-01-02T00:00:00Z")
	n := mergeOne(t, eng, st, "AAPL", "2024-01-10T00:00:00Z", map[string]any{"status": "HALTED"}, "2024-01-15T00:00:00Z")

	assert.Equal(t, 2, n)

	current := fetchCurrent(t, st, "AAPL")
	require.Len(t, current, 2)

	var before, after *segment.Segment

	for i := range current {
		if current[i].ValidFrom.Equal(mustTime(t, "2024-01-01T00:00:00Z")) {
			before = &current[i]
		} else {
			after = &current[i]
		}
	}

	require.NotNil(t, before)
	require.NotNil(t, after)
	assert.Equal(t, "ACTIVE", before.Attributes["status"])
	assert.True(t, before.ValidTo.Equal(mustTime(t, "2024-01-10T00:00:00Z")))
	assert.Equal(t, "HALTED", after.Attributes["status"])
	assert.Nil(t, after.ValidTo)
}

func TestMergeFact_OutOfOrderClampsToNext(t *testing.T) {
	st := store.NewMemoryStore()
	eng := NewEngine(st)

	mergeOne(t, eng, st, "AAPL", "2024-02-01T00:00:00Z", map[string]any{"status": "ACTIVE"}, "2024-02-02T00:00:00Z")
	n := mergeOne(t, eng, st, "AAPL", "2024-01-01T00:00:00Z", map[string]any{"status": "PENDING"}, "2024-02-03T00:00:00Z")

	assert.Equal(t, 1, n)

	current := fetchCurrent(t, st, "AAPL")
	require.Len(t, current, 2)

	for _, seg := range current {
		if seg.ValidFrom.Equal(mustTime(t, "2024-01-01T00:00:00Z")) {
			require.NotNil(t, seg.ValidTo)
			assert.True(t, seg.ValidTo.Equal(mustTime(t, "2024-02-01T00:00:00Z")))
		}
	}
}
