package watermark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdata-io/refdata/internal/asof"
	"github.com/refdata-io/refdata/internal/segment"
	"github.com/refdata-io/refdata/internal/store"
)

// TestDriver_BitemporalLifecycle walks one entity through the full
// fresh-insert / forward-update / backfill-split sequence, checking the
// open segment set after each batch and the point-in-time projection at a
// matrix of (knowledge_time, effective_time) pairs at the end.
func TestDriver_BitemporalLifecycle(t *testing.T) {
	st := store.NewMemoryStore()
	d := NewDriver(st, st, "equipment")
	ctx := context.Background()

	mergeStatus := func(event, knowledge, status string, allowLate bool) Summary {
		t.Helper()

		summary, err := d.MergeBatch(ctx, []segment.Fact{{
			EntityID:   "EQ1",
			EventTime:  parseT(t, event),
			Attributes: map[string]any{"status": status},
		}}, parseT(t, knowledge), allowLate)
		require.NoError(t, err)

		return summary
	}

	statusAsOf := func(knowledge string, effective string) string {
		t.Helper()

		params := asof.Params{KnowledgeTime: parseT(t, knowledge)}
		if effective != "" {
			params.EffectiveTime = parseT(t, effective)
		}

		segs, err := asof.Query(ctx, st, params)
		require.NoError(t, err)
		require.Len(t, segs, 1)

		status, ok := segs[0].Attributes["status"].(string)
		require.True(t, ok)

		return status
	}

	// Fresh insert: one open-ended current segment.
	summary := mergeStatus("2025-01-01T00:00:00Z", "2025-01-05T00:00:00Z", "ACTIVE", false)
	assert.Equal(t, 1, summary.InsertedRows)

	open := currentOf(t, st, "EQ1")
	require.Len(t, open, 1)
	assert.True(t, open[0].IsCurrent)
	assert.Nil(t, open[0].ValidTo)

	// Forward update closes the original knowledge and splits validity.
	summary = mergeStatus("2025-03-01T00:00:00Z", "2025-03-05T00:00:00Z", "INACTIVE", false)
	assert.Equal(t, 2, summary.InsertedRows)

	open = currentOf(t, st, "EQ1")
	require.Len(t, open, 2)
	assert.True(t, open[0].ValidTo.Equal(parseT(t, "2025-03-01T00:00:00Z")))
	assert.Equal(t, "ACTIVE", open[0].Attributes["status"])
	assert.Nil(t, open[1].ValidTo)
	assert.Equal(t, "INACTIVE", open[1].Attributes["status"])

	// Backfill lands inside the historical ACTIVE window and splits it.
	summary = mergeStatus("2025-02-15T00:00:00Z", "2025-04-01T00:00:00Z", "ON_HOLD", true)
	assert.Equal(t, 2, summary.InsertedRows)

	open = currentOf(t, st, "EQ1")
	require.Len(t, open, 3)
	assert.True(t, open[0].ValidTo.Equal(parseT(t, "2025-02-15T00:00:00Z")))
	assert.Equal(t, "ACTIVE", open[0].Attributes["status"])
	assert.True(t, open[1].ValidTo.Equal(parseT(t, "2025-03-01T00:00:00Z")))
	assert.Equal(t, "ON_HOLD", open[1].Attributes["status"])
	assert.Nil(t, open[2].ValidTo)

	// Open segments stay pairwise valid-disjoint and valid_from-ordered.
	for i := 1; i < len(open); i++ {
		assert.True(t, open[i-1].ValidFrom.Before(open[i].ValidFrom))
		require.NotNil(t, open[i-1].ValidTo)
		assert.False(t, open[i].ValidFrom.Before(*open[i-1].ValidTo))
	}

	// As-of matrix: what did we believe at K about the world at E?
	assert.Equal(t, "ACTIVE", statusAsOf("2025-03-01T00:00:00Z", ""))
	assert.Equal(t, "INACTIVE", statusAsOf("2025-03-10T00:00:00Z", ""))
	assert.Equal(t, "ACTIVE", statusAsOf("2025-03-10T00:00:00Z", "2025-02-20T00:00:00Z"))
	assert.Equal(t, "ON_HOLD", statusAsOf("2025-04-10T00:00:00Z", "2025-02-20T00:00:00Z"))
}

// TestDriver_LateCorrectionGatedByWatermark replays a same-boundary
// correction with and without the late-arrival override.
func TestDriver_LateCorrectionGatedByWatermark(t *testing.T) {
	st := store.NewMemoryStore()
	d := NewDriver(st, st, "equipment")
	ctx := context.Background()

	fact := func(status string) []segment.Fact {
		return []segment.Fact{{
			EntityID:   "EQ1",
			EventTime:  parseT(t, "2025-01-01T00:00:00Z"),
			Attributes: map[string]any{"status": status},
		}}
	}

	_, err := d.MergeBatch(ctx, fact("ACTIVE"), parseT(t, "2025-01-02T00:00:00Z"), false)
	require.NoError(t, err)

	// With the gate closed the correction is skipped, not merged, and the
	// watermark stays put.
	summary, err := d.MergeBatch(ctx, fact("CORRECTED"), parseT(t, "2025-02-01T00:00:00Z"), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SkippedAsLate)
	assert.Equal(t, 0, summary.InsertedRows)

	mark, ok, err := st.Get(ctx, mustTx(t, st), "equipment")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mark.Equal(parseT(t, "2025-01-01T00:00:00Z")))

	// With allow_late the correction supersedes and replaces in place.
	summary, err = d.MergeBatch(ctx, fact("CORRECTED"), parseT(t, "2025-03-01T00:00:00Z"), true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.InsertedRows)

	open := currentOf(t, st, "EQ1")
	require.Len(t, open, 1)
	assert.Equal(t, "CORRECTED", open[0].Attributes["status"])
	assert.True(t, open[0].ValidFrom.Equal(parseT(t, "2025-01-01T00:00:00Z")))
	assert.Nil(t, open[0].ValidTo)
	assert.True(t, open[0].KnowledgeFrom.Equal(parseT(t, "2025-03-01T00:00:00Z")))
}

func currentOf(t *testing.T, st *store.MemoryStore, entityID string) []segment.Segment {
	t.Helper()

	ctx := context.Background()

	tx, err := st.BeginTx(ctx)
	require.NoError(t, err)

	segs, err := st.CurrentSegments(ctx, tx, entityID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	return segs
}
