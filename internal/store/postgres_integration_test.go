package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdata-io/refdata/internal/config"
	"github.com/refdata-io/refdata/internal/segment"
	"github.com/refdata-io/refdata/internal/store"
)

// TestPostgresTimelineStore_InsertSupersedeCurrent exercises the full
// write path against a real Postgres container rather than mocks.
func TestPostgresTimelineStore_InsertSupersedeCurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := config.SetupTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = testDB.Connection.Close()
	})

	conn := &store.Connection{DB: testDB.Connection}
	timeline := store.NewPostgresTimelineStore(conn)

	tx, err := timeline.BeginTx(ctx)
	require.NoError(t, err)

	eventTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seg := segment.NewSegment(
		"EQ1", map[string]any{"status": "ACTIVE"}, []byte(`{"status":"ACTIVE"}`),
		eventTime, eventTime, nil, eventTime, nil,
	)

	inserted, err := timeline.InsertSegment(ctx, tx, seg)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NotZero(t, inserted.ID)

	tx2, err := timeline.BeginTx(ctx)
	require.NoError(t, err)

	current, err := timeline.CurrentSegments(ctx, tx2, "EQ1")
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())
	require.Len(t, current, 1)
	assert.Equal(t, "ACTIVE", current[0].Attributes["status"])
	assert.True(t, current[0].IsCurrent)

	knowledgeTime := eventTime.AddDate(0, 0, 1)

	tx3, err := timeline.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, timeline.SupersedeSegment(ctx, tx3, inserted.ID, knowledgeTime))
	require.NoError(t, tx3.Commit())

	tx4, err := timeline.BeginTx(ctx)
	require.NoError(t, err)

	afterSupersede, err := timeline.CurrentSegments(ctx, tx4, "EQ1")
	require.NoError(t, err)
	require.NoError(t, tx4.Commit())
	assert.Empty(t, afterSupersede)
}

// TestPostgresTimelineStore_WatermarkAdvanceRoundTrips exercises the
// watermark.Store side of PostgresTimelineStore, asserting that Advance
// persists and Get round-trips across transactions.
func TestPostgresTimelineStore_WatermarkAdvanceRoundTrips(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := config.SetupTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = testDB.Connection.Close()
	})

	conn := &store.Connection{DB: testDB.Connection}
	timeline := store.NewPostgresTimelineStore(conn)

	tx, err := timeline.BeginTx(ctx)
	require.NoError(t, err)

	_, hasMark, err := timeline.Get(ctx, tx, "watermark-it")
	require.NoError(t, err)
	assert.False(t, hasMark)
	require.NoError(t, tx.Commit())

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tx2, err := timeline.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, timeline.Advance(ctx, tx2, "watermark-it", first))
	require.NoError(t, tx2.Commit())

	tx3, err := timeline.BeginTx(ctx)
	require.NoError(t, err)

	value, hasMark, err := timeline.Get(ctx, tx3, "watermark-it")
	require.NoError(t, err)
	require.NoError(t, tx3.Commit())
	require.True(t, hasMark)
	assert.True(t, value.Equal(first))
}
