package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdata-io/refdata/internal/segment"
)

func TestMemoryStore_InsertAndFetchCurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)

	seg := segment.NewSegment("AAPL", map[string]any{"status": "ACTIVE"}, nil,
		time.Now(), time.Now(), nil, time.Now(), nil)

	inserted, err := s.InsertSegment(ctx, tx, seg)
	require.NoError(t, err)
	assert.NotZero(t, inserted.ID)
	require.NoError(t, tx.Commit())

	tx2, err := s.BeginTx(ctx)
	require.NoError(t, err)

	current, err := s.CurrentSegments(ctx, tx2, "AAPL")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, inserted.ID, current[0].ID)
	require.NoError(t, tx2.Commit())
}

func TestMemoryStore_SupersedeRemovesFromCurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tx, _ := s.BeginTx(ctx)
	seg := segment.NewSegment("AAPL", map[string]any{"status": "ACTIVE"}, nil,
		time.Now(), time.Now(), nil, time.Now(), nil)
	inserted, err := s.InsertSegment(ctx, tx, seg)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx2, _ := s.BeginTx(ctx)
	require.NoError(t, s.SupersedeSegment(ctx, tx2, inserted.ID, time.Now()))
	require.NoError(t, tx2.Commit())

	tx3, _ := s.BeginTx(ctx)
	current, err := s.CurrentSegments(ctx, tx3, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, current)
	require.NoError(t, tx3.Commit())
}

func TestMemoryStore_SupersedeUnknownSegmentFails(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tx, _ := s.BeginTx(ctx)
	err := s.SupersedeSegment(ctx, tx, 999, time.Now())
	assert.ErrorIs(t, err, ErrSegmentNotFound)
	require.NoError(t, tx.Rollback())
}
