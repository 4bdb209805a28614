package asof_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refdata-io/refdata/internal/asof"
	"github.com/refdata-io/refdata/internal/merge"
	"github.com/refdata-io/refdata/internal/segment"
	"github.com/refdata-io/refdata/internal/store"
)

func pt(t *testing.T, s string) time.Time {
	t.Helper()

	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)

	return tm
}

func TestQuery_ReturnsWhatWasKnownAtKnowledgeTime(t *testing.T) {
	st := store.NewMemoryStore()
	eng := merge.NewEngine(st)
	ctx := context.Background()

	tx, err := st.BeginTx(ctx)
	require.NoError(t, err)

	_, err = eng.MergeFact(ctx, tx, segment.Fact{
		EntityID: "AAPL", EventTime: pt(t, "2024-01-01T00:00:00Z"),
		Attributes: map[string]any{"status": "ACTIVE"},
	}, pt(t, "2024-01-02T00:00:00Z"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx2, err := st.BeginTx(ctx)
	require.NoError(t, err)

	_, err = eng.MergeFact(ctx, tx2, segment.Fact{
		EntityID: "AAPL", EventTime: pt(t, "2024-01-10T00:00:00Z"),
		Attributes: map[string]any{"status": "HALTED"},
	}, pt(t, "2024-01-11T00:00:00Z"))
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())

	before, err := asof.Query(ctx, st, asof.Params{KnowledgeTime: pt(t, "2024-01-05T00:00:00Z")})
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "ACTIVE", before[0].Attributes["status"])

	after, err := asof.Query(ctx, st, asof.Params{KnowledgeTime: pt(t, "2024-01-12T00:00:00Z")})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "HALTED", after[0].Attributes["status"])
}

func TestQuery_FiltersByEntityIDs(t *testing.T) {
	st := store.NewMemoryStore()
	eng := merge.NewEngine(st)
	ctx := context.Background()

	for _, id := range []string{"AAPL", "MSFT"} {
		tx, err := st.BeginTx(ctx)
		require.NoError(t, err)

		_, err = eng.MergeFact(ctx, tx, segment.Fact{
			EntityID: id, EventTime: pt(t, "2024-01-01T00:00:00Z"),
			Attributes: map[string]any{"status": "ACTIVE"},
		}, pt(t, "2024-01-02T00:00:00Z"))
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}

	results, err := asof.Query(ctx, st, asof.Params{
		KnowledgeTime: pt(t, "2024-01-03T00:00:00Z"),
		EntityIDs:     []string{"MSFT"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "MSFT", results[0].EntityID)
}
