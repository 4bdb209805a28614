package segment

import (
	"context"
	"time"
)

type (
	// Tx is a storage transaction boundary. Implementations wrap whatever
	// native transaction type the backing store provides (a *sql.Tx for
	// Postgres, a no-op for the in-memory store).
	Tx interface {
		Commit() error
		Rollback() error
	}

	// TimelineStore is the write-side interface the merge engine depends on.
	// It owns nothing about how facts are merged - it only exposes the
	// per-entity segment set and the two mutations merge needs: inserting a
	// new segment and superseding (closing the knowledge window of) an
	// existing one.
	//
	// Implementations must take a row-level lock on the entity's segment
	// set for the lifetime of the transaction passed to CurrentSegments, so
	// that concurrent merges for the same entity_id serialize.
	TimelineStore interface {
		// BeginTx starts a new transaction.
		BeginTx(ctx context.Context) (Tx, error)

		// CurrentSegments returns every segment for entityID whose
		// knowledge window is still open (knowledge_to IS NULL), locking
		// those rows for the lifetime of tx.
		CurrentSegments(ctx context.Context, tx Tx, entityID string) ([]Segment, error)

		// InsertSegment persists a new segment and returns it with ID set.
		InsertSegment(ctx context.Context, tx Tx, seg Segment) (Segment, error)

		// SupersedeSegment closes the knowledge window of the segment
		// identified by segmentID as of knowledgeTo.
		SupersedeSegment(ctx context.Context, tx Tx, segmentID int64, knowledgeTo time.Time) error
	}
)
