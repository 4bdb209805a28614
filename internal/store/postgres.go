package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/refdata-io/refdata/internal/segment"
)

// ErrUnexpectedTxType is returned when a segment.Tx was not produced by
// this store's BeginTx.
var ErrUnexpectedTxType = errors.New("store: unexpected transaction type")

// sqlTx adapts *sql.Tx to the segment.Tx interface.
type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }

// PostgresTimelineStore is the PostgreSQL-backed segment.TimelineStore.
//
// CurrentSegments takes a row-level FOR UPDATE lock on the entity's open
// segments for the lifetime of the transaction, serializing concurrent
// merges against the same entity_id.
type PostgresTimelineStore struct {
	conn *Connection
}

// NewPostgresTimelineStore wraps conn as a segment.TimelineStore.
func NewPostgresTimelineStore(conn *Connection) *PostgresTimelineStore {
	return &PostgresTimelineStore{conn: conn}
}

func (s *PostgresTimelineStore) BeginTx(ctx context.Context) (segment.Tx, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	return &sqlTx{tx: tx}, nil
}

func sqlTxFrom(tx segment.Tx) (*sql.Tx, error) {
	t, ok := tx.(*sqlTx)
	if !ok {
		return nil, ErrUnexpectedTxType
	}

	return t.tx, nil
}

func (s *PostgresTimelineStore) CurrentSegments(
	ctx context.Context, tx segment.Tx, entityID string,
) ([]segment.Segment, error) {
	sqlTx, err := sqlTxFrom(tx)
	if err != nil {
		return nil, err
	}

	rows, err := sqlTx.QueryContext(ctx, `
		SELECT id, entity_id, attributes, attributes_canonical, event_time,
		       valid_from, valid_to, knowledge_from, knowledge_to, is_current
		FROM segments
		WHERE entity_id = $1 AND knowledge_to IS NULL
		ORDER BY valid_from
		FOR UPDATE
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("query current segments: %w", err)
	}
	defer rows.Close()

	return scanSegmentRows(rows)
}

// segmentRows is the subset of *sql.Rows used by scanSegmentRows, letting
// it serve both transactional and plain connection queries.
type segmentRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSegmentRows(rows segmentRows) ([]segment.Segment, error) {
	var segments []segment.Segment

	for rows.Next() {
		var (
			seg        segment.Segment
			attrsJSON  []byte
			attrsCanon []byte
			validTo    sql.NullTime
			knowTo     sql.NullTime
		)

		if err := rows.Scan(
			&seg.ID, &seg.EntityID, &attrsJSON, &attrsCanon, &seg.EventTime,
			&seg.ValidFrom, &validTo, &seg.KnowledgeFrom, &knowTo, &seg.IsCurrent,
		); err != nil {
			return nil, fmt.Errorf("scan segment row: %w", err)
		}

		if err := json.Unmarshal(attrsJSON, &seg.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal segment attributes: %w", err)
		}

		seg.AttributesCanonical = attrsCanon

		if validTo.Valid {
			t := validTo.Time
			seg.ValidTo = &t
		}

		if knowTo.Valid {
			t := knowTo.Time
			seg.KnowledgeTo = &t
		}

		segments = append(segments, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment rows: %w", err)
	}

	return segments, nil
}

// SegmentsAsOf implements asof.Store.
func (s *PostgresTimelineStore) SegmentsAsOf(
	ctx context.Context, knowledgeTime, validTime time.Time, entityIDs []string,
) ([]segment.Segment, error) {
	query := `
		SELECT id, entity_id, attributes, attributes_canonical, event_time,
		       valid_from, valid_to, knowledge_from, knowledge_to, is_current
		FROM segments
		WHERE knowledge_from <= $1 AND (knowledge_to IS NULL OR knowledge_to > $1)
		  AND valid_from <= $2 AND (valid_to IS NULL OR valid_to > $2)
	`
	args := []any{knowledgeTime, validTime}

	if len(entityIDs) > 0 {
		query += " AND entity_id = ANY($3)"
		args = append(args, pq.Array(entityIDs))
	}

	query += " ORDER BY entity_id, valid_from"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query as-of segments: %w", err)
	}
	defer rows.Close()

	return scanSegmentRows(rows)
}

func (s *PostgresTimelineStore) InsertSegment(
	ctx context.Context, tx segment.Tx, seg segment.Segment,
) (segment.Segment, error) {
	sqlTx, err := sqlTxFrom(tx)
	if err != nil {
		return segment.Segment{}, err
	}

	attrsJSON, err := json.Marshal(seg.Attributes)
	if err != nil {
		return segment.Segment{}, fmt.Errorf("marshal segment attributes: %w", err)
	}

	row := sqlTx.QueryRowContext(ctx, `
		INSERT INTO segments (
			entity_id, attributes, attributes_canonical, event_time,
			valid_from, valid_to, knowledge_from, knowledge_to, is_current
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		seg.EntityID, attrsJSON, seg.AttributesCanonical, seg.EventTime,
		seg.ValidFrom, seg.ValidTo, seg.KnowledgeFrom, seg.KnowledgeTo, seg.IsCurrent,
	)

	if err := row.Scan(&seg.ID); err != nil {
		return segment.Segment{}, fmt.Errorf("insert segment: %w", err)
	}

	return seg, nil
}

func (s *PostgresTimelineStore) SupersedeSegment(
	ctx context.Context, tx segment.Tx, segmentID int64, knowledgeTo time.Time,
) error {
	sqlTx, err := sqlTxFrom(tx)
	if err != nil {
		return err
	}

	result, err := sqlTx.ExecContext(ctx, `
		UPDATE segments
		SET knowledge_to = $1, is_current = false
		WHERE id = $2 AND knowledge_to IS NULL
	`, knowledgeTo, segmentID)
	if err != nil {
		return fmt.Errorf("supersede segment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("supersede segment: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("supersede segment %d: %w", segmentID, ErrSegmentNotFound)
	}

	return nil
}

// ErrSegmentNotFound is returned when an operation targets a segment id
// that does not exist, or is already superseded.
var ErrSegmentNotFound = errors.New("segment not found or already superseded")

// HealthCheck verifies the underlying connection is reachable.
func (s *PostgresTimelineStore) HealthCheck(ctx context.Context) error {
	return s.conn.HealthCheck(ctx)
}

// Get implements watermark.Store, reading from the same connection the
// timeline store uses.
func (s *PostgresTimelineStore) Get(
	ctx context.Context, tx segment.Tx, pipeline string,
) (time.Time, bool, error) {
	sqlTx, err := sqlTxFrom(tx)
	if err != nil {
		return time.Time{}, false, err
	}

	var value time.Time

	err = sqlTx.QueryRowContext(ctx, `
		SELECT value FROM pipeline_watermarks WHERE name = $1
	`, pipeline).Scan(&value)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return time.Time{}, false, nil
	case err != nil:
		return time.Time{}, false, fmt.Errorf("fetch watermark: %w", err)
	default:
		return value, true, nil
	}
}

// Advance implements watermark.Store.
func (s *PostgresTimelineStore) Advance(
	ctx context.Context, tx segment.Tx, pipeline string, value time.Time,
) error {
	sqlTx, err := sqlTxFrom(tx)
	if err != nil {
		return err
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO pipeline_watermarks (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value
	`, pipeline, value)
	if err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}

	return nil
}
