package provenance

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
}

// DBRecorder persists records in the provenance table.
type DBRecorder struct {
	conn pgxIConn
}

func NewDBRecorder(conn pgxIConn) *DBRecorder {
	return &DBRecorder{conn: conn}
}

func (r *DBRecorder) Record(ctx context.Context, graphID, operation, subject string, payload any, parentID string) (*Record, error) {
	rec, err := newRecord(graphID, operation, subject, payload, parentID)
	if err != nil {
		return nil, err
	}

	var parent any
	if rec.ParentID != "" {
		parent = rec.ParentID
	}
	_, err = r.conn.Exec(ctx, `
		INSERT INTO provenance (id, graph_id, operation, subject, payload, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.GraphID, rec.Operation, rec.Subject, rec.Payload, parent, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert provenance: %w", err)
	}
	return rec, nil
}

func (r *DBRecorder) Chain(ctx context.Context, graphID string) ([]Record, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, graph_id, operation, subject, payload, COALESCE(parent_id, ''), created_at
		FROM provenance WHERE graph_id = $1 ORDER BY created_at, id`,
		graphID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		err := rows.Scan(&rec.ID, &rec.GraphID, &rec.Operation, &rec.Subject,
			&rec.Payload, &rec.ParentID, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *DBRecorder) Lineage(ctx context.Context, id string) ([]Record, error) {
	rows, err := r.conn.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT id, graph_id, operation, subject, payload, parent_id, created_at, 0 AS depth
			FROM provenance WHERE id = $1
			UNION ALL
			SELECT p.id, p.graph_id, p.operation, p.subject, p.payload, p.parent_id, p.created_at, c.depth + 1
			FROM provenance p JOIN chain c ON p.id = c.parent_id
		)
		SELECT id, graph_id, operation, subject, payload, COALESCE(parent_id, ''), created_at
		FROM chain ORDER BY depth DESC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		err := rows.Scan(&rec.ID, &rec.GraphID, &rec.Operation, &rec.Subject,
			&rec.Payload, &rec.ParentID, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ Recorder = (*DBRecorder)(nil)
