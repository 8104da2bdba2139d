package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/store"
)

const edgeColumns = `id, source_id, target_id, type, weight, evidence_count, valid_from, valid_to`

func (s *GraphDBStore) InsertEdge(ctx context.Context, graphID string, e *common.Edge) error {
	if e.SourceID == e.TargetID {
		return fmt.Errorf("edge is a self-loop: node %d", e.SourceID)
	}
	err := s.conn.QueryRow(ctx, `
		INSERT INTO edges (graph_id, source_id, target_id, type, weight,
			evidence_count, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		graphID, e.SourceID, e.TargetID, e.Type, e.Weight,
		e.EvidenceCount, e.ValidFrom, e.ValidTo,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

func (s *GraphDBStore) GetEdge(ctx context.Context, graphID string, sourceID, targetID int64, edgeType string) (*common.Edge, error) {
	var e common.Edge
	err := s.conn.QueryRow(ctx, `
		SELECT `+edgeColumns+` FROM edges
		WHERE graph_id = $1 AND source_id = $2 AND target_id = $3 AND type = $4`,
		graphID, sourceID, targetID, edgeType,
	).Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Type, &e.Weight,
		&e.EvidenceCount, &e.ValidFrom, &e.ValidTo)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *GraphDBStore) GetEdges(ctx context.Context, graphID string) ([]common.Edge, error) {
	return s.queryEdges(ctx,
		`SELECT `+edgeColumns+` FROM edges WHERE graph_id = $1 ORDER BY id`, graphID)
}

func (s *GraphDBStore) GetEdgesByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Edge, error) {
	return s.queryEdges(ctx, `
		SELECT `+edgeColumns+` FROM edges
		WHERE graph_id = $1 AND (source_id = $2 OR target_id = $2) ORDER BY id`,
		graphID, nodeID)
}

func (s *GraphDBStore) UpdateEdge(ctx context.Context, graphID string, e *common.Edge) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE edges SET source_id = $3, target_id = $4, type = $5, weight = $6,
			evidence_count = $7, valid_from = $8, valid_to = $9
		WHERE graph_id = $1 AND id = $2`,
		graphID, e.ID, e.SourceID, e.TargetID, e.Type, e.Weight,
		e.EvidenceCount, e.ValidFrom, e.ValidTo,
	)
	if err != nil {
		return fmt.Errorf("update edge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GraphDBStore) DeleteEdge(ctx context.Context, graphID string, id int64) error {
	tag, err := s.conn.Exec(ctx,
		`DELETE FROM edges WHERE graph_id = $1 AND id = $2`, graphID, id)
	if err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GraphDBStore) CountEdgesByNode(ctx context.Context, graphID string, nodeID int64) (int, error) {
	var count int
	err := s.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM edges
		WHERE graph_id = $1 AND (source_id = $2 OR target_id = $2)`,
		graphID, nodeID,
	).Scan(&count)
	return count, err
}

func (s *GraphDBStore) queryEdges(ctx context.Context, sql string, args ...any) ([]common.Edge, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := make([]common.Edge, 0)
	for rows.Next() {
		var e common.Edge
		err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Type, &e.Weight,
			&e.EvidenceCount, &e.ValidFrom, &e.ValidTo)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
