package pgx

import (
	"context"
	"fmt"

	"github.com/caselight/backend/pkg/common"
)

func (s *GraphDBStore) GraphExists(ctx context.Context, graphID string) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM nodes WHERE graph_id = $1)`, graphID,
	).Scan(&exists)
	return exists, err
}

// DeleteGraph removes all rows of a graph. Links and edges cascade off their
// nodes; provenance is kept as an audit trail.
func (s *GraphDBStore) DeleteGraph(ctx context.Context, graphID string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM nodes WHERE graph_id = $1`, graphID)
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	return nil
}

func (s *GraphDBStore) Counts(ctx context.Context, graphID string) (common.GraphStats, error) {
	stats := common.GraphStats{
		GraphID:     graphID,
		NodesByType: make(map[string]int),
		EdgesByType: make(map[string]int),
	}

	err := s.conn.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM nodes WHERE graph_id = $1),
			(SELECT COUNT(*) FROM edges WHERE graph_id = $1),
			(SELECT COUNT(*) FROM links WHERE graph_id = $1),
			(SELECT COUNT(DISTINCT document_id) FROM links WHERE graph_id = $1 AND document_id <> '')`,
		graphID,
	).Scan(&stats.NodeCount, &stats.EdgeCount, &stats.LinkCount, &stats.DocumentCount)
	if err != nil {
		return stats, err
	}

	rows, err := s.conn.Query(ctx,
		`SELECT type, COUNT(*) FROM nodes WHERE graph_id = $1 GROUP BY type`, graphID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return stats, err
		}
		stats.NodesByType[typ] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	edgeRows, err := s.conn.Query(ctx,
		`SELECT type, COUNT(*) FROM edges WHERE graph_id = $1 GROUP BY type`, graphID)
	if err != nil {
		return stats, err
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var typ string
		var count int
		if err := edgeRows.Scan(&typ, &count); err != nil {
			return stats, err
		}
		stats.EdgesByType[typ] = count
	}
	return stats, edgeRows.Err()
}
