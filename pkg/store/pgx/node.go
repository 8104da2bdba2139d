package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/store"
)

const nodeColumns = `id, public_id, type, canonical_name, aliases,
	document_count, mention_count, avg_confidence, edge_count, importance`

func scanNode(row pgxv5.Row) (*common.Node, error) {
	var n common.Node
	err := row.Scan(
		&n.ID, &n.PublicID, &n.Type, &n.CanonicalName, &n.Aliases,
		&n.DocumentCount, &n.MentionCount, &n.AvgConfidence, &n.EdgeCount, &n.Importance,
	)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *GraphDBStore) InsertNode(ctx context.Context, graphID string, n *common.Node) error {
	if n.Aliases == nil {
		n.Aliases = []string{}
	}
	err := s.conn.QueryRow(ctx, `
		INSERT INTO nodes (graph_id, public_id, type, canonical_name, aliases,
			document_count, mention_count, avg_confidence, edge_count, importance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		graphID, n.PublicID, n.Type, n.CanonicalName, n.Aliases,
		n.DocumentCount, n.MentionCount, n.AvgConfidence, n.EdgeCount, n.Importance,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

func (s *GraphDBStore) GetNode(ctx context.Context, graphID string, id int64) (*common.Node, error) {
	return scanNode(s.conn.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE graph_id = $1 AND id = $2`,
		graphID, id,
	))
}

func (s *GraphDBStore) GetNodes(ctx context.Context, graphID string) ([]common.Node, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE graph_id = $1 ORDER BY id`,
		graphID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func (s *GraphDBStore) UpdateNode(ctx context.Context, graphID string, n *common.Node) error {
	if n.Aliases == nil {
		n.Aliases = []string{}
	}
	tag, err := s.conn.Exec(ctx, `
		UPDATE nodes SET type = $3, canonical_name = $4, aliases = $5,
			document_count = $6, mention_count = $7, avg_confidence = $8,
			edge_count = $9, importance = $10
		WHERE graph_id = $1 AND id = $2`,
		graphID, n.ID, n.Type, n.CanonicalName, n.Aliases,
		n.DocumentCount, n.MentionCount, n.AvgConfidence, n.EdgeCount, n.Importance,
	)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GraphDBStore) DeleteNode(ctx context.Context, graphID string, id int64) error {
	tag, err := s.conn.Exec(ctx,
		`DELETE FROM nodes WHERE graph_id = $1 AND id = $2`, graphID, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SearchNodes matches the query against canonical names and aliases using
// trigram similarity, most similar first.
func (s *GraphDBStore) SearchNodes(ctx context.Context, graphID string, query string, limit int) ([]common.Node, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(ctx, `
		SELECT `+nodeColumns+` FROM nodes
		WHERE graph_id = $1
		  AND (canonical_name ILIKE '%' || $2 || '%'
		    OR canonical_name % $2
		    OR EXISTS (SELECT 1 FROM unnest(aliases) a WHERE a ILIKE '%' || $2 || '%'))
		ORDER BY similarity(canonical_name, $2) DESC, id
		LIMIT $3`,
		graphID, query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func collectNodes(rows pgxv5.Rows) ([]common.Node, error) {
	nodes := make([]common.Node, 0)
	for rows.Next() {
		var n common.Node
		err := rows.Scan(
			&n.ID, &n.PublicID, &n.Type, &n.CanonicalName, &n.Aliases,
			&n.DocumentCount, &n.MentionCount, &n.AvgConfidence, &n.EdgeCount, &n.Importance,
		)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}
