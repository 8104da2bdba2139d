package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/store"
)

const linkColumns = `id, node_id, entity_id, document_id, resolution_method, similarity, confidence`

func (s *GraphDBStore) InsertLink(ctx context.Context, graphID string, l *common.Link) error {
	if l.EntityID == "" {
		return fmt.Errorf("link entity_id is empty")
	}
	err := s.conn.QueryRow(ctx, `
		INSERT INTO links (graph_id, node_id, entity_id, document_id,
			resolution_method, similarity, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		graphID, l.NodeID, l.EntityID, l.DocumentID,
		l.ResolutionMethod, l.Similarity, l.Confidence,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

func (s *GraphDBStore) GetLinks(ctx context.Context, graphID string) ([]common.Link, error) {
	return s.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE graph_id = $1 ORDER BY id`, graphID)
}

func (s *GraphDBStore) GetLinksByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Link, error) {
	return s.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE graph_id = $1 AND node_id = $2 ORDER BY id`,
		graphID, nodeID)
}

func (s *GraphDBStore) GetLinksByDocument(ctx context.Context, graphID string, documentID string) ([]common.Link, error) {
	return s.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE graph_id = $1 AND document_id = $2 ORDER BY id`,
		graphID, documentID)
}

func (s *GraphDBStore) GetLinkByEntity(ctx context.Context, graphID string, entityID string) (*common.Link, error) {
	var l common.Link
	err := s.conn.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM links WHERE graph_id = $1 AND entity_id = $2`,
		graphID, entityID,
	).Scan(&l.ID, &l.NodeID, &l.EntityID, &l.DocumentID, &l.ResolutionMethod, &l.Similarity, &l.Confidence)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *GraphDBStore) UpdateLink(ctx context.Context, graphID string, l *common.Link) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE links SET node_id = $3, entity_id = $4, document_id = $5,
			resolution_method = $6, similarity = $7, confidence = $8
		WHERE graph_id = $1 AND id = $2`,
		graphID, l.ID, l.NodeID, l.EntityID, l.DocumentID,
		l.ResolutionMethod, l.Similarity, l.Confidence,
	)
	if err != nil {
		return fmt.Errorf("update link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GraphDBStore) DeleteLink(ctx context.Context, graphID string, id int64) error {
	tag, err := s.conn.Exec(ctx,
		`DELETE FROM links WHERE graph_id = $1 AND id = $2`, graphID, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GraphDBStore) queryLinks(ctx context.Context, sql string, args ...any) ([]common.Link, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]common.Link, 0)
	for rows.Next() {
		var l common.Link
		err := rows.Scan(&l.ID, &l.NodeID, &l.EntityID, &l.DocumentID,
			&l.ResolutionMethod, &l.Similarity, &l.Confidence)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
