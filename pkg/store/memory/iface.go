package memory

import (
	"context"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/store"
)

// Locked pass-throughs implementing store.Store on *MemoryStore.

func (s *MemoryStore) InsertNode(ctx context.Context, graphID string, n *common.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertNode(ctx, graphID, n)
}

func (s *MemoryStore) GetNode(ctx context.Context, graphID string, id int64) (*common.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getNode(ctx, graphID, id)
}

func (s *MemoryStore) GetNodes(ctx context.Context, graphID string) ([]common.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getNodes(ctx, graphID)
}

func (s *MemoryStore) UpdateNode(ctx context.Context, graphID string, n *common.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateNode(ctx, graphID, n)
}

func (s *MemoryStore) DeleteNode(ctx context.Context, graphID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteNode(ctx, graphID, id)
}

func (s *MemoryStore) SearchNodes(ctx context.Context, graphID string, query string, limit int) ([]common.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchNodes(ctx, graphID, query, limit)
}

func (s *MemoryStore) InsertLink(ctx context.Context, graphID string, l *common.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLink(ctx, graphID, l)
}

func (s *MemoryStore) GetLinks(ctx context.Context, graphID string) ([]common.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLinks(ctx, graphID)
}

func (s *MemoryStore) GetLinksByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLinksByNode(ctx, graphID, nodeID)
}

func (s *MemoryStore) GetLinksByDocument(ctx context.Context, graphID string, documentID string) ([]common.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLinksByDocument(ctx, graphID, documentID)
}

func (s *MemoryStore) GetLinkByEntity(ctx context.Context, graphID string, entityID string) (*common.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLinkByEntity(ctx, graphID, entityID)
}

func (s *MemoryStore) UpdateLink(ctx context.Context, graphID string, l *common.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLink(ctx, graphID, l)
}

func (s *MemoryStore) DeleteLink(ctx context.Context, graphID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLink(ctx, graphID, id)
}

func (s *MemoryStore) InsertEdge(ctx context.Context, graphID string, e *common.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEdge(ctx, graphID, e)
}

func (s *MemoryStore) GetEdge(ctx context.Context, graphID string, sourceID, targetID int64, edgeType string) (*common.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEdge(ctx, graphID, sourceID, targetID, edgeType)
}

func (s *MemoryStore) GetEdges(ctx context.Context, graphID string) ([]common.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEdges(ctx, graphID)
}

func (s *MemoryStore) GetEdgesByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEdgesByNode(ctx, graphID, nodeID)
}

func (s *MemoryStore) UpdateEdge(ctx context.Context, graphID string, e *common.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateEdge(ctx, graphID, e)
}

func (s *MemoryStore) DeleteEdge(ctx context.Context, graphID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteEdge(ctx, graphID, id)
}

func (s *MemoryStore) CountEdgesByNode(ctx context.Context, graphID string, nodeID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countEdgesByNode(ctx, graphID, nodeID)
}

func (s *MemoryStore) GraphExists(ctx context.Context, graphID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphExists(ctx, graphID)
}

func (s *MemoryStore) DeleteGraph(ctx context.Context, graphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteGraph(ctx, graphID)
}

func (s *MemoryStore) Counts(ctx context.Context, graphID string) (common.GraphStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts(ctx, graphID)
}

// Unlocked tx view used inside RunInTx.

func (t *txView) InsertNode(ctx context.Context, graphID string, n *common.Node) error {
	return t.s.insertNode(ctx, graphID, n)
}

func (t *txView) GetNode(ctx context.Context, graphID string, id int64) (*common.Node, error) {
	return t.s.getNode(ctx, graphID, id)
}

func (t *txView) GetNodes(ctx context.Context, graphID string) ([]common.Node, error) {
	return t.s.getNodes(ctx, graphID)
}

func (t *txView) UpdateNode(ctx context.Context, graphID string, n *common.Node) error {
	return t.s.updateNode(ctx, graphID, n)
}

func (t *txView) DeleteNode(ctx context.Context, graphID string, id int64) error {
	return t.s.deleteNode(ctx, graphID, id)
}

func (t *txView) SearchNodes(ctx context.Context, graphID string, query string, limit int) ([]common.Node, error) {
	return t.s.searchNodes(ctx, graphID, query, limit)
}

func (t *txView) InsertLink(ctx context.Context, graphID string, l *common.Link) error {
	return t.s.insertLink(ctx, graphID, l)
}

func (t *txView) GetLinks(ctx context.Context, graphID string) ([]common.Link, error) {
	return t.s.getLinks(ctx, graphID)
}

func (t *txView) GetLinksByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Link, error) {
	return t.s.getLinksByNode(ctx, graphID, nodeID)
}

func (t *txView) GetLinksByDocument(ctx context.Context, graphID string, documentID string) ([]common.Link, error) {
	return t.s.getLinksByDocument(ctx, graphID, documentID)
}

func (t *txView) GetLinkByEntity(ctx context.Context, graphID string, entityID string) (*common.Link, error) {
	return t.s.getLinkByEntity(ctx, graphID, entityID)
}

func (t *txView) UpdateLink(ctx context.Context, graphID string, l *common.Link) error {
	return t.s.updateLink(ctx, graphID, l)
}

func (t *txView) DeleteLink(ctx context.Context, graphID string, id int64) error {
	return t.s.deleteLink(ctx, graphID, id)
}

func (t *txView) InsertEdge(ctx context.Context, graphID string, e *common.Edge) error {
	return t.s.insertEdge(ctx, graphID, e)
}

func (t *txView) GetEdge(ctx context.Context, graphID string, sourceID, targetID int64, edgeType string) (*common.Edge, error) {
	return t.s.getEdge(ctx, graphID, sourceID, targetID, edgeType)
}

func (t *txView) GetEdges(ctx context.Context, graphID string) ([]common.Edge, error) {
	return t.s.getEdges(ctx, graphID)
}

func (t *txView) GetEdgesByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Edge, error) {
	return t.s.getEdgesByNode(ctx, graphID, nodeID)
}

func (t *txView) UpdateEdge(ctx context.Context, graphID string, e *common.Edge) error {
	return t.s.updateEdge(ctx, graphID, e)
}

func (t *txView) DeleteEdge(ctx context.Context, graphID string, id int64) error {
	return t.s.deleteEdge(ctx, graphID, id)
}

func (t *txView) CountEdgesByNode(ctx context.Context, graphID string, nodeID int64) (int, error) {
	return t.s.countEdgesByNode(ctx, graphID, nodeID)
}

func (t *txView) GraphExists(ctx context.Context, graphID string) (bool, error) {
	return t.s.graphExists(ctx, graphID)
}

func (t *txView) DeleteGraph(ctx context.Context, graphID string) error {
	return t.s.deleteGraph(ctx, graphID)
}

func (t *txView) Counts(ctx context.Context, graphID string) (common.GraphStats, error) {
	return t.s.counts(ctx, graphID)
}

var (
	_ store.GraphStore = (*MemoryStore)(nil)
	_ store.Store      = (*txView)(nil)
)
