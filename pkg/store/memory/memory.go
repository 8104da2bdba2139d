package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/store"
)

// MemoryStore is an in-memory store.GraphStore. It backs the engine's
// test suite and small single-process deployments; the pgx store is the
// production implementation.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	graphs map[string]*graphState
}

type graphState struct {
	nodes map[int64]common.Node
	links map[int64]common.Link
	edges map[int64]common.Edge
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string]*graphState)}
}

func (s *MemoryStore) graph(graphID string) *graphState {
	g, ok := s.graphs[graphID]
	if !ok {
		g = &graphState{
			nodes: make(map[int64]common.Node),
			links: make(map[int64]common.Link),
			edges: make(map[int64]common.Edge),
		}
		s.graphs[graphID] = g
	}
	return g
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// snapshot deep-copies all graph state for transaction rollback.
func (s *MemoryStore) snapshot() map[string]*graphState {
	out := make(map[string]*graphState, len(s.graphs))
	for id, g := range s.graphs {
		cp := &graphState{
			nodes: make(map[int64]common.Node, len(g.nodes)),
			links: make(map[int64]common.Link, len(g.links)),
			edges: make(map[int64]common.Edge, len(g.edges)),
		}
		for k, v := range g.nodes {
			v.Aliases = append([]string(nil), v.Aliases...)
			cp.nodes[k] = v
		}
		for k, v := range g.links {
			cp.links[k] = v
		}
		for k, v := range g.edges {
			cp.edges[k] = v
		}
		out[id] = cp
	}
	return out
}

// RunInTx executes fn under the store lock with rollback on error. The tx
// view passed to fn bypasses the lock, so fn must not call the outer
// store.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.snapshot()
	beforeID := s.nextID
	if err := fn(&txView{s: s}); err != nil {
		s.graphs = before
		s.nextID = beforeID
		return err
	}
	return nil
}

// txView exposes the unlocked internals as a store.Store inside RunInTx.
type txView struct {
	s *MemoryStore
}

func copyNode(n common.Node) common.Node {
	n.Aliases = append([]string(nil), n.Aliases...)
	return n
}

// --- nodes ---

func (s *MemoryStore) insertNode(ctx context.Context, graphID string, n *common.Node) error {
	if n.CanonicalName == "" && n.Type == "" {
		return fmt.Errorf("node requires a type or a name")
	}
	g := s.graph(graphID)
	n.ID = s.id()
	g.nodes[n.ID] = copyNode(*n)
	return nil
}

func (s *MemoryStore) getNode(ctx context.Context, graphID string, id int64) (*common.Node, error) {
	g := s.graph(graphID)
	n, ok := g.nodes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	n = copyNode(n)
	return &n, nil
}

func (s *MemoryStore) getNodes(ctx context.Context, graphID string) ([]common.Node, error) {
	g := s.graph(graphID)
	out := make([]common.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, copyNode(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) updateNode(ctx context.Context, graphID string, n *common.Node) error {
	g := s.graph(graphID)
	if _, ok := g.nodes[n.ID]; !ok {
		return store.ErrNotFound
	}
	g.nodes[n.ID] = copyNode(*n)
	return nil
}

// deleteNode cascades to links and edges referencing the node, matching
// the foreign key behavior of the database driver.
func (s *MemoryStore) deleteNode(ctx context.Context, graphID string, id int64) error {
	g := s.graph(graphID)
	if _, ok := g.nodes[id]; !ok {
		return store.ErrNotFound
	}
	delete(g.nodes, id)
	for lid, l := range g.links {
		if l.NodeID == id {
			delete(g.links, lid)
		}
	}
	for eid, e := range g.edges {
		if e.Touches(id) {
			delete(g.edges, eid)
		}
	}
	return nil
}

func (s *MemoryStore) searchNodes(ctx context.Context, graphID string, query string, limit int) ([]common.Node, error) {
	g := s.graph(graphID)
	query = strings.ToLower(strings.TrimSpace(query))

	var out []common.Node
	for _, n := range g.nodes {
		if query == "" || nodeMatches(n, query) {
			out = append(out, copyNode(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CanonicalName != out[j].CanonicalName {
			return out[i].CanonicalName < out[j].CanonicalName
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func nodeMatches(n common.Node, query string) bool {
	if strings.Contains(strings.ToLower(n.CanonicalName), query) {
		return true
	}
	for _, a := range n.Aliases {
		if strings.Contains(strings.ToLower(a), query) {
			return true
		}
	}
	return false
}

// --- links ---

func (s *MemoryStore) insertLink(ctx context.Context, graphID string, l *common.Link) error {
	g := s.graph(graphID)
	if l.EntityID == "" {
		return fmt.Errorf("link requires an entity id")
	}
	if _, ok := g.nodes[l.NodeID]; !ok {
		return fmt.Errorf("link references unknown node %d", l.NodeID)
	}
	for _, existing := range g.links {
		if existing.EntityID == l.EntityID {
			return fmt.Errorf("entity %s is already linked", l.EntityID)
		}
	}
	l.ID = s.id()
	g.links[l.ID] = *l
	return nil
}

func (s *MemoryStore) getLinks(ctx context.Context, graphID string) ([]common.Link, error) {
	g := s.graph(graphID)
	out := make([]common.Link, 0, len(g.links))
	for _, l := range g.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) getLinksByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Link, error) {
	g := s.graph(graphID)
	var out []common.Link
	for _, l := range g.links {
		if l.NodeID == nodeID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) getLinksByDocument(ctx context.Context, graphID string, documentID string) ([]common.Link, error) {
	g := s.graph(graphID)
	var out []common.Link
	for _, l := range g.links {
		if l.DocumentID == documentID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) getLinkByEntity(ctx context.Context, graphID string, entityID string) (*common.Link, error) {
	g := s.graph(graphID)
	for _, l := range g.links {
		if l.EntityID == entityID {
			out := l
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *MemoryStore) updateLink(ctx context.Context, graphID string, l *common.Link) error {
	g := s.graph(graphID)
	if _, ok := g.links[l.ID]; !ok {
		return store.ErrNotFound
	}
	g.links[l.ID] = *l
	return nil
}

func (s *MemoryStore) deleteLink(ctx context.Context, graphID string, id int64) error {
	g := s.graph(graphID)
	if _, ok := g.links[id]; !ok {
		return store.ErrNotFound
	}
	delete(g.links, id)
	return nil
}

// --- edges ---

func (s *MemoryStore) insertEdge(ctx context.Context, graphID string, e *common.Edge) error {
	g := s.graph(graphID)
	if e.SourceID == e.TargetID {
		return fmt.Errorf("self-loop edge on node %d rejected", e.SourceID)
	}
	if _, ok := g.nodes[e.SourceID]; !ok {
		return fmt.Errorf("edge references unknown source %d", e.SourceID)
	}
	if _, ok := g.nodes[e.TargetID]; !ok {
		return fmt.Errorf("edge references unknown target %d", e.TargetID)
	}
	for _, existing := range g.edges {
		if existing.SourceID == e.SourceID && existing.TargetID == e.TargetID && existing.Type == e.Type {
			return fmt.Errorf("duplicate edge %d->%d (%s)", e.SourceID, e.TargetID, e.Type)
		}
	}
	e.ID = s.id()
	g.edges[e.ID] = *e
	return nil
}

func (s *MemoryStore) getEdge(ctx context.Context, graphID string, sourceID, targetID int64, edgeType string) (*common.Edge, error) {
	g := s.graph(graphID)
	for _, e := range g.edges {
		if e.SourceID == sourceID && e.TargetID == targetID && e.Type == edgeType {
			out := e
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *MemoryStore) getEdges(ctx context.Context, graphID string) ([]common.Edge, error) {
	g := s.graph(graphID)
	out := make([]common.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) getEdgesByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Edge, error) {
	g := s.graph(graphID)
	var out []common.Edge
	for _, e := range g.edges {
		if e.Touches(nodeID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) updateEdge(ctx context.Context, graphID string, e *common.Edge) error {
	g := s.graph(graphID)
	if _, ok := g.edges[e.ID]; !ok {
		return store.ErrNotFound
	}
	g.edges[e.ID] = *e
	return nil
}

func (s *MemoryStore) deleteEdge(ctx context.Context, graphID string, id int64) error {
	g := s.graph(graphID)
	if _, ok := g.edges[id]; !ok {
		return store.ErrNotFound
	}
	delete(g.edges, id)
	return nil
}

func (s *MemoryStore) countEdgesByNode(ctx context.Context, graphID string, nodeID int64) (int, error) {
	g := s.graph(graphID)
	count := 0
	for _, e := range g.edges {
		if e.Touches(nodeID) {
			count++
		}
	}
	return count, nil
}

// --- graph-level ---

func (s *MemoryStore) graphExists(ctx context.Context, graphID string) (bool, error) {
	g, ok := s.graphs[graphID]
	if !ok {
		return false, nil
	}
	return len(g.nodes) > 0, nil
}

func (s *MemoryStore) deleteGraph(ctx context.Context, graphID string) error {
	delete(s.graphs, graphID)
	return nil
}

func (s *MemoryStore) counts(ctx context.Context, graphID string) (common.GraphStats, error) {
	g := s.graph(graphID)
	stats := common.GraphStats{
		GraphID:     graphID,
		NodeCount:   len(g.nodes),
		EdgeCount:   len(g.edges),
		LinkCount:   len(g.links),
		NodesByType: make(map[string]int),
		EdgesByType: make(map[string]int),
	}
	docs := make(map[string]struct{})
	for _, n := range g.nodes {
		stats.NodesByType[n.Type]++
	}
	for _, e := range g.edges {
		stats.EdgesByType[e.Type]++
	}
	for _, l := range g.links {
		docs[l.DocumentID] = struct{}{}
	}
	stats.DocumentCount = len(docs)
	return stats, nil
}
