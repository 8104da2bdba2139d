package graph

import (
	"context"
	"fmt"

	"github.com/caselight/backend/pkg/common"
)

// Stats returns the counts and per-type histograms of a graph.
func (g *GraphClient) Stats(ctx context.Context, graphID string) (common.GraphStats, error) {
	return g.store.Counts(ctx, graphID)
}

// Search finds nodes by canonical name or alias.
func (g *GraphClient) Search(ctx context.Context, graphID, query string, limit int) ([]common.Node, error) {
	return g.store.SearchNodes(ctx, graphID, query, limit)
}

// Export produces a self-contained snapshot of the graph with
// arena-indexed adjacency (node id -> edge ids), safe to serialize without
// chasing object cycles.
func (g *GraphClient) Export(ctx context.Context, graphID string) (*common.GraphExport, error) {
	nodes, err := g.store.GetNodes(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("export nodes: %w", err)
	}
	edges, err := g.store.GetEdges(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("export edges: %w", err)
	}
	links, err := g.store.GetLinks(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("export links: %w", err)
	}

	adjacency := make(map[int64][]int64, len(nodes))
	for _, n := range nodes {
		adjacency[n.ID] = []int64{}
	}
	for _, e := range edges {
		adjacency[e.SourceID] = append(adjacency[e.SourceID], e.ID)
		adjacency[e.TargetID] = append(adjacency[e.TargetID], e.ID)
	}

	return &common.GraphExport{
		GraphID:   graphID,
		Nodes:     nodes,
		Edges:     edges,
		Links:     links,
		Adjacency: adjacency,
	}, nil
}

// CheckEdgeCounts verifies that every node's stored edge_count matches the
// live edge set. A mismatch is a defect: it is reported as ErrIntegrity
// and never repaired here.
func (g *GraphClient) CheckEdgeCounts(ctx context.Context, graphID string) error {
	nodes, err := g.store.GetNodes(ctx, graphID)
	if err != nil {
		return err
	}
	edges, err := g.store.GetEdges(ctx, graphID)
	if err != nil {
		return err
	}

	live := make(map[int64]int, len(nodes))
	for _, e := range edges {
		live[e.SourceID]++
		live[e.TargetID]++
	}
	for _, n := range nodes {
		if n.EdgeCount != live[n.ID] {
			return fmt.Errorf("node %d: stored edge_count %d, live %d: %w",
				n.ID, n.EdgeCount, live[n.ID], ErrIntegrity)
		}
	}
	return nil
}
