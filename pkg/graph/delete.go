package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/provenance"
	"github.com/caselight/backend/pkg/store"
)

// DeleteResult summarizes a document deletion.
type DeleteResult struct {
	GraphID      string `json:"graph_id"`
	LinksRemoved int    `json:"links_removed"`
	NodesRemoved int    `json:"nodes_removed"`
	EdgesRemoved int    `json:"edges_removed"`
}

// DeleteDocuments removes the given documents' links from the graph.
// Nodes whose last contributing document is removed are deleted along
// with their edges; surviving nodes get their aggregates recomputed, and
// edges whose document evidence disappeared are dropped.
func (g *GraphClient) DeleteDocuments(ctx context.Context, graphID string, docIDs []string) (*DeleteResult, error) {
	if graphID == "" {
		return nil, fmt.Errorf("%w: graph id is empty", ErrNoInput)
	}
	if len(docIDs) == 0 {
		return nil, ErrNoInput
	}

	logger.Info("[Graph] Deleting documents", "graph_id", graphID, "documents", len(docIDs))

	result := &DeleteResult{GraphID: graphID}
	err := g.store.RunInTx(ctx, func(tx store.Store) error {
		*result = DeleteResult{GraphID: graphID}

		affected := make(map[int64]struct{})
		for _, doc := range docIDs {
			links, err := tx.GetLinksByDocument(ctx, graphID, doc)
			if err != nil {
				return err
			}
			for _, l := range links {
				if err := tx.DeleteLink(ctx, graphID, l.ID); err != nil {
					return err
				}
				affected[l.NodeID] = struct{}{}
				result.LinksRemoved++
			}
		}
		if len(affected) == 0 {
			return nil
		}

		// Cascade-delete orphaned nodes, recompute the survivors.
		survivors := make(map[int64]struct{})
		neighbors := make(map[int64]struct{})
		ids := sortedIDs(affected)
		for _, id := range ids {
			links, err := tx.GetLinksByNode(ctx, graphID, id)
			if err != nil {
				return err
			}
			if len(links) == 0 {
				edges, err := tx.GetEdgesByNode(ctx, graphID, id)
				if err != nil {
					return err
				}
				for _, e := range edges {
					other := e.SourceID
					if other == id {
						other = e.TargetID
					}
					neighbors[other] = struct{}{}
				}
				result.EdgesRemoved += len(edges)
				// Node deletion cascades its links and edges in the store.
				if err := tx.DeleteNode(ctx, graphID, id); err != nil {
					return err
				}
				result.NodesRemoved++
				continue
			}

			n, err := tx.GetNode(ctx, graphID, id)
			if err != nil {
				return err
			}
			applyLinkAggregates(n, links)
			if err := tx.UpdateNode(ctx, graphID, n); err != nil {
				return err
			}
			survivors[id] = struct{}{}
		}

		// Drop surviving edges whose endpoints no longer share a document.
		for _, id := range sortedIDs(survivors) {
			edges, err := tx.GetEdgesByNode(ctx, graphID, id)
			if err != nil {
				return err
			}
			myLinks, err := tx.GetLinksByNode(ctx, graphID, id)
			if err != nil {
				return err
			}
			myDocs := linkDocs(myLinks)
			for _, e := range edges {
				other := e.SourceID
				if other == id {
					other = e.TargetID
				}
				otherLinks, err := tx.GetLinksByNode(ctx, graphID, other)
				if err != nil {
					return err
				}
				if !overlaps(myDocs, linkDocs(otherLinks)) {
					if err := tx.DeleteEdge(ctx, graphID, e.ID); err != nil {
						return err
					}
					neighbors[other] = struct{}{}
					result.EdgesRemoved++
				}
			}
		}

		// Refresh edge counts on everything still standing.
		recount := make(map[int64]struct{})
		for id := range survivors {
			recount[id] = struct{}{}
		}
		for id := range neighbors {
			if _, gone := affected[id]; gone {
				if _, ok := survivors[id]; !ok {
					continue
				}
			}
			recount[id] = struct{}{}
		}
		for _, id := range sortedIDs(recount) {
			if err := refreshEdgeCounts(ctx, tx, graphID, nil, []int64{id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete documents from %s: %w", graphID, err)
	}

	if _, err := g.prov.Record(ctx, graphID, provenance.OpDelete, "", map[string]any{
		"documents":     docIDs,
		"links_removed": result.LinksRemoved,
		"nodes_removed": result.NodesRemoved,
		"edges_removed": result.EdgesRemoved,
	}, ""); err != nil {
		logger.Warn("[Graph] Failed to record delete provenance", "graph_id", graphID, "err", err)
	}

	logger.Info("[Graph] Documents deleted", "graph_id", graphID,
		"links", result.LinksRemoved, "nodes", result.NodesRemoved, "edges", result.EdgesRemoved)
	return result, nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
