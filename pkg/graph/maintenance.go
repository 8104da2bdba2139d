package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/provenance"
	"github.com/caselight/backend/pkg/store"
)

// Merge folds the source node into the target: links and edges move over,
// alias sets union, aggregates recompute from the combined links (distinct
// documents, never a sum), same-type edges to the same neighbor merge
// their evidence. The source node is deleted. Requires confirm.
func (g *GraphClient) Merge(ctx context.Context, graphID string, sourceID, targetID int64, confirm bool) error {
	if !confirm {
		return ErrConfirmRequired
	}
	if sourceID == targetID {
		return ErrSameNode
	}

	logger.Info("[Graph] Merging nodes", "graph_id", graphID, "source", sourceID, "target", targetID)

	err := g.store.RunInTx(ctx, func(tx store.Store) error {
		src, err := tx.GetNode(ctx, graphID, sourceID)
		if err != nil {
			return fmt.Errorf("source node %d: %w", sourceID, err)
		}
		tgt, err := tx.GetNode(ctx, graphID, targetID)
		if err != nil {
			return fmt.Errorf("target node %d: %w", targetID, err)
		}

		// Move every link over to the target.
		links, err := tx.GetLinksByNode(ctx, graphID, sourceID)
		if err != nil {
			return err
		}
		for i := range links {
			links[i].NodeID = targetID
			if err := tx.UpdateLink(ctx, graphID, &links[i]); err != nil {
				return err
			}
		}

		// Union alias sets; the source's canonical name becomes an alias.
		for _, alias := range append([]string{src.CanonicalName}, src.Aliases...) {
			if !strings.EqualFold(alias, tgt.CanonicalName) && !containsFold(tgt.Aliases, alias) {
				tgt.Aliases = append(tgt.Aliases, alias)
			}
		}

		// Reassign edges, merging duplicates per (neighbor, type).
		neighbors := make(map[int64]struct{})
		edges, err := tx.GetEdgesByNode(ctx, graphID, sourceID)
		if err != nil {
			return err
		}
		for _, e := range edges {
			other := e.SourceID
			if other == sourceID {
				other = e.TargetID
			}
			if other == targetID {
				// Edge between source and target collapses into a self-loop.
				if err := tx.DeleteEdge(ctx, graphID, e.ID); err != nil {
					return err
				}
				continue
			}
			neighbors[other] = struct{}{}

			moved := e
			if moved.SourceID == sourceID {
				moved.SourceID = targetID
			} else {
				moved.TargetID = targetID
			}

			dup, err := findEdgeEitherDirection(ctx, tx, graphID, moved.SourceID, moved.TargetID, moved.Type)
			if err != nil {
				return err
			}
			if dup != nil && dup.ID != e.ID {
				total := dup.EvidenceCount + moved.EvidenceCount
				if total > 0 {
					dup.Weight = (dup.Weight*float64(dup.EvidenceCount) + moved.Weight*float64(moved.EvidenceCount)) / float64(total)
				}
				dup.EvidenceCount = total
				if err := tx.UpdateEdge(ctx, graphID, dup); err != nil {
					return err
				}
				if err := tx.DeleteEdge(ctx, graphID, e.ID); err != nil {
					return err
				}
				continue
			}
			if err := tx.UpdateEdge(ctx, graphID, &moved); err != nil {
				return err
			}
		}

		// Aggregates from the combined links, then the node swap.
		combined, err := tx.GetLinksByNode(ctx, graphID, targetID)
		if err != nil {
			return err
		}
		applyLinkAggregates(tgt, combined)

		if err := tx.DeleteNode(ctx, graphID, sourceID); err != nil {
			return err
		}

		// Edge counts for the target and every affected neighbor.
		affected := []int64{targetID}
		for id := range neighbors {
			affected = append(affected, id)
		}
		if err := refreshEdgeCounts(ctx, tx, graphID, tgt, affected); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("merge %d into %d: %w", sourceID, targetID, err)
	}

	if _, err := g.prov.Record(ctx, graphID, provenance.OpMerge, "", map[string]any{
		"source": sourceID,
		"target": targetID,
	}, ""); err != nil {
		logger.Warn("[Graph] Failed to record merge provenance", "graph_id", graphID, "err", err)
	}
	return nil
}

// Split moves the given entities' links off a node onto a new node and
// re-derives both nodes' aggregates and edges from the post-split document
// evidence. newName is optional; the new node keeps the original canonical
// name when empty.
func (g *GraphClient) Split(ctx context.Context, graphID string, nodeID int64, entityIDs []string, newName string) (int64, error) {
	if len(entityIDs) == 0 {
		return 0, ErrEmptySplit
	}

	logger.Info("[Graph] Splitting node", "graph_id", graphID, "node", nodeID, "entities", len(entityIDs))

	splitSet := make(map[string]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		splitSet[id] = struct{}{}
	}

	var newID int64
	err := g.store.RunInTx(ctx, func(tx store.Store) error {
		orig, err := tx.GetNode(ctx, graphID, nodeID)
		if err != nil {
			return fmt.Errorf("node %d: %w", nodeID, err)
		}

		links, err := tx.GetLinksByNode(ctx, graphID, nodeID)
		if err != nil {
			return err
		}
		var moving, staying []common.Link
		for _, l := range links {
			if _, ok := splitSet[l.EntityID]; ok {
				moving = append(moving, l)
			} else {
				staying = append(staying, l)
			}
		}
		if len(moving) == 0 || len(staying) == 0 {
			return ErrEmptySplit
		}

		publicID, err := gonanoid.New()
		if err != nil {
			return err
		}
		name := newName
		if name == "" {
			name = orig.CanonicalName
		}
		fresh := common.Node{
			PublicID:      publicID,
			Type:          orig.Type,
			CanonicalName: name,
		}
		if err := tx.InsertNode(ctx, graphID, &fresh); err != nil {
			return err
		}
		newID = fresh.ID

		for i := range moving {
			moving[i].NodeID = newID
			if err := tx.UpdateLink(ctx, graphID, &moving[i]); err != nil {
				return err
			}
		}

		applyLinkAggregates(orig, staying)
		applyLinkAggregates(&fresh, moving)

		// An edge follows whichever side retains the originating document
		// evidence; edges with no remaining overlap on either side drop.
		origDocs := linkDocs(staying)
		newDocs := linkDocs(moving)

		neighbors := map[int64]struct{}{}
		edges, err := tx.GetEdgesByNode(ctx, graphID, nodeID)
		if err != nil {
			return err
		}
		for _, e := range edges {
			other := e.SourceID
			if other == nodeID {
				other = e.TargetID
			}
			neighbors[other] = struct{}{}

			otherLinks, err := tx.GetLinksByNode(ctx, graphID, other)
			if err != nil {
				return err
			}
			otherDocs := linkDocs(otherLinks)

			switch {
			case overlaps(origDocs, otherDocs):
				// stays where it is
			case overlaps(newDocs, otherDocs):
				if e.SourceID == nodeID {
					e.SourceID = newID
				} else {
					e.TargetID = newID
				}
				if err := tx.UpdateEdge(ctx, graphID, &e); err != nil {
					return err
				}
			default:
				if err := tx.DeleteEdge(ctx, graphID, e.ID); err != nil {
					return err
				}
			}
		}

		if err := tx.UpdateNode(ctx, graphID, orig); err != nil {
			return err
		}
		if err := tx.UpdateNode(ctx, graphID, &fresh); err != nil {
			return err
		}

		affected := []int64{nodeID, newID}
		for id := range neighbors {
			affected = append(affected, id)
		}
		return refreshEdgeCounts(ctx, tx, graphID, nil, affected)
	})
	if err != nil {
		return 0, fmt.Errorf("split node %d: %w", nodeID, err)
	}

	if _, err := g.prov.Record(ctx, graphID, provenance.OpSplit, "", map[string]any{
		"node":     nodeID,
		"new_node": newID,
		"entities": entityIDs,
	}, ""); err != nil {
		logger.Warn("[Graph] Failed to record split provenance", "graph_id", graphID, "err", err)
	}
	return newID, nil
}

func findEdgeEitherDirection(ctx context.Context, tx store.Store, graphID string, a, b int64, edgeType string) (*common.Edge, error) {
	e, err := tx.GetEdge(ctx, graphID, a, b, edgeType)
	if errors.Is(err, store.ErrNotFound) {
		e, err = tx.GetEdge(ctx, graphID, b, a, edgeType)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// refreshEdgeCounts stores the live edge count on each node. updated, when
// non-nil, carries pending field changes for its node and is written
// instead of the stored row.
func refreshEdgeCounts(ctx context.Context, tx store.Store, graphID string, updated *common.Node, ids []int64) error {
	for _, id := range ids {
		count, err := tx.CountEdgesByNode(ctx, graphID, id)
		if err != nil {
			return err
		}
		n := updated
		if n == nil || n.ID != id {
			n, err = tx.GetNode(ctx, graphID, id)
			if err != nil {
				return err
			}
		}
		n.EdgeCount = count
		if err := tx.UpdateNode(ctx, graphID, n); err != nil {
			return err
		}
	}
	return nil
}

func linkDocs(links []common.Link) map[string]struct{} {
	docs := make(map[string]struct{}, len(links))
	for _, l := range links {
		if l.DocumentID != "" {
			docs[l.DocumentID] = struct{}{}
		}
	}
	return docs
}

func overlaps(a, b map[string]struct{}) bool {
	for d := range a {
		if _, ok := b[d]; ok {
			return true
		}
	}
	return false
}
