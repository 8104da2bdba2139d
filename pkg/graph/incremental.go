package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/caselight/backend/pkg/classify"
	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/provenance"
	"github.com/caselight/backend/pkg/resolve"
	"github.com/caselight/backend/pkg/store"
)

// IncrementalParams configures an incremental build over new documents'
// mentions.
type IncrementalParams struct {
	GraphID      string
	Mentions     []common.Mention
	Mode         resolve.Mode
	ClusterLabel string
}

// IncrementalResult summarizes one incremental run. Skipped counts
// mentions whose entity was already linked, which makes re-runs of the
// same document a no-op.
type IncrementalResult struct {
	GraphID      string `json:"graph_id"`
	NewNodes     int    `json:"new_nodes"`
	UpdatedNodes int    `json:"updated_nodes"`
	NewLinks     int    `json:"new_links"`
	Skipped      int    `json:"skipped"`
	Edges        int    `json:"edges"`
	ProvenanceID string `json:"provenance_id,omitempty"`
}

// Incremental adds new documents' mentions to an existing graph. Mentions
// resolve against the current node set; matches update aggregates and add
// links, misses become singleton nodes. Edge recomputation is limited to
// node pairs touching the new documents. Idempotent by entity id.
func (g *GraphClient) Incremental(ctx context.Context, params IncrementalParams) (*IncrementalResult, error) {
	if params.GraphID == "" {
		return nil, fmt.Errorf("%w: graph id is empty", ErrNoInput)
	}
	if len(params.Mentions) == 0 {
		return nil, ErrNoInput
	}
	if err := validateMentions(params.Mentions); err != nil {
		return nil, err
	}

	exists, err := g.store.GraphExists(ctx, params.GraphID)
	if err != nil {
		return nil, fmt.Errorf("check graph: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("graph %s: %w", params.GraphID, ErrNotFound)
	}

	logger.Info("[Graph] Starting incremental build",
		"graph_id", params.GraphID, "mentions", len(params.Mentions))

	result := &IncrementalResult{GraphID: params.GraphID}
	var newNodes []common.Node

	err = g.store.RunInTx(ctx, func(tx store.Store) error {
		*result = IncrementalResult{GraphID: params.GraphID}

		fresh, skipped, err := g.filterLinked(ctx, tx, params.GraphID, params.Mentions)
		if err != nil {
			return err
		}
		result.Skipped = skipped
		if len(fresh) == 0 {
			return nil
		}

		existing, err := tx.GetNodes(ctx, params.GraphID)
		if err != nil {
			return err
		}

		res := resolve.Resolve(fresh, existing, params.Mode, g.resolveCfg)
		plans := assemblePlans(res)
		newNodes = make([]common.Node, 0, len(plans))

		byID := make(map[int64]*common.Node, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		// New singleton nodes and their links.
		pendingIDs := make([]int64, len(plans))
		for i := range plans {
			publicID, err := gonanoid.New()
			if err != nil {
				return err
			}
			n := plans[i].node
			n.PublicID = publicID
			n.DocumentCount = len(plans[i].docs)
			n.MentionCount = len(plans[i].links)
			n.AvgConfidence = plans[i].confSum / float64(len(plans[i].links))
			if err := tx.InsertNode(ctx, params.GraphID, &n); err != nil {
				return err
			}
			for _, l := range plans[i].links {
				l.NodeID = n.ID
				if err := tx.InsertLink(ctx, params.GraphID, &l); err != nil {
					return err
				}
				result.NewLinks++
			}
			newNodes = append(newNodes, n)
			byID[n.ID] = &newNodes[len(newNodes)-1]
			pendingIDs[i] = n.ID
		}
		result.NewNodes = len(plans)

		// Links into existing nodes, plus alias growth on fuzzy matches.
		touched := make(map[int64]*common.Node)
		for _, d := range res.Decisions {
			if d.Pending >= 0 {
				continue
			}
			n := byID[d.NodeID]
			if n == nil {
				return fmt.Errorf("decision references unknown node %d", d.NodeID)
			}
			l := common.Link{
				NodeID:           d.NodeID,
				EntityID:         d.Mention.EntityID,
				DocumentID:       d.Mention.DocumentID,
				ResolutionMethod: d.Method,
				Similarity:       d.Similarity,
				Confidence:       d.Mention.Confidence,
			}
			if err := tx.InsertLink(ctx, params.GraphID, &l); err != nil {
				return err
			}
			result.NewLinks++

			text := mentionDisplayText(d.Mention)
			if !strings.EqualFold(text, n.CanonicalName) && !containsFold(n.Aliases, text) {
				n.Aliases = append(n.Aliases, text)
			}
			touched[d.NodeID] = n
		}

		// Recompute aggregates of touched nodes from their live links.
		for id, n := range touched {
			links, err := tx.GetLinksByNode(ctx, params.GraphID, id)
			if err != nil {
				return err
			}
			applyLinkAggregates(n, links)
			if err := tx.UpdateNode(ctx, params.GraphID, n); err != nil {
				return err
			}
			result.UpdatedNodes++
		}

		edges, err := g.recomputeIncrementEdges(ctx, tx, params, fresh, res, pendingIDs, byID)
		if err != nil {
			return err
		}
		result.Edges = edges
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("incremental %s: %w", params.GraphID, err)
	}

	result.ProvenanceID = g.recordIncrementalProvenance(ctx, params, newNodes, result)
	logger.Info("[Graph] Incremental build finished",
		"graph_id", params.GraphID, "new_nodes", result.NewNodes,
		"new_links", result.NewLinks, "skipped", result.Skipped, "edges", result.Edges)
	return result, nil
}

// filterLinked drops mentions whose entity is already linked, and in-batch
// entity id duplicates.
func (g *GraphClient) filterLinked(
	ctx context.Context,
	tx store.Store,
	graphID string,
	mentions []common.Mention,
) ([]common.Mention, int, error) {
	fresh := make([]common.Mention, 0, len(mentions))
	seen := make(map[string]struct{}, len(mentions))
	skipped := 0

	for _, m := range mentions {
		if m.EntityID != "" {
			if _, dup := seen[m.EntityID]; dup {
				skipped++
				continue
			}
			seen[m.EntityID] = struct{}{}
		}
		_, err := tx.GetLinkByEntity(ctx, graphID, m.EntityID)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, 0, err
		}
		fresh = append(fresh, m)
	}
	return fresh, skipped, nil
}

// recomputeIncrementEdges classifies node pairs co-occurring in the newly
// added documents and upserts the resulting edges. Existing edges are
// re-evidenced (weight re-averaged, evidence count bumped) instead of
// duplicated.
func (g *GraphClient) recomputeIncrementEdges(
	ctx context.Context,
	tx store.Store,
	params IncrementalParams,
	fresh []common.Mention,
	res resolve.Result,
	pendingIDs []int64,
	byID map[int64]*common.Node,
) (int, error) {
	newDocs := make(map[string]struct{})
	for _, m := range fresh {
		if m.DocumentID != "" {
			newDocs[m.DocumentID] = struct{}{}
		}
	}

	batchesByNode := make(map[int64]map[string]struct{})
	for _, d := range res.Decisions {
		if d.Mention.SchemaBatch == "" {
			continue
		}
		nodeID := d.NodeID
		if d.Pending >= 0 {
			nodeID = pendingIDs[d.Pending]
		}
		set, ok := batchesByNode[nodeID]
		if !ok {
			set = make(map[string]struct{})
			batchesByNode[nodeID] = set
		}
		set[d.Mention.SchemaBatch] = struct{}{}
	}

	pairDocs := make(map[[2]int64]map[string]struct{})
	for doc := range newDocs {
		links, err := tx.GetLinksByDocument(ctx, params.GraphID, doc)
		if err != nil {
			return 0, err
		}
		ids := make([]int64, 0, len(links))
		seen := make(map[int64]struct{})
		for _, l := range links {
			if _, ok := seen[l.NodeID]; !ok {
				seen[l.NodeID] = struct{}{}
				ids = append(ids, l.NodeID)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				key := [2]int64{ids[i], ids[j]}
				if pairDocs[key] == nil {
					pairDocs[key] = make(map[string]struct{})
				}
				pairDocs[key][doc] = struct{}{}
			}
		}
	}
	if len(pairDocs) == 0 {
		return 0, nil
	}

	// Flatten the pair map into an indexed node slice for classification.
	keys := make([][2]int64, 0, len(pairDocs))
	for k := range pairDocs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	indexOf := make(map[int64]int)
	var nodes []*common.Node
	nodeIndex := func(id int64) (int, error) {
		if idx, ok := indexOf[id]; ok {
			return idx, nil
		}
		n, ok := byID[id]
		if !ok {
			fetched, err := tx.GetNode(ctx, params.GraphID, id)
			if err != nil {
				return 0, err
			}
			n = fetched
			byID[id] = n
		}
		indexOf[id] = len(nodes)
		nodes = append(nodes, n)
		return len(nodes) - 1, nil
	}

	pairs := make([]pairCandidate, 0, len(keys))
	for _, k := range keys {
		a, err := nodeIndex(k[0])
		if err != nil {
			return 0, err
		}
		b, err := nodeIndex(k[1])
		if err != nil {
			return 0, err
		}
		docs := sortedDocs(pairDocs[k])
		pairs = append(pairs, pairCandidate{
			A:           a,
			B:           b,
			Docs:        docs,
			SchemaBatch: sharedBatch(batchesByNode[k[0]], batchesByNode[k[1]]),
			Snippet: fmt.Sprintf("%s (%s) and %s (%s) appear together in %d document(s)",
				nodes[a].CanonicalName, nodes[a].Type,
				nodes[b].CanonicalName, nodes[b].Type, len(docs)),
		})
	}

	types := make([]string, len(nodes))
	for i := range nodes {
		types[i] = nodes[i].Type
	}
	relations, err := g.classifyPairs(ctx, params.ClusterLabel, types, pairs)
	if err != nil {
		return 0, err
	}

	count := 0
	for i, rel := range relations {
		if rel == nil {
			continue
		}
		p := pairs[i]
		src, dst := orient(p.A, p.B, types[p.A], types[p.B])
		srcID, dstID := nodes[src].ID, nodes[dst].ID

		if err := g.upsertEdge(ctx, tx, params.GraphID, srcID, dstID, *rel, len(p.Docs)); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// upsertEdge re-evidences an existing (source, target, type) edge in
// either direction or inserts a new one, keeping edge_count in step.
func (g *GraphClient) upsertEdge(
	ctx context.Context,
	tx store.Store,
	graphID string,
	srcID, dstID int64,
	rel classify.Relation,
	evidence int,
) error {
	existing, err := tx.GetEdge(ctx, graphID, srcID, dstID, rel.Type)
	if errors.Is(err, store.ErrNotFound) {
		existing, err = tx.GetEdge(ctx, graphID, dstID, srcID, rel.Type)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if existing != nil {
		total := existing.EvidenceCount + evidence
		existing.Weight = (existing.Weight*float64(existing.EvidenceCount) + rel.Confidence*float64(evidence)) / float64(total)
		existing.EvidenceCount = total
		return tx.UpdateEdge(ctx, graphID, existing)
	}

	edge := common.Edge{
		SourceID:      srcID,
		TargetID:      dstID,
		Type:          rel.Type,
		Weight:        rel.Confidence,
		EvidenceCount: evidence,
	}
	if err := tx.InsertEdge(ctx, graphID, &edge); err != nil {
		return err
	}
	for _, id := range []int64{srcID, dstID} {
		n, err := tx.GetNode(ctx, graphID, id)
		if err != nil {
			return err
		}
		n.EdgeCount++
		if err := tx.UpdateNode(ctx, graphID, n); err != nil {
			return err
		}
	}
	return nil
}

func (g *GraphClient) recordIncrementalProvenance(
	ctx context.Context,
	params IncrementalParams,
	newNodes []common.Node,
	result *IncrementalResult,
) string {
	rec, err := g.prov.Record(ctx, params.GraphID, provenance.OpIncremental, "", map[string]any{
		"mentions":  len(params.Mentions),
		"new_nodes": result.NewNodes,
		"new_links": result.NewLinks,
		"skipped":   result.Skipped,
		"edges":     result.Edges,
	}, "")
	if err != nil {
		logger.Warn("[Graph] Failed to record incremental provenance", "graph_id", params.GraphID, "err", err)
		return ""
	}
	for i := range newNodes {
		_, err := g.prov.Record(ctx, params.GraphID, provenance.OpIncremental, newNodes[i].CanonicalName, map[string]any{
			"node_id": newNodes[i].ID,
			"type":    newNodes[i].Type,
		}, rec.ID)
		if err != nil {
			logger.Warn("[Graph] Failed to record node provenance",
				"graph_id", params.GraphID, "node_id", newNodes[i].ID, "err", err)
		}
	}
	return rec.ID
}

// applyLinkAggregates recomputes a node's counts from its live links.
func applyLinkAggregates(n *common.Node, links []common.Link) {
	docs := make(map[string]struct{}, len(links))
	confSum := 0.0
	for _, l := range links {
		if l.DocumentID != "" {
			docs[l.DocumentID] = struct{}{}
		}
		confSum += l.Confidence
	}
	n.DocumentCount = len(docs)
	n.MentionCount = len(links)
	if len(links) > 0 {
		n.AvgConfidence = confSum / float64(len(links))
	} else {
		n.AvgConfidence = 0
	}
}

func mentionDisplayText(m common.Mention) string {
	if m.NormalizedText != "" {
		return m.NormalizedText
	}
	return strings.TrimSpace(m.RawText)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
