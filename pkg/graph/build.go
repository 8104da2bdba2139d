package graph

import (
	"context"
	"fmt"
	"sort"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/caselight/backend/pkg/classify"
	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/provenance"
	"github.com/caselight/backend/pkg/resolve"
	"github.com/caselight/backend/pkg/store"
)

// BuildParams configures a full graph build.
//
// ClusterLabel is the upstream document-cluster label consulted by the
// hint table. Rebuild tears down an existing graph before building.
type BuildParams struct {
	GraphID      string
	Mentions     []common.Mention
	Mode         resolve.Mode
	ClusterLabel string
	Rebuild      bool
}

// BuildResult summarizes what a build persisted.
type BuildResult struct {
	GraphID      string `json:"graph_id"`
	Nodes        int    `json:"nodes"`
	Links        int    `json:"links"`
	Edges        int    `json:"edges"`
	ProvenanceID string `json:"provenance_id,omitempty"`
}

// nodePlan is one node to be created, assembled from resolution decisions
// before anything is persisted.
type nodePlan struct {
	node    common.Node
	links   []common.Link
	docs    map[string]struct{}
	batches map[string]struct{}
	confSum float64
}

// edgePlan is one edge to be created, endpoints as plan indexes.
type edgePlan struct {
	src, dst int
	relation classify.Relation
	docs     []string
}

// Build constructs a graph from scratch: resolve mentions into a node set,
// classify co-occurring pairs, persist everything in one transaction.
// Returns ErrGraphExists when a graph is present and Rebuild is false,
// ErrNoInput when there is nothing to build from.
func (g *GraphClient) Build(ctx context.Context, params BuildParams) (*BuildResult, error) {
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
	if exists && !params.Rebuild {
		return nil, ErrGraphExists
	}

	logger.Info("[Graph] Starting full build",
		"graph_id", params.GraphID, "mentions", len(params.Mentions), "mode", string(params.Mode))

	res := resolve.Resolve(params.Mentions, nil, params.Mode, g.resolveCfg)
	plans := assemblePlans(res)
	pairs := coOccurringPairs(plans)

	types := make([]string, len(plans))
	for i := range plans {
		types[i] = plans[i].node.Type
	}
	relations, err := g.classifyPairs(ctx, params.ClusterLabel, types, pairs)
	if err != nil {
		return nil, err
	}

	edges := make([]edgePlan, 0, len(pairs))
	edgeCounts := make([]int, len(plans))
	for i, rel := range relations {
		if rel == nil {
			continue
		}
		p := pairs[i]
		src, dst := orient(p.A, p.B, types[p.A], types[p.B])
		edges = append(edges, edgePlan{src: src, dst: dst, relation: *rel, docs: p.Docs})
		edgeCounts[src]++
		edgeCounts[dst]++
	}

	nodeIDs := make([]int64, len(plans))
	linkCount := 0
	err = g.store.RunInTx(ctx, func(tx store.Store) error {
		if params.Rebuild {
			if err := tx.DeleteGraph(ctx, params.GraphID); err != nil {
				return fmt.Errorf("rebuild teardown: %w", err)
			}
		}

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
			n.EdgeCount = edgeCounts[i]
			if err := tx.InsertNode(ctx, params.GraphID, &n); err != nil {
				return err
			}
			nodeIDs[i] = n.ID

			for _, l := range plans[i].links {
				l.NodeID = n.ID
				if err := tx.InsertLink(ctx, params.GraphID, &l); err != nil {
					return err
				}
				linkCount++
			}
		}

		for _, e := range edges {
			edge := common.Edge{
				SourceID:      nodeIDs[e.src],
				TargetID:      nodeIDs[e.dst],
				Type:          e.relation.Type,
				Weight:        e.relation.Confidence,
				EvidenceCount: len(e.docs),
			}
			if err := tx.InsertEdge(ctx, params.GraphID, &edge); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", params.GraphID, err)
	}

	result := &BuildResult{
		GraphID: params.GraphID,
		Nodes:   len(plans),
		Links:   linkCount,
		Edges:   len(edges),
	}
	result.ProvenanceID = g.recordBuildProvenance(ctx, params, plans, nodeIDs, result)

	logger.Info("[Graph] Full build finished",
		"graph_id", params.GraphID, "nodes", result.Nodes, "links", result.Links, "edges", result.Edges)
	return result, nil
}

// recordBuildProvenance emits the build record and one chained record per
// node. Provenance failures are logged, not fatal: the graph is already
// committed.
func (g *GraphClient) recordBuildProvenance(
	ctx context.Context,
	params BuildParams,
	plans []nodePlan,
	nodeIDs []int64,
	result *BuildResult,
) string {
	rec, err := g.prov.Record(ctx, params.GraphID, provenance.OpBuild, "", map[string]any{
		"mentions": len(params.Mentions),
		"nodes":    result.Nodes,
		"links":    result.Links,
		"edges":    result.Edges,
		"rebuild":  params.Rebuild,
	}, "")
	if err != nil {
		logger.Warn("[Graph] Failed to record build provenance", "graph_id", params.GraphID, "err", err)
		return ""
	}

	for i := range plans {
		_, err := g.prov.Record(ctx, params.GraphID, provenance.OpBuild, plans[i].node.CanonicalName, map[string]any{
			"node_id":   nodeIDs[i],
			"type":      plans[i].node.Type,
			"documents": sortedDocs(plans[i].docs),
		}, rec.ID)
		if err != nil {
			logger.Warn("[Graph] Failed to record node provenance",
				"graph_id", params.GraphID, "node_id", nodeIDs[i], "err", err)
		}
	}
	return rec.ID
}

// assemblePlans groups resolution decisions by their pending node.
func assemblePlans(res resolve.Result) []nodePlan {
	plans := make([]nodePlan, len(res.Pending))
	for i, p := range res.Pending {
		plans[i] = nodePlan{
			node: common.Node{
				Type:          p.Type,
				CanonicalName: p.CanonicalName,
				Aliases:       p.Aliases,
			},
			docs:    make(map[string]struct{}),
			batches: make(map[string]struct{}),
		}
	}

	for _, d := range res.Decisions {
		if d.Pending < 0 {
			continue
		}
		pl := &plans[d.Pending]
		pl.links = append(pl.links, common.Link{
			EntityID:         d.Mention.EntityID,
			DocumentID:       d.Mention.DocumentID,
			ResolutionMethod: d.Method,
			Similarity:       d.Similarity,
			Confidence:       d.Mention.Confidence,
		})
		pl.docs[d.Mention.DocumentID] = struct{}{}
		if d.Mention.SchemaBatch != "" {
			pl.batches[d.Mention.SchemaBatch] = struct{}{}
		}
		pl.confSum += d.Mention.Confidence
	}
	return plans
}

// coOccurringPairs finds every node pair sharing at least one document.
func coOccurringPairs(plans []nodePlan) []pairCandidate {
	type agg struct {
		docs map[string]struct{}
	}
	pairDocs := make(map[[2]int]*agg)

	docNodes := make(map[string][]int)
	for i := range plans {
		for doc := range plans[i].docs {
			docNodes[doc] = append(docNodes[doc], i)
		}
	}

	for doc, nodes := range docNodes {
		sort.Ints(nodes)
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				key := [2]int{nodes[i], nodes[j]}
				a, ok := pairDocs[key]
				if !ok {
					a = &agg{docs: make(map[string]struct{})}
					pairDocs[key] = a
				}
				a.docs[doc] = struct{}{}
			}
		}
	}

	keys := make([][2]int, 0, len(pairDocs))
	for k := range pairDocs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	pairs := make([]pairCandidate, 0, len(keys))
	for _, k := range keys {
		a, b := k[0], k[1]
		docs := sortedDocs(pairDocs[k].docs)
		pairs = append(pairs, pairCandidate{
			A:           a,
			B:           b,
			Docs:        docs,
			SchemaBatch: sharedBatch(plans[a].batches, plans[b].batches),
			Snippet: fmt.Sprintf("%s (%s) and %s (%s) appear together in %d document(s)",
				plans[a].node.CanonicalName, plans[a].node.Type,
				plans[b].node.CanonicalName, plans[b].node.Type, len(docs)),
		})
	}
	return pairs
}

// validateMentions rejects malformed mentions before any store access, so
// a bad payload surfaces as ErrNoInput instead of a mid-transaction failure.
func validateMentions(mentions []common.Mention) error {
	for i, m := range mentions {
		if m.EntityID == "" {
			return fmt.Errorf("%w: mention %d has no entity id", ErrNoInput, i)
		}
		if m.DocumentID == "" {
			return fmt.Errorf("%w: mention %s has no document id", ErrNoInput, m.EntityID)
		}
	}
	return nil
}

// sharedBatch returns the lexically first extraction batch both sides
// belong to, or empty when they share none.
func sharedBatch(a, b map[string]struct{}) string {
	var shared []string
	for batch := range a {
		if _, ok := b[batch]; ok {
			shared = append(shared, batch)
		}
	}
	if len(shared) == 0 {
		return ""
	}
	sort.Strings(shared)
	return shared[0]
}
