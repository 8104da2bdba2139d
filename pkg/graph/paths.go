package graph

import (
	"context"
	"fmt"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/resolve"
)

// PathResult carries all shortest paths between two resolved nodes. Source
// and Target stay nil when a name could not be resolved; that is not an
// error.
type PathResult struct {
	Source *common.Node  `json:"source,omitempty"`
	Target *common.Node  `json:"target,omitempty"`
	Paths  []common.Path `json:"paths"`
}

// FindPaths resolves both names (exact, then alias, then fuzzy) and runs a
// breadth-first search over the edge set, treated as undirected, bounded
// by maxHops (default and ceiling 4). All shortest paths within the bound
// are returned as ordered node+edge sequences. Unresolvable names or no
// path produce an empty result, never an error.
func (g *GraphClient) FindPaths(ctx context.Context, graphID, sourceName, targetName string, maxHops int) (*PathResult, error) {
	if maxHops <= 0 || maxHops > g.maxPathHops {
		maxHops = g.maxPathHops
	}

	nodes, err := g.store.GetNodes(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}

	result := &PathResult{Paths: []common.Path{}}
	result.Source = resolve.MatchName(sourceName, nodes, g.resolveCfg)
	result.Target = resolve.MatchName(targetName, nodes, g.resolveCfg)
	if result.Source == nil || result.Target == nil {
		logger.Debug("[Graph] Path endpoint unresolved",
			"graph_id", graphID, "source", sourceName, "target", targetName)
		return result, nil
	}
	if result.Source.ID == result.Target.ID {
		result.Paths = append(result.Paths, common.Path{Nodes: []common.Node{*result.Source}})
		return result, nil
	}

	edges, err := g.store.GetEdges(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}

	nodeByID := make(map[int64]common.Node, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}

	// Arena-indexed adjacency: node id -> indexes into the edge slice.
	adjacency := make(map[int64][]int)
	for i, e := range edges {
		adjacency[e.SourceID] = append(adjacency[e.SourceID], i)
		adjacency[e.TargetID] = append(adjacency[e.TargetID], i)
	}

	result.Paths = shortestPaths(result.Source.ID, result.Target.ID, maxHops, edges, adjacency, nodeByID)
	return result, nil
}

// predecessor is one way of reaching a node on a shortest path.
type predecessor struct {
	nodeID  int64
	edgeIdx int
}

// shortestPaths runs a level-by-level BFS recording every predecessor on a
// shortest path, then unwinds all of them from the target.
func shortestPaths(
	sourceID, targetID int64,
	maxHops int,
	edges []common.Edge,
	adjacency map[int64][]int,
	nodeByID map[int64]common.Node,
) []common.Path {
	dist := map[int64]int{sourceID: 0}
	preds := make(map[int64][]predecessor)
	frontier := []int64{sourceID}

	found := false
	for depth := 0; depth < maxHops && len(frontier) > 0 && !found; depth++ {
		var next []int64
		for _, id := range frontier {
			for _, idx := range adjacency[id] {
				e := edges[idx]
				other := e.SourceID
				if other == id {
					other = e.TargetID
				}
				d, seen := dist[other]
				if !seen {
					dist[other] = depth + 1
					preds[other] = []predecessor{{nodeID: id, edgeIdx: idx}}
					next = append(next, other)
				} else if d == depth+1 {
					preds[other] = append(preds[other], predecessor{nodeID: id, edgeIdx: idx})
				}
				if other == targetID {
					found = true
				}
			}
		}
		frontier = next
	}
	if _, ok := dist[targetID]; !ok {
		return []common.Path{}
	}

	// Unwind target -> source along predecessor links.
	paths := []common.Path{}
	var walk func(id int64, nodeTrail []common.Node, edgeTrail []common.Edge)
	walk = func(id int64, nodeTrail []common.Node, edgeTrail []common.Edge) {
		if id == sourceID {
			p := common.Path{
				Nodes: make([]common.Node, 0, len(nodeTrail)+1),
				Edges: make([]common.Edge, 0, len(edgeTrail)),
			}
			p.Nodes = append(p.Nodes, nodeByID[sourceID])
			for i := len(nodeTrail) - 1; i >= 0; i-- {
				p.Nodes = append(p.Nodes, nodeTrail[i])
				p.Edges = append(p.Edges, edgeTrail[i])
			}
			paths = append(paths, p)
			return
		}
		for _, pr := range preds[id] {
			nt := append(append([]common.Node{}, nodeTrail...), nodeByID[id])
			et := append(append([]common.Edge{}, edgeTrail...), edges[pr.edgeIdx])
			walk(pr.nodeID, nt, et)
		}
	}
	walk(targetID, nil, nil)
	return paths
}
