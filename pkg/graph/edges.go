package graph

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/caselight/backend/pkg/classify"
	"github.com/caselight/backend/pkg/logger"
)

// pairCandidate is one co-occurring node pair awaiting classification.
// A and B index into the caller's node slice, A < B.
type pairCandidate struct {
	A, B        int
	Docs        []string
	SchemaBatch string
	Snippet     string
}

// typeRank orders entity types so classified edges get a stable direction
// (person works_at organization, statute cites case_number, ...). Unknown
// types sort last; ties fall back to node order.
var typeRank = map[string]int{
	"person":       0,
	"organization": 1,
	"statute":      2,
	"case_number":  3,
	"date":         4,
	"location":     5,
	"amount":       6,
}

func rankOf(typ string) int {
	if r, ok := typeRank[typ]; ok {
		return r
	}
	return len(typeRank)
}

// orient returns the pair ordered source-first for edge direction.
func orient(a, b int, typeA, typeB string) (int, int) {
	if rankOf(typeB) < rankOf(typeA) {
		return b, a
	}
	return a, b
}

// classifyPairs decides a relation for every pair candidate, applying the
// override precedence: extraction-schema batch, cluster hint, rule matrix,
// then the optional external classifier for pairs the rules left open.
// External calls fan out with bounded concurrency; a classifier error
// fails the whole operation. Entries stay nil when nothing applies.
func (g *GraphClient) classifyPairs(
	ctx context.Context,
	clusterLabel string,
	types []string,
	pairs []pairCandidate,
) ([]*classify.Relation, error) {
	relations := make([]*classify.Relation, len(pairs))
	var open []int

	for i, p := range pairs {
		typeA, typeB := types[p.A], types[p.B]

		if p.SchemaBatch != "" {
			relations[i] = classify.BySchema(typeA, typeB, p.SchemaBatch, p.SchemaBatch)
		}
		if relations[i] == nil {
			relations[i] = g.hints.ByClusterHint(clusterLabel, typeA, typeB)
		}
		if relations[i] == nil {
			relations[i] = classify.ByRules(typeA, typeB)
		}
		if relations[i] == nil && g.classifier != nil {
			open = append(open, i)
		}
	}

	if len(open) == 0 {
		return relations, nil
	}

	logger.Debug("[Graph] Classifying open pairs externally", "pairs", len(open))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelAiRequests)
	for _, idx := range open {
		eg.Go(func() error {
			p := pairs[idx]
			rel, err := g.classifier.Classify(egCtx, types[p.A], types[p.B], p.Snippet)
			if err != nil {
				return fmt.Errorf("external classify: %w", err)
			}
			relations[idx] = rel
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return relations, nil
}

// sortedDocs returns the keys of a document set in stable order.
func sortedDocs(set map[string]struct{}) []string {
	docs := make([]string, 0, len(set))
	for d := range set {
		docs = append(docs, d)
	}
	sort.Strings(docs)
	return docs
}
