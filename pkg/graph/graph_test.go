package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/caselight/backend/pkg/classify"
	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/resolve"
	"github.com/caselight/backend/pkg/store/memory"
)

func newTestClient(t *testing.T) *GraphClient {
	t.Helper()
	g, err := NewGraphClient(NewGraphClientParams{Store: memory.NewMemoryStore()})
	if err != nil {
		t.Fatalf("NewGraphClient: %v", err)
	}
	return g
}

// corpusMentions is the two-document fixture used across the engine tests:
// D1 and D2 both mention John Smith, everything else is document-local.
func corpusMentions() []common.Mention {
	return []common.Mention{
		{EntityID: "e1", Type: common.TypePerson, NormalizedText: "John Smith", Confidence: 0.9, DocumentID: "D1"},
		{EntityID: "e2", Type: common.TypeOrganization, NormalizedText: "Acme Corp", Confidence: 0.9, DocumentID: "D1"},
		{EntityID: "e3", Type: common.TypeDate, NormalizedText: "2024-01-15", Confidence: 0.9, DocumentID: "D1"},
		{EntityID: "e4", Type: common.TypeLocation, NormalizedText: "New York", Confidence: 0.9, DocumentID: "D1"},
		{EntityID: "e5", Type: common.TypePerson, NormalizedText: "Jane Doe", Confidence: 0.9, DocumentID: "D2"},
		{EntityID: "e6", Type: common.TypePerson, NormalizedText: "John Smith", Confidence: 0.9, DocumentID: "D2"},
		{EntityID: "e7", Type: common.TypeCaseNumber, NormalizedText: "2024-CV-001", Confidence: 0.9, DocumentID: "D2"},
		{EntityID: "e8", Type: common.TypeDate, NormalizedText: "2024-03-01", Confidence: 0.9, DocumentID: "D2"},
	}
}

func buildCorpus(t *testing.T, g *GraphClient, graphID string) *BuildResult {
	t.Helper()
	res, err := g.Build(context.Background(), BuildParams{
		GraphID:  graphID,
		Mentions: corpusMentions(),
		Mode:     resolve.ModeExact,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res
}

func nodeByName(t *testing.T, g *GraphClient, graphID, name string) common.Node {
	t.Helper()
	nodes, err := g.store.GetNodes(context.Background(), graphID)
	if err != nil {
		t.Fatalf("GetNodes: %v", err)
	}
	for _, n := range nodes {
		if n.CanonicalName == name {
			return n
		}
	}
	t.Fatalf("node %q not found", name)
	return common.Node{}
}

func TestBuildTwoDocumentCorpus(t *testing.T) {
	g := newTestClient(t)
	res := buildCorpus(t, g, "cases")

	if res.Nodes != 7 {
		t.Errorf("nodes = %d, want 7", res.Nodes)
	}
	if res.Links != 8 {
		t.Errorf("links = %d, want 8", res.Links)
	}
	if res.Edges < 1 {
		t.Errorf("edges = %d, want >= 1", res.Edges)
	}

	smith := nodeByName(t, g, "cases", "John Smith")
	if smith.DocumentCount != 2 {
		t.Errorf("John Smith document_count = %d, want 2", smith.DocumentCount)
	}
	if smith.MentionCount != 2 {
		t.Errorf("John Smith mention_count = %d, want 2", smith.MentionCount)
	}

	if err := g.CheckEdgeCounts(context.Background(), "cases"); err != nil {
		t.Errorf("CheckEdgeCounts: %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()

	if _, err := g.Build(ctx, BuildParams{GraphID: "g", Mentions: nil}); !errors.Is(err, ErrNoInput) {
		t.Errorf("empty build err = %v, want ErrNoInput", err)
	}

	buildCorpus(t, g, "g")
	_, err := g.Build(ctx, BuildParams{GraphID: "g", Mentions: corpusMentions(), Mode: resolve.ModeExact})
	if !errors.Is(err, ErrGraphExists) {
		t.Errorf("second build err = %v, want ErrGraphExists", err)
	}

	res, err := g.Build(ctx, BuildParams{GraphID: "g", Mentions: corpusMentions(), Mode: resolve.ModeExact, Rebuild: true})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if res.Nodes != 7 {
		t.Errorf("rebuild nodes = %d, want 7", res.Nodes)
	}
}

func TestBuildRejectsMalformedMentions(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()

	missingEntity := []common.Mention{
		{EntityID: "", Type: common.TypePerson, NormalizedText: "John Smith", Confidence: 0.9, DocumentID: "D1"},
	}
	if _, err := g.Build(ctx, BuildParams{GraphID: "g", Mentions: missingEntity, Mode: resolve.ModeExact}); !errors.Is(err, ErrNoInput) {
		t.Errorf("missing entity id err = %v, want ErrNoInput", err)
	}

	missingDoc := []common.Mention{
		{EntityID: "e1", Type: common.TypePerson, NormalizedText: "John Smith", Confidence: 0.9},
	}
	if _, err := g.Build(ctx, BuildParams{GraphID: "g", Mentions: missingDoc, Mode: resolve.ModeExact}); !errors.Is(err, ErrNoInput) {
		t.Errorf("missing document id err = %v, want ErrNoInput", err)
	}

	exists, err := g.store.GraphExists(ctx, "g")
	if err != nil {
		t.Fatalf("GraphExists: %v", err)
	}
	if exists {
		t.Error("rejected build must not create a graph")
	}

	buildCorpus(t, g, "g")
	if _, err := g.Incremental(ctx, IncrementalParams{GraphID: "g", Mentions: missingEntity, Mode: resolve.ModeExact}); !errors.Is(err, ErrNoInput) {
		t.Errorf("incremental missing entity id err = %v, want ErrNoInput", err)
	}
}

// stubClassifier records the type pairs it is asked about and answers
// with a canned relation or error.
type stubClassifier struct {
	mu    sync.Mutex
	pairs []string
	rel   *classify.Relation
	err   error
}

func (s *stubClassifier) Classify(_ context.Context, typeA, typeB, _ string) (*classify.Relation, error) {
	s.mu.Lock()
	s.pairs = append(s.pairs, typeA+"|"+typeB)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.rel, nil
}

func TestBuildExternalClassifierFallback(t *testing.T) {
	stub := &stubClassifier{rel: &classify.Relation{Type: "associated_with", Confidence: 0.6}}
	g, err := NewGraphClient(NewGraphClientParams{Store: memory.NewMemoryStore(), Classifier: stub})
	if err != nil {
		t.Fatalf("NewGraphClient: %v", err)
	}
	ctx := context.Background()

	// person|organization is rule-covered; person|date and
	// organization|date have no rule and go to the classifier.
	mentions := []common.Mention{
		{EntityID: "e1", Type: common.TypePerson, NormalizedText: "John Smith", Confidence: 0.9, DocumentID: "D1"},
		{EntityID: "e2", Type: common.TypeOrganization, NormalizedText: "Acme Corp", Confidence: 0.9, DocumentID: "D1"},
		{EntityID: "e3", Type: common.TypeDate, NormalizedText: "2024-01-15", Confidence: 0.9, DocumentID: "D1"},
	}
	if _, err := g.Build(ctx, BuildParams{GraphID: "g", Mentions: mentions, Mode: resolve.ModeExact}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(stub.pairs) != 2 {
		t.Fatalf("classifier calls = %d (%v), want 2", len(stub.pairs), stub.pairs)
	}
	for _, p := range stub.pairs {
		if p == "person|organization" || p == "organization|person" {
			t.Errorf("rule-covered pair %q must not reach the classifier", p)
		}
	}

	edges, err := g.store.GetEdges(ctx, "g")
	if err != nil {
		t.Fatalf("GetEdges: %v", err)
	}
	byType := map[string]int{}
	for _, e := range edges {
		byType[e.Type]++
	}
	if byType[classify.RelWorksAt] != 1 {
		t.Errorf("works_at edges = %d, want 1", byType[classify.RelWorksAt])
	}
	if byType["associated_with"] != 2 {
		t.Errorf("classifier-backed edges = %d, want 2", byType["associated_with"])
	}
}

func TestBuildExternalClassifierErrorFailsBuild(t *testing.T) {
	stub := &stubClassifier{err: errors.New("model unavailable")}
	g, err := NewGraphClient(NewGraphClientParams{Store: memory.NewMemoryStore(), Classifier: stub})
	if err != nil {
		t.Fatalf("NewGraphClient: %v", err)
	}
	ctx := context.Background()

	mentions := []common.Mention{
		{EntityID: "e1", Type: common.TypePerson, NormalizedText: "John Smith", Confidence: 0.9, DocumentID: "D1"},
		{EntityID: "e3", Type: common.TypeDate, NormalizedText: "2024-01-15", Confidence: 0.9, DocumentID: "D1"},
	}
	if _, err := g.Build(ctx, BuildParams{GraphID: "g", Mentions: mentions, Mode: resolve.ModeExact}); err == nil {
		t.Fatal("build must fail when the classifier errors")
	}

	exists, err := g.store.GraphExists(ctx, "g")
	if err != nil {
		t.Fatalf("GraphExists: %v", err)
	}
	if exists {
		t.Error("failed build must not persist a graph")
	}
}

func d2Mentions() []common.Mention {
	all := corpusMentions()
	return all[4:]
}

func TestIncrementalResolvesAgainstExisting(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()

	_, err := g.Build(ctx, BuildParams{GraphID: "inc", Mentions: corpusMentions()[:4], Mode: resolve.ModeExact})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	res, err := g.Incremental(ctx, IncrementalParams{GraphID: "inc", Mentions: d2Mentions(), Mode: resolve.ModeExact})
	if err != nil {
		t.Fatalf("Incremental: %v", err)
	}
	if res.NewNodes != 3 {
		t.Errorf("new nodes = %d, want 3", res.NewNodes)
	}
	if res.NewLinks != 4 {
		t.Errorf("new links = %d, want 4", res.NewLinks)
	}

	smith := nodeByName(t, g, "inc", "John Smith")
	if smith.DocumentCount != 2 || smith.MentionCount != 2 {
		t.Errorf("John Smith counts = (%d docs, %d mentions), want (2, 2)",
			smith.DocumentCount, smith.MentionCount)
	}

	if err := g.CheckEdgeCounts(ctx, "inc"); err != nil {
		t.Errorf("CheckEdgeCounts: %v", err)
	}
}

func TestIncrementalIdempotent(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()

	_, err := g.Build(ctx, BuildParams{GraphID: "inc", Mentions: corpusMentions()[:4], Mode: resolve.ModeExact})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := g.Incremental(ctx, IncrementalParams{GraphID: "inc", Mentions: d2Mentions(), Mode: resolve.ModeExact}); err != nil {
		t.Fatalf("first Incremental: %v", err)
	}

	before, err := g.Stats(ctx, "inc")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	res, err := g.Incremental(ctx, IncrementalParams{GraphID: "inc", Mentions: d2Mentions(), Mode: resolve.ModeExact})
	if err != nil {
		t.Fatalf("second Incremental: %v", err)
	}
	if res.Skipped != 4 {
		t.Errorf("skipped = %d, want 4", res.Skipped)
	}
	if res.NewNodes != 0 || res.NewLinks != 0 {
		t.Errorf("second run created nodes=%d links=%d, want 0/0", res.NewNodes, res.NewLinks)
	}

	after, err := g.Stats(ctx, "inc")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if before.NodeCount != after.NodeCount || before.LinkCount != after.LinkCount || before.EdgeCount != after.EdgeCount {
		t.Errorf("counts changed on re-run: before %+v, after %+v", before, after)
	}
}

func TestIncrementalUnknownGraph(t *testing.T) {
	g := newTestClient(t)
	_, err := g.Incremental(context.Background(), IncrementalParams{GraphID: "missing", Mentions: d2Mentions()})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMergeRequiresConfirm(t *testing.T) {
	g := newTestClient(t)
	buildCorpus(t, g, "m")

	jane := nodeByName(t, g, "m", "Jane Doe")
	smith := nodeByName(t, g, "m", "John Smith")

	if err := g.Merge(context.Background(), "m", jane.ID, smith.ID, false); !errors.Is(err, ErrConfirmRequired) {
		t.Errorf("err = %v, want ErrConfirmRequired", err)
	}
	if err := g.Merge(context.Background(), "m", smith.ID, smith.ID, true); !errors.Is(err, ErrSameNode) {
		t.Errorf("err = %v, want ErrSameNode", err)
	}
	if err := g.Merge(context.Background(), "m", 99999, smith.ID, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMergeSplitConservesCounts(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()
	buildCorpus(t, g, "ms")

	jane := nodeByName(t, g, "ms", "Jane Doe")
	smith := nodeByName(t, g, "ms", "John Smith")
	preDocs := jane.DocumentCount + smith.DocumentCount
	preMentions := jane.MentionCount + smith.MentionCount

	if err := g.Merge(ctx, "ms", jane.ID, smith.ID, true); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	merged, err := g.store.GetNode(ctx, "ms", smith.ID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	// Jane and Smith share D2, so the distinct union is 2, not 3.
	if merged.DocumentCount != 2 {
		t.Errorf("merged document_count = %d, want 2", merged.DocumentCount)
	}
	if merged.MentionCount != 3 {
		t.Errorf("merged mention_count = %d, want 3", merged.MentionCount)
	}
	if !containsFold(merged.Aliases, "Jane Doe") {
		t.Errorf("merged aliases = %v, want to contain Jane Doe", merged.Aliases)
	}
	if err := g.CheckEdgeCounts(ctx, "ms"); err != nil {
		t.Errorf("CheckEdgeCounts after merge: %v", err)
	}

	newID, err := g.Split(ctx, "ms", smith.ID, []string{"e5"}, "Jane Doe")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	orig, err := g.store.GetNode(ctx, "ms", smith.ID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	split, err := g.store.GetNode(ctx, "ms", newID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}

	if got := orig.DocumentCount + split.DocumentCount; got != preDocs {
		t.Errorf("summed document_count = %d, want %d", got, preDocs)
	}
	if got := orig.MentionCount + split.MentionCount; got != preMentions {
		t.Errorf("summed mention_count = %d, want %d", got, preMentions)
	}
	if err := g.CheckEdgeCounts(ctx, "ms"); err != nil {
		t.Errorf("CheckEdgeCounts after split: %v", err)
	}
}

func TestSplitErrors(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()
	buildCorpus(t, g, "s")
	smith := nodeByName(t, g, "s", "John Smith")

	if _, err := g.Split(ctx, "s", smith.ID, nil, ""); !errors.Is(err, ErrEmptySplit) {
		t.Errorf("empty set err = %v, want ErrEmptySplit", err)
	}
	if _, err := g.Split(ctx, "s", smith.ID, []string{"nope"}, ""); !errors.Is(err, ErrEmptySplit) {
		t.Errorf("no matching links err = %v, want ErrEmptySplit", err)
	}
	if _, err := g.Split(ctx, "s", smith.ID, []string{"e1", "e6"}, ""); !errors.Is(err, ErrEmptySplit) {
		t.Errorf("covering split err = %v, want ErrEmptySplit", err)
	}
}

func TestFindPaths(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()
	buildCorpus(t, g, "p")

	// Direct edge: John Smith located_in New York.
	res, err := g.FindPaths(ctx, "p", "John Smith", "New York", 4)
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if len(res.Paths) == 0 {
		t.Fatal("no path between John Smith and New York")
	}
	if res.Paths[0].Hops() != 1 {
		t.Errorf("shortest path hops = %d, want 1", res.Paths[0].Hops())
	}

	// Multi-hop: Jane Doe -> 2024-CV-001 -> John Smith -> Acme Corp.
	res, err = g.FindPaths(ctx, "p", "Jane Doe", "Acme Corp", 4)
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if len(res.Paths) == 0 {
		t.Fatal("no path between Jane Doe and Acme Corp")
	}
	for _, p := range res.Paths {
		if p.Hops() > 4 {
			t.Errorf("path exceeds hop bound: %d", p.Hops())
		}
		if len(p.Nodes) != p.Hops()+1 {
			t.Errorf("path has %d nodes for %d hops", len(p.Nodes), p.Hops())
		}
	}

	// Tight bound cuts the multi-hop route off.
	res, err = g.FindPaths(ctx, "p", "Jane Doe", "Acme Corp", 1)
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if len(res.Paths) != 0 {
		t.Errorf("paths within 1 hop = %d, want 0", len(res.Paths))
	}
}

func TestFindPathsUnresolvedName(t *testing.T) {
	g := newTestClient(t)
	buildCorpus(t, g, "p")

	res, err := g.FindPaths(context.Background(), "p", "Nobody Here", "John Smith", 4)
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if res.Source != nil {
		t.Errorf("source resolved to %v, want nil", res.Source)
	}
	if len(res.Paths) != 0 {
		t.Errorf("paths = %d, want 0", len(res.Paths))
	}
}

func TestDeleteDocumentsCascades(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()
	buildCorpus(t, g, "d")

	res, err := g.DeleteDocuments(ctx, "d", []string{"D1"})
	if err != nil {
		t.Fatalf("DeleteDocuments: %v", err)
	}
	if res.LinksRemoved != 4 {
		t.Errorf("links removed = %d, want 4", res.LinksRemoved)
	}
	if res.NodesRemoved != 3 {
		t.Errorf("nodes removed = %d, want 3 (Acme Corp, 2024-01-15, New York)", res.NodesRemoved)
	}

	nodes, err := g.store.GetNodes(ctx, "d")
	if err != nil {
		t.Fatalf("GetNodes: %v", err)
	}
	for _, n := range nodes {
		switch n.CanonicalName {
		case "Acme Corp", "New York", "2024-01-15":
			t.Errorf("single-document node %q survived the delete", n.CanonicalName)
		}
	}

	smith := nodeByName(t, g, "d", "John Smith")
	if smith.DocumentCount != 1 {
		t.Errorf("John Smith document_count = %d, want 1", smith.DocumentCount)
	}

	if err := g.CheckEdgeCounts(ctx, "d"); err != nil {
		t.Errorf("CheckEdgeCounts: %v", err)
	}
}

func TestDeleteDocumentsNoInput(t *testing.T) {
	g := newTestClient(t)
	if _, err := g.DeleteDocuments(context.Background(), "d", nil); !errors.Is(err, ErrNoInput) {
		t.Errorf("err = %v, want ErrNoInput", err)
	}
}

func TestExportAdjacency(t *testing.T) {
	g := newTestClient(t)
	ctx := context.Background()
	buildCorpus(t, g, "x")

	export, err := g.Export(ctx, "x")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(export.Nodes) != 7 {
		t.Errorf("exported nodes = %d, want 7", len(export.Nodes))
	}
	if len(export.Adjacency) != len(export.Nodes) {
		t.Errorf("adjacency entries = %d, want %d", len(export.Adjacency), len(export.Nodes))
	}

	// Every edge id appears on both endpoints.
	for _, e := range export.Edges {
		for _, end := range []int64{e.SourceID, e.TargetID} {
			found := false
			for _, id := range export.Adjacency[end] {
				if id == e.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("edge %d missing from adjacency of node %d", e.ID, end)
			}
		}
	}
}
