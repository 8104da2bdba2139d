package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/store"
)

func seedGraph(t *testing.T, s *MemoryStore, graphID string) (int64, int64) {
	t.Helper()
	ctx := context.Background()

	a := common.Node{Type: "person", CanonicalName: "John Smith"}
	b := common.Node{Type: "organization", CanonicalName: "Acme Corp"}
	if err := s.InsertNode(ctx, graphID, &a); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertNode(ctx, graphID, &b); err != nil {
		t.Fatal(err)
	}

	link := common.Link{NodeID: a.ID, EntityID: "e1", DocumentID: "D1", ResolutionMethod: "exact", Confidence: 0.9}
	if err := s.InsertLink(ctx, graphID, &link); err != nil {
		t.Fatal(err)
	}

	edge := common.Edge{SourceID: a.ID, TargetID: b.ID, Type: "works_at", Weight: 0.8, EvidenceCount: 1}
	if err := s.InsertEdge(ctx, graphID, &edge); err != nil {
		t.Fatal(err)
	}

	return a.ID, b.ID
}

func TestRunInTxRollback(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	aID, _ := seedGraph(t, s, "g1")

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(tx store.Store) error {
		n := common.Node{Type: "date", CanonicalName: "2024-01-15"}
		if err := tx.InsertNode(ctx, "g1", &n); err != nil {
			return err
		}
		if err := tx.DeleteNode(ctx, "g1", aID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx error = %v, want %v", err, boom)
	}

	nodes, err := s.GetNodes(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes after rollback, want 2", len(nodes))
	}
	if _, err := s.GetNode(ctx, "g1", aID); err != nil {
		t.Fatalf("deleted node not restored: %v", err)
	}
}

func TestRunInTxCommit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedGraph(t, s, "g1")

	err := s.RunInTx(ctx, func(tx store.Store) error {
		n := common.Node{Type: "location", CanonicalName: "New York"}
		return tx.InsertNode(ctx, "g1", &n)
	})
	if err != nil {
		t.Fatal(err)
	}

	nodes, err := s.GetNodes(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes after commit, want 3", len(nodes))
	}
}

func TestDeleteNodeCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	aID, bID := seedGraph(t, s, "g1")

	if err := s.DeleteNode(ctx, "g1", aID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetLinkByEntity(ctx, "g1", "e1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("link survived node delete, err = %v", err)
	}
	edges, err := s.GetEdgesByNode(ctx, "g1", bID)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 0 {
		t.Fatalf("got %d edges after cascade, want 0", len(edges))
	}
}

func TestInsertEdgeRejectsSelfLoop(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	aID, _ := seedGraph(t, s, "g1")

	edge := common.Edge{SourceID: aID, TargetID: aID, Type: "related_to", Weight: 0.5, EvidenceCount: 1}
	if err := s.InsertEdge(ctx, "g1", &edge); err == nil {
		t.Fatal("expected self-loop insert to fail")
	}
}

func TestDeleteGraphIsolatesGraphs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedGraph(t, s, "g1")
	seedGraph(t, s, "g2")

	if err := s.DeleteGraph(ctx, "g1"); err != nil {
		t.Fatal(err)
	}

	exists, err := s.GraphExists(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("g1 still exists after delete")
	}

	stats, err := s.Counts(ctx, "g2")
	if err != nil {
		t.Fatal(err)
	}
	if stats.NodeCount != 2 || stats.EdgeCount != 1 || stats.LinkCount != 1 {
		t.Fatalf("g2 counts changed: %+v", stats)
	}
}
