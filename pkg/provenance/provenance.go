// Package provenance records how graph state came to be: one record per
// mutating operation, optionally chained to the record it supersedes so a
// node's history stays reconstructable across merges and splits.
package provenance

import (
	"context"
	"encoding/json"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Operations recorded by the graph engine.
const (
	OpBuild       = "build"
	OpIncremental = "incremental"
	OpMerge       = "merge"
	OpSplit       = "split"
	OpDelete      = "delete"
)

// Record is one provenance entry. Payload holds operation-specific detail
// (merged node ids, entity assignments, affected documents).
type Record struct {
	ID        string          `json:"id"`
	GraphID   string          `json:"graph_id"`
	Operation string          `json:"operation"`
	Subject   string          `json:"subject,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ParentID  string          `json:"parent_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Recorder persists provenance records. Implementations must tolerate being
// called inside and outside store transactions.
type Recorder interface {
	// Record persists a new entry and returns it with ID and CreatedAt set.
	Record(ctx context.Context, graphID, operation, subject string, payload any, parentID string) (*Record, error)
	// Chain returns the records for a graph, oldest first.
	Chain(ctx context.Context, graphID string) ([]Record, error)
	// Lineage follows parent links from the given record back to its root
	// and returns the chain root first.
	Lineage(ctx context.Context, id string) ([]Record, error)
}

func newRecord(graphID, operation, subject string, payload any, parentID string) (*Record, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage("{}")
	if payload != nil {
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Record{
		ID:        id,
		GraphID:   graphID,
		Operation: operation,
		Subject:   subject,
		Payload:   raw,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}, nil
}
