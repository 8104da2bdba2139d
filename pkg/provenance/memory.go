package provenance

import (
	"context"
	"sync"
)

// MemoryRecorder keeps records in memory, for tests and single-process use.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(ctx context.Context, graphID, operation, subject string, payload any, parentID string) (*Record, error) {
	rec, err := newRecord(graphID, operation, subject, payload, parentID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return rec, nil
}

func (r *MemoryRecorder) Chain(ctx context.Context, graphID string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0)
	for _, rec := range r.records {
		if rec.GraphID == graphID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryRecorder) Lineage(ctx context.Context, id string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[string]Record, len(r.records))
	for _, rec := range r.records {
		byID[rec.ID] = rec
	}

	chain := make([]Record, 0)
	for cur := id; cur != ""; {
		rec, ok := byID[cur]
		if !ok {
			break
		}
		chain = append([]Record{rec}, chain...)
		cur = rec.ParentID
	}
	return chain, nil
}

var _ Recorder = (*MemoryRecorder)(nil)
