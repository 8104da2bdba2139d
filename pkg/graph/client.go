package graph

import (
	"fmt"

	"github.com/caselight/backend/pkg/ai"
	"github.com/caselight/backend/pkg/classify"
	"github.com/caselight/backend/pkg/provenance"
	"github.com/caselight/backend/pkg/resolve"
	"github.com/caselight/backend/pkg/store"
)

// maxPathHopsCeiling bounds path search depth regardless of configuration.
const maxPathHopsCeiling = 4

// GraphClient is the entry point for graph construction and maintenance.
// Mutating operations (Build, Incremental, Merge, Split, DeleteDocuments)
// run as one exclusive store transaction each and must be serialized per
// graph by the caller; reads may run concurrently.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	store              store.GraphStore
	prov               provenance.Recorder
	classifier         ai.RelationClassifier
	resolveCfg         resolve.Config
	hints              classify.HintTable
	parallelAiRequests int
	maxPathHops        int
}

// NewGraphClientParams defines the configuration for a GraphClient.
//
// Store is required. Provenance defaults to an in-memory recorder.
// Classifier is the optional external fallback consulted only when the
// rule layers yield nothing. ParallelAiRequests bounds concurrent
// classifier calls.
type NewGraphClientParams struct {
	Store              store.GraphStore
	Provenance         provenance.Recorder
	Classifier         ai.RelationClassifier
	ResolveConfig      *resolve.Config
	Hints              classify.HintTable
	ParallelAiRequests int
	MaxPathHops        int
}

// NewGraphClient creates and returns a new GraphClient configured with the
// provided parameters.
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("graph client requires a store")
	}

	cfg := resolve.DefaultConfig()
	if params.ResolveConfig != nil {
		cfg = *params.ResolveConfig
	}

	prov := params.Provenance
	if prov == nil {
		prov = provenance.NewMemoryRecorder()
	}

	hints := params.Hints
	if hints == nil {
		hints = classify.DefaultHints()
	}

	parallel := params.ParallelAiRequests
	if parallel <= 0 {
		parallel = 8
	}

	maxHops := params.MaxPathHops
	if maxHops <= 0 || maxHops > maxPathHopsCeiling {
		maxHops = maxPathHopsCeiling
	}

	return &GraphClient{
		store:              params.Store,
		prov:               prov,
		classifier:         params.Classifier,
		resolveCfg:         cfg,
		hints:              hints,
		parallelAiRequests: parallel,
		maxPathHops:        maxHops,
	}, nil
}
