package store

import (
	"context"
	"errors"

	"github.com/caselight/backend/pkg/common"
)

// ErrNotFound is returned by Get* methods when the row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the read/write contract the graph engine uses against the
// persistence layer. Rows are validated here, at the boundary; the engine
// above works with the common types directly.
type Store interface {
	// Nodes. InsertNode assigns Node.ID.
	InsertNode(ctx context.Context, graphID string, n *common.Node) error
	GetNode(ctx context.Context, graphID string, id int64) (*common.Node, error)
	GetNodes(ctx context.Context, graphID string) ([]common.Node, error)
	UpdateNode(ctx context.Context, graphID string, n *common.Node) error
	DeleteNode(ctx context.Context, graphID string, id int64) error
	// SearchNodes performs free-text search over canonical names and
	// aliases, best matches first.
	SearchNodes(ctx context.Context, graphID string, query string, limit int) ([]common.Node, error)

	// Links. InsertLink assigns Link.ID.
	InsertLink(ctx context.Context, graphID string, l *common.Link) error
	GetLinks(ctx context.Context, graphID string) ([]common.Link, error)
	GetLinksByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Link, error)
	GetLinksByDocument(ctx context.Context, graphID string, documentID string) ([]common.Link, error)
	GetLinkByEntity(ctx context.Context, graphID string, entityID string) (*common.Link, error)
	UpdateLink(ctx context.Context, graphID string, l *common.Link) error
	DeleteLink(ctx context.Context, graphID string, id int64) error

	// Edges. InsertEdge assigns Edge.ID.
	InsertEdge(ctx context.Context, graphID string, e *common.Edge) error
	GetEdge(ctx context.Context, graphID string, sourceID, targetID int64, edgeType string) (*common.Edge, error)
	GetEdges(ctx context.Context, graphID string) ([]common.Edge, error)
	GetEdgesByNode(ctx context.Context, graphID string, nodeID int64) ([]common.Edge, error)
	UpdateEdge(ctx context.Context, graphID string, e *common.Edge) error
	DeleteEdge(ctx context.Context, graphID string, id int64) error
	CountEdgesByNode(ctx context.Context, graphID string, nodeID int64) (int, error)

	// Graph-level queries.
	GraphExists(ctx context.Context, graphID string) (bool, error)
	DeleteGraph(ctx context.Context, graphID string) error
	Counts(ctx context.Context, graphID string) (common.GraphStats, error)
}

// GraphStore adds the single-writer transaction boundary. RunInTx runs fn
// against a transactional Store view: either every write fn performed
// commits, or none does. Mutating operations on the same graph must not
// interleave; callers serialize them.
type GraphStore interface {
	Store
	RunInTx(ctx context.Context, fn func(tx Store) error) error
}
