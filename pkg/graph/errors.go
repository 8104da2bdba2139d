package graph

import (
	"errors"

	"github.com/caselight/backend/pkg/store"
)

var (
	// ErrNoInput is returned when a mutating operation receives no
	// documents, mentions, or ids to act on.
	ErrNoInput = errors.New("no input")

	// ErrGraphExists is returned by a full build against an existing graph
	// without the rebuild flag.
	ErrGraphExists = errors.New("graph already exists")

	// ErrNotFound mirrors the store sentinel so callers only need to check
	// against the graph package.
	ErrNotFound = store.ErrNotFound

	// ErrConfirmRequired is returned by Merge without the confirmation flag.
	ErrConfirmRequired = errors.New("merge requires confirmation")

	// ErrSameNode is returned when a merge names the same node twice.
	ErrSameNode = errors.New("merge source and target are the same node")

	// ErrEmptySplit is returned when a split set is empty, matches nothing,
	// or covers every link of the node.
	ErrEmptySplit = errors.New("split set is empty or covers all links")

	// ErrIntegrity indicates a stored edge_count no longer matches the live
	// edge set. It is surfaced, never repaired.
	ErrIntegrity = errors.New("edge count integrity violation")
)
