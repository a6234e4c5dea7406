// Package driver provides the graph store collaborators the engine
// writes through. The write API is merge-based throughout: repeated runs
// against unchanged source data create no duplicate nodes or
// relationships. Store-side concurrency control is delegated entirely to
// the store; the engine takes no locks of its own.
package driver

import (
	"context"

	"github.com/estategraph/estategraph/pkg/types"
)

// GraphWriter is the engine's view of a graph store.
type GraphWriter interface {
	// CreateIndices ensures a uniqueness constraint on the natural key of
	// every node label before any writes happen.
	CreateIndices(ctx context.Context) error

	// UpsertNodes merges one label's nodes by natural key:
	// create-if-absent, else update attributes.
	UpsertNodes(ctx context.Context, label types.NodeLabel, nodes []*types.Node) error

	// UpsertEdges merges relationships by (type, from, to) identity. All
	// edges in a call share one relationship type.
	UpsertEdges(ctx context.Context, edgeType types.EdgeType, edges []*types.Edge) error

	// RemoveNodeProperties strips the named attributes from every node of
	// a label. Cleanup of denormalized fields goes through this.
	RemoveNodeProperties(ctx context.Context, label types.NodeLabel, fields []string) error

	// Close releases store resources.
	Close(ctx context.Context) error
}
