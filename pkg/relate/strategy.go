// Package relate infers the graph's relationships from the materialized
// node set. Each relationship family is one Strategy behind a shared
// interface; the orchestrator invokes them uniformly, so adding a
// relationship type means adding one implementation. All strategies share
// the contract that an edge is emitted only when both endpoints exist in
// the materialized set.
package relate

import (
	"context"

	"github.com/estategraph/estategraph/pkg/types"
)

// Snapshot is the read-only view the strategies build from: every
// materialized node batch, keyed by label. Node records still carry their
// denormalized fields at this point; those fields are how a strategy
// finds counterpart keys.
type Snapshot struct {
	Nodes map[types.NodeLabel]*types.NodeBatch
}

// NewSnapshot wraps the materialized batches.
func NewSnapshot(nodes map[types.NodeLabel]*types.NodeBatch) *Snapshot {
	return &Snapshot{Nodes: nodes}
}

// Has reports whether a node of the given label and key was materialized.
func (s *Snapshot) Has(label types.NodeLabel, key string) bool {
	batch, ok := s.Nodes[label]
	return ok && batch.Has(key)
}

// Batch returns the node batch for a label, possibly nil.
func (s *Snapshot) Batch(label types.NodeLabel) *types.NodeBatch {
	return s.Nodes[label]
}

// Empty reports whether the label has no materialized nodes at all, the
// systemic-failure case that skips dependent relationship types.
func (s *Snapshot) Empty(label types.NodeLabel) bool {
	batch, ok := s.Nodes[label]
	return !ok || batch.Len() == 0
}

// Strategy builds the edge batches for one relationship family.
// Returned warnings cover systemic skips (an entire endpoint type
// missing); per-entity problems are counted on the batches instead.
type Strategy interface {
	Name() string
	Build(ctx context.Context, snap *Snapshot) ([]*types.EdgeBatch, []string, error)
}

// guard checks both endpoints against the snapshot before an edge is
// admitted to its batch, counting the dropped candidate otherwise. The
// referential-integrity invariant of the whole engine lives here.
func guard(snap *Snapshot, batch *types.EdgeBatch, edge *types.Edge) {
	if !snap.Has(edge.FromLabel, edge.FromKey) || !snap.Has(edge.ToLabel, edge.ToKey) {
		batch.Skip(types.SkipDanglingReference)
		return
	}
	batch.Add(edge)
}

// Node attribute accessors. Props were produced by the materializer, so
// the concrete types are known; absent and mistyped both read as absent.

func propString(n *types.Node, key string) (string, bool) {
	v, ok := n.Props[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func propFloat(n *types.Node, key string) (float64, bool) {
	v, ok := n.Props[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func propStrings(n *types.Node, key string) ([]string, bool) {
	v, ok := n.Props[key]
	if !ok {
		return nil, false
	}
	list, ok := v.([]string)
	return list, ok && len(list) > 0
}

func propVector(n *types.Node, key string) ([]float32, bool) {
	v, ok := n.Props[key]
	if !ok {
		return nil, false
	}
	vec, ok := v.([]float32)
	return vec, ok && len(vec) > 0
}
