package driver

import (
	"context"
	"sync"

	"github.com/estategraph/estategraph/pkg/types"
)

// MemoryWriter is an in-memory GraphWriter used for tests and dry runs.
// It mirrors the store's merge semantics exactly: nodes keyed by
// (label, key), edges keyed by (type, from, to).
type MemoryWriter struct {
	mu    sync.Mutex
	nodes map[types.NodeLabel]map[string]*types.Node
	edges map[string]*types.Edge
}

// NewMemoryWriter creates an empty in-memory store.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{
		nodes: make(map[types.NodeLabel]map[string]*types.Node),
		edges: make(map[string]*types.Edge),
	}
}

func (m *MemoryWriter) CreateIndices(_ context.Context) error { return nil }

func (m *MemoryWriter) UpsertNodes(_ context.Context, label types.NodeLabel, nodes []*types.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKey, ok := m.nodes[label]
	if !ok {
		byKey = make(map[string]*types.Node)
		m.nodes[label] = byKey
	}
	for _, node := range nodes {
		if err := node.Validate(); err != nil {
			return err
		}
		existing, ok := byKey[node.Key]
		if !ok {
			copied := &types.Node{Label: label, Key: node.Key, Props: make(map[string]any, len(node.Props))}
			for k, v := range node.Props {
				copied.Props[k] = v
			}
			byKey[node.Key] = copied
			continue
		}
		for k, v := range node.Props {
			existing.Props[k] = v
		}
	}
	return nil
}

func (m *MemoryWriter) UpsertEdges(_ context.Context, _ types.EdgeType, edges []*types.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, edge := range edges {
		if err := edge.Validate(); err != nil {
			return err
		}
		copied := *edge
		m.edges[edge.PairKey()] = &copied
	}
	return nil
}

func (m *MemoryWriter) RemoveNodeProperties(_ context.Context, label types.NodeLabel, fields []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, node := range m.nodes[label] {
		for _, field := range fields {
			delete(node.Props, field)
		}
	}
	return nil
}

func (m *MemoryWriter) Close(_ context.Context) error { return nil }

// NodeCount returns the number of stored nodes for a label.
func (m *MemoryWriter) NodeCount(label types.NodeLabel) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes[label])
}

// TotalNodeCount returns the number of stored nodes across labels.
func (m *MemoryWriter) TotalNodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, byKey := range m.nodes {
		total += len(byKey)
	}
	return total
}

// EdgeCount returns the number of stored relationships.
func (m *MemoryWriter) EdgeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.edges)
}

// Node returns a stored node, or nil.
func (m *MemoryWriter) Node(label types.NodeLabel, key string) *types.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[label][key]
}

// Edges returns a copy of every stored relationship.
func (m *MemoryWriter) Edges() []*types.Edge {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Edge, 0, len(m.edges))
	for _, edge := range m.edges {
		copied := *edge
		out = append(out, &copied)
	}
	return out
}

// HasNode reports whether a node exists in the store.
func (m *MemoryWriter) HasNode(label types.NodeLabel, key string) bool {
	return m.Node(label, key) != nil
}
