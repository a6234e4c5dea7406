package types

// SkipReason categorizes why a node or relationship candidate was dropped
// instead of written. Skips are counted per reason in the run report and
// never abort a stage.
type SkipReason string

const (
	// SkipMissingField means a single entity lacked a field needed for
	// the node or edge.
	SkipMissingField SkipReason = "missing_field"
	// SkipDanglingReference means an edge candidate referenced a node key
	// absent from the materialized set.
	SkipDanglingReference SkipReason = "dangling_reference"
	// SkipNoMatch means every matching tier failed (content-location).
	SkipNoMatch SkipReason = "no_match"
	// SkipBelowThreshold means a similarity score fell below the
	// configured threshold.
	SkipBelowThreshold SkipReason = "below_threshold"
	// SkipDuplicatePair means the symmetric counterpart of the edge was
	// already emitted.
	SkipDuplicatePair SkipReason = "duplicate_pair"
)

// NodeBatch accumulates nodes of one label, deduplicated by natural key
// with last-write-wins attribute merge.
type NodeBatch struct {
	Label   NodeLabel
	Skipped map[SkipReason]int

	nodes map[string]*Node
	order []string
}

// NewNodeBatch creates an empty batch for the given label.
func NewNodeBatch(label NodeLabel) *NodeBatch {
	return &NodeBatch{
		Label:   label,
		Skipped: make(map[SkipReason]int),
		nodes:   make(map[string]*Node),
	}
}

// Add merges a node into the batch. A repeated key updates attributes
// individually (last write wins per attribute) instead of duplicating
// the node.
func (b *NodeBatch) Add(key string, props map[string]any) {
	if key == "" {
		b.Skip(SkipMissingField)
		return
	}
	existing, ok := b.nodes[key]
	if !ok {
		n := &Node{Label: b.Label, Key: key, Props: make(map[string]any, len(props))}
		for k, v := range props {
			n.Props[k] = v
		}
		b.nodes[key] = n
		b.order = append(b.order, key)
		return
	}
	for k, v := range props {
		existing.Props[k] = v
	}
}

// Skip records a skipped candidate for the report.
func (b *NodeBatch) Skip(reason SkipReason) {
	b.Skipped[reason]++
}

// Has reports whether the key was materialized in this batch.
func (b *NodeBatch) Has(key string) bool {
	_, ok := b.nodes[key]
	return ok
}

// Get returns the node for a key, or nil.
func (b *NodeBatch) Get(key string) *Node {
	return b.nodes[key]
}

// Len returns the number of distinct nodes in the batch.
func (b *NodeBatch) Len() int {
	return len(b.nodes)
}

// Nodes returns the batch contents in insertion order.
func (b *NodeBatch) Nodes() []*Node {
	out := make([]*Node, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.nodes[key])
	}
	return out
}

// Keys returns the materialized keys in insertion order.
func (b *NodeBatch) Keys() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// EdgeBatch accumulates edges of one relationship type, deduplicated by
// (type, from, to) identity.
type EdgeBatch struct {
	Type    EdgeType
	Skipped map[SkipReason]int

	edges map[string]*Edge
	order []string
}

// NewEdgeBatch creates an empty batch for the given relationship type.
func NewEdgeBatch(edgeType EdgeType) *EdgeBatch {
	return &EdgeBatch{
		Type:    edgeType,
		Skipped: make(map[SkipReason]int),
		edges:   make(map[string]*Edge),
	}
}

// Add merges an edge into the batch; a repeated (from, to) pair updates
// the score rather than duplicating the record.
func (b *EdgeBatch) Add(edge *Edge) {
	if edge == nil {
		return
	}
	key := edge.PairKey()
	if existing, ok := b.edges[key]; ok {
		existing.Score = edge.Score
		return
	}
	b.edges[key] = edge
	b.order = append(b.order, key)
}

// Skip records a skipped candidate for the report.
func (b *EdgeBatch) Skip(reason SkipReason) {
	b.Skipped[reason]++
}

// Len returns the number of distinct edges in the batch.
func (b *EdgeBatch) Len() int {
	return len(b.edges)
}

// Edges returns the batch contents in insertion order.
func (b *EdgeBatch) Edges() []*Edge {
	out := make([]*Edge, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.edges[key])
	}
	return out
}

// SkipTotal sums the skip counters of an edge batch.
func (b *EdgeBatch) SkipTotal() int {
	total := 0
	for _, n := range b.Skipped {
		total += n
	}
	return total
}
