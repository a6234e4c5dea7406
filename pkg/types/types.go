package types

import (
	"errors"
	"fmt"
	"strings"
)

// Validation and taxonomy errors
var (
	ErrEmptyKey       = errors.New("node key cannot be empty")
	ErrEmptyLabel     = errors.New("node label cannot be empty")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrWriteFailure   = errors.New("graph write failure")
)

// NodeLabel identifies a node type in the graph.
type NodeLabel string

const (
	LabelProperty     NodeLabel = "Property"
	LabelNeighborhood NodeLabel = "Neighborhood"
	LabelArticle      NodeLabel = "Article"
	LabelFeature      NodeLabel = "Feature"
	LabelPropertyType NodeLabel = "PropertyType"
	LabelPriceRange   NodeLabel = "PriceRange"
	LabelCity         NodeLabel = "City"
	LabelState        NodeLabel = "State"
	LabelCounty       NodeLabel = "County"
	LabelZipCode      NodeLabel = "ZipCode"
)

// AllNodeLabels lists every label the engine materializes, in a stable order.
func AllNodeLabels() []NodeLabel {
	return []NodeLabel{
		LabelProperty, LabelNeighborhood, LabelArticle,
		LabelFeature, LabelPropertyType, LabelPriceRange,
		LabelCity, LabelState, LabelCounty, LabelZipCode,
	}
}

// KeyField returns the natural-key property name used for merge semantics
// on nodes of this label.
func (l NodeLabel) KeyField() string {
	switch l {
	case LabelProperty:
		return "listing_id"
	case LabelNeighborhood:
		return "neighborhood_id"
	case LabelArticle:
		return "page_id"
	case LabelPriceRange:
		return "label"
	case LabelState, LabelZipCode:
		return "code"
	default:
		// Feature, PropertyType, City, County
		return "name"
	}
}

// EdgeType identifies a relationship type in the graph.
type EdgeType string

const (
	EdgeLocatedIn    EdgeType = "LOCATED_IN"
	EdgeHasFeature   EdgeType = "HAS_FEATURE"
	EdgeOfType       EdgeType = "OF_TYPE"
	EdgeInPriceRange EdgeType = "IN_PRICE_RANGE"
	EdgePartOf       EdgeType = "PART_OF"
	EdgeInCounty     EdgeType = "IN_COUNTY"
	EdgeInState      EdgeType = "IN_STATE"
	EdgeInZip        EdgeType = "IN_ZIP"
	EdgeDescribes    EdgeType = "DESCRIBES"
	EdgeSimilarTo    EdgeType = "SIMILAR_TO"
)

// Node is one node instance keyed by its natural key. Props holds the
// attribute map written to the store; the natural key itself is stored
// under Label.KeyField().
type Node struct {
	Label NodeLabel      `json:"label"`
	Key   string         `json:"key"`
	Props map[string]any `json:"props,omitempty"`
}

// Validate checks the fields required before a node can be written.
func (n *Node) Validate() error {
	if n.Label == "" {
		return ErrEmptyLabel
	}
	if n.Key == "" {
		return ErrEmptyKey
	}
	return nil
}

// Edge is one relationship candidate between two materialized nodes.
// Score is set only by the scored strategies (SIMILAR_TO, DESCRIBES).
type Edge struct {
	Type      EdgeType  `json:"type"`
	FromLabel NodeLabel `json:"from_label"`
	FromKey   string    `json:"from_key"`
	ToLabel   NodeLabel `json:"to_label"`
	ToKey     string    `json:"to_key"`
	Score     *float64  `json:"score,omitempty"`
}

// Validate checks the fields required before an edge can be written.
func (e *Edge) Validate() error {
	if e.Type == "" {
		return errors.New("edge type cannot be empty")
	}
	if e.FromKey == "" || e.ToKey == "" {
		return ErrEmptyKey
	}
	return nil
}

// PairKey returns an identity string for merge deduplication of an edge,
// (type, from, to) per the write contract.
func (e *Edge) PairKey() string {
	return fmt.Sprintf("%s|%s:%s|%s:%s", e.Type, e.FromLabel, e.FromKey, e.ToLabel, e.ToKey)
}

// CompositeKey builds a canonical composite natural key from parts,
// lower-cased and joined with '|'. Used by City and County nodes whose
// identity spans two source fields.
func CompositeKey(parts ...string) string {
	lowered := make([]string, len(parts))
	for i, p := range parts {
		lowered[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(lowered, "|")
}

// CanonicalToken lower-cases and trims a raw feature or type token so
// repeated runs derive identical node keys.
func CanonicalToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
