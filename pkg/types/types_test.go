package types

import (
	"testing"
)

func TestNodeValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr error
	}{
		{
			name:    "valid node",
			node:    Node{Label: LabelProperty, Key: "prop-1"},
			wantErr: nil,
		},
		{
			name:    "empty key",
			node:    Node{Label: LabelProperty},
			wantErr: ErrEmptyKey,
		},
		{
			name:    "empty label",
			node:    Node{Key: "prop-1"},
			wantErr: ErrEmptyLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.node.Validate(); err != tt.wantErr {
				t.Errorf("Node.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNodeLabelKeyField(t *testing.T) {
	tests := []struct {
		label NodeLabel
		want  string
	}{
		{LabelProperty, "listing_id"},
		{LabelNeighborhood, "neighborhood_id"},
		{LabelArticle, "page_id"},
		{LabelFeature, "name"},
		{LabelPropertyType, "name"},
		{LabelPriceRange, "label"},
		{LabelCity, "name"},
		{LabelState, "code"},
		{LabelCounty, "name"},
		{LabelZipCode, "code"},
	}
	for _, tt := range tests {
		if got := tt.label.KeyField(); got != tt.want {
			t.Errorf("%s.KeyField() = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestNodeBatchLastWriteWins(t *testing.T) {
	b := NewNodeBatch(LabelProperty)
	b.Add("p1", map[string]any{"price": 100.0, "bedrooms": 2})
	b.Add("p1", map[string]any{"price": 200.0})
	b.Add("p2", map[string]any{"price": 300.0})

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	n := b.Get("p1")
	if n == nil {
		t.Fatal("p1 missing from batch")
	}
	if n.Props["price"] != 200.0 {
		t.Errorf("price = %v, want 200 (last write wins)", n.Props["price"])
	}
	if n.Props["bedrooms"] != 2 {
		t.Errorf("bedrooms = %v, want 2 (unrelated attributes kept)", n.Props["bedrooms"])
	}
}

func TestNodeBatchEmptyKeySkipped(t *testing.T) {
	b := NewNodeBatch(LabelFeature)
	b.Add("", nil)
	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
	if b.Skipped[SkipMissingField] != 1 {
		t.Errorf("missing_field skips = %d, want 1", b.Skipped[SkipMissingField])
	}
}

func TestNodeBatchOrderStable(t *testing.T) {
	b := NewNodeBatch(LabelCity)
	for _, k := range []string{"c", "a", "b", "a"} {
		b.Add(k, nil)
	}
	got := b.Keys()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEdgeBatchDedup(t *testing.T) {
	b := NewEdgeBatch(EdgeHasFeature)
	e := &Edge{Type: EdgeHasFeature, FromLabel: LabelProperty, FromKey: "p1", ToLabel: LabelFeature, ToKey: "pool"}
	b.Add(e)
	b.Add(&Edge{Type: EdgeHasFeature, FromLabel: LabelProperty, FromKey: "p1", ToLabel: LabelFeature, ToKey: "pool"})
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestCompositeKey(t *testing.T) {
	if got := CompositeKey(" Austin ", "TX"); got != "austin|tx" {
		t.Errorf("CompositeKey = %q, want %q", got, "austin|tx")
	}
}

func TestPriceBucketFor(t *testing.T) {
	buckets := DefaultPriceBuckets()
	tests := []struct {
		price float64
		want  string
	}{
		{100_000, "Under $500K"},
		{499_999, "Under $500K"},
		{500_000, "$500K-$750K"}, // boundary is inclusive of the upper bucket
		{749_999, "$500K-$750K"},
		{750_000, "$750K-$1M"},
		{1_000_000, "Over $1M"},
		{5_000_000, "Over $1M"},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := PriceBucketFor(tt.price, buckets); got != tt.want {
			t.Errorf("PriceBucketFor(%v) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestPriceBucketForEmpty(t *testing.T) {
	if got := PriceBucketFor(100, nil); got != "" {
		t.Errorf("PriceBucketFor with no buckets = %q, want empty", got)
	}
}
