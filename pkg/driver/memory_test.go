package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estategraph/estategraph/pkg/types"
)

func TestMemoryWriterUpsertNodesMergeSemantics(t *testing.T) {
	m := NewMemoryWriter()
	ctx := context.Background()

	err := m.UpsertNodes(ctx, types.LabelProperty, []*types.Node{
		{Label: types.LabelProperty, Key: "L1", Props: map[string]any{"price": 100.0, "bedrooms": 2}},
	})
	require.NoError(t, err)

	// Second upsert of the same key updates attributes, no duplicate.
	err = m.UpsertNodes(ctx, types.LabelProperty, []*types.Node{
		{Label: types.LabelProperty, Key: "L1", Props: map[string]any{"price": 150.0}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, m.NodeCount(types.LabelProperty))
	node := m.Node(types.LabelProperty, "L1")
	require.NotNil(t, node)
	assert.Equal(t, 150.0, node.Props["price"])
	assert.Equal(t, 2, node.Props["bedrooms"])
}

func TestMemoryWriterUpsertEdgesMergeSemantics(t *testing.T) {
	m := NewMemoryWriter()
	ctx := context.Background()

	edge := &types.Edge{
		Type:      types.EdgeLocatedIn,
		FromLabel: types.LabelProperty, FromKey: "L1",
		ToLabel: types.LabelNeighborhood, ToKey: "N1",
	}
	require.NoError(t, m.UpsertEdges(ctx, types.EdgeLocatedIn, []*types.Edge{edge}))
	require.NoError(t, m.UpsertEdges(ctx, types.EdgeLocatedIn, []*types.Edge{edge}))

	assert.Equal(t, 1, m.EdgeCount())
}

func TestMemoryWriterRemoveNodeProperties(t *testing.T) {
	m := NewMemoryWriter()
	ctx := context.Background()

	require.NoError(t, m.UpsertNodes(ctx, types.LabelProperty, []*types.Node{
		{Label: types.LabelProperty, Key: "L1", Props: map[string]any{"price": 100.0, "neighborhood_id": "N1"}},
	}))
	require.NoError(t, m.RemoveNodeProperties(ctx, types.LabelProperty, []string{"neighborhood_id"}))

	node := m.Node(types.LabelProperty, "L1")
	assert.NotContains(t, node.Props, "neighborhood_id")
	assert.Contains(t, node.Props, "price")
}

func TestMemoryWriterInvalidNode(t *testing.T) {
	m := NewMemoryWriter()
	err := m.UpsertNodes(context.Background(), types.LabelProperty, []*types.Node{
		{Label: types.LabelProperty},
	})
	assert.ErrorIs(t, err, types.ErrEmptyKey)
}

// failingWriter fails every write, for breaker tests.
type failingWriter struct {
	MemoryWriter
	calls int
}

func (f *failingWriter) UpsertNodes(_ context.Context, _ types.NodeLabel, _ []*types.Node) error {
	f.calls++
	return errors.New("store unavailable")
}

func TestBreakerWriterTripsAfterRepeatedFailures(t *testing.T) {
	inner := &failingWriter{}
	writer := NewBreakerWriter(inner, BreakerSettings{
		Timeout:          time.Minute,
		ReadyToTripRatio: 0.5,
	}, nil)

	ctx := context.Background()
	nodes := []*types.Node{{Label: types.LabelProperty, Key: "L1"}}
	for i := 0; i < 10; i++ {
		_ = writer.UpsertNodes(ctx, types.LabelProperty, nodes)
	}

	err := writer.UpsertNodes(ctx, types.LabelProperty, nodes)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Less(t, inner.calls, 10, "breaker stops forwarding calls once open")
}

func TestBreakerWriterPassesThroughSuccess(t *testing.T) {
	inner := NewMemoryWriter()
	writer := NewBreakerWriter(inner, BreakerSettings{}, nil)

	err := writer.UpsertNodes(context.Background(), types.LabelProperty, []*types.Node{
		{Label: types.LabelProperty, Key: "L1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.NodeCount(types.LabelProperty))
}
