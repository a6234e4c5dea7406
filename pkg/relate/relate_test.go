package relate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estategraph/estategraph/pkg/types"
)

func snapshotWith(batches ...*types.NodeBatch) *Snapshot {
	nodes := make(map[types.NodeLabel]*types.NodeBatch)
	for _, b := range batches {
		nodes[b.Label] = b
	}
	return NewSnapshot(nodes)
}

func batchOf(label types.NodeLabel, entries map[string]map[string]any) *types.NodeBatch {
	b := types.NewNodeBatch(label)
	for key, props := range entries {
		b.Add(key, props)
	}
	return b
}

func findBatch(t *testing.T, batches []*types.EdgeBatch, edgeType types.EdgeType) *types.EdgeBatch {
	t.Helper()
	for _, b := range batches {
		if b.Type == edgeType {
			return b
		}
	}
	t.Fatalf("no batch for %s", edgeType)
	return nil
}

func TestGeographyLocatedIn(t *testing.T) {
	snap := snapshotWith(
		batchOf(types.LabelProperty, map[string]map[string]any{
			"L1": {"neighborhood_id": "N1"},
			"L2": {"neighborhood_id": "N-missing"},
			"L3": {},
		}),
		batchOf(types.LabelNeighborhood, map[string]map[string]any{
			"N1": {},
		}),
	)

	batches, _, err := GeographyStrategy{}.Build(context.Background(), snap)
	require.NoError(t, err)

	locatedIn := findBatch(t, batches, types.EdgeLocatedIn)
	require.Equal(t, 1, locatedIn.Len())
	assert.Equal(t, "N1", locatedIn.Edges()[0].ToKey)
	assert.Equal(t, 1, locatedIn.Skipped[types.SkipDanglingReference], "edge to unmaterialized neighborhood dropped")
	assert.Equal(t, 1, locatedIn.Skipped[types.SkipMissingField], "null neighborhood_id skipped")
}

func TestGeographyHierarchy(t *testing.T) {
	snap := snapshotWith(
		batchOf(types.LabelNeighborhood, map[string]map[string]any{
			"N1": {"city": "Austin", "state": "TX", "county": "Travis"},
			"N2": {"state": "TX"}, // no city, no county
		}),
		batchOf(types.LabelCity, map[string]map[string]any{
			"austin|tx": {"name": "Austin", "state": "TX"},
		}),
		batchOf(types.LabelCounty, map[string]map[string]any{
			"travis|tx": {"name": "Travis", "state": "TX"},
		}),
		batchOf(types.LabelState, map[string]map[string]any{
			"TX": {"code": "TX"},
		}),
	)

	batches, warnings, err := GeographyStrategy{}.Build(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	partOf := findBatch(t, batches, types.EdgePartOf)
	require.Equal(t, 1, partOf.Len())
	assert.Equal(t, "austin|tx", partOf.Edges()[0].ToKey)
	assert.Equal(t, 1, partOf.Skipped[types.SkipMissingField])

	inCounty := findBatch(t, batches, types.EdgeInCounty)
	assert.Equal(t, 2, inCounty.Len(), "neighborhood and its city both placed in county")

	inState := findBatch(t, batches, types.EdgeInState)
	require.Equal(t, 1, inState.Len())
	assert.Equal(t, "TX", inState.Edges()[0].ToKey)
}

func TestGeographyEmptyNeighborhoodsSkipsTypeWithWarning(t *testing.T) {
	snap := snapshotWith(
		batchOf(types.LabelProperty, map[string]map[string]any{
			"L1": {"neighborhood_id": "N1"},
		}),
	)

	batches, warnings, err := GeographyStrategy{}.Build(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 0, findBatch(t, batches, types.EdgeLocatedIn).Len())
	assert.NotEmpty(t, warnings)
}

func TestClassificationMissingFieldContinuation(t *testing.T) {
	// 100 properties, 5 with a null feature list: 95 get HAS_FEATURE
	// edges and the 5 are recorded skips, not a failure.
	props := types.NewNodeBatch(types.LabelProperty)
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("L%03d", i)
		if i < 5 {
			props.Add(key, map[string]any{})
		} else {
			props.Add(key, map[string]any{"features": []string{"pool"}})
		}
	}
	snap := snapshotWith(
		props,
		batchOf(types.LabelFeature, map[string]map[string]any{"pool": {"name": "pool"}}),
		batchOf(types.LabelPropertyType, map[string]map[string]any{"condo": {}}),
		batchOf(types.LabelPriceRange, map[string]map[string]any{"Under $500K": {}}),
	)

	batches, _, err := NewClassificationStrategy(nil).Build(context.Background(), snap)
	require.NoError(t, err)

	hasFeature := findBatch(t, batches, types.EdgeHasFeature)
	assert.Equal(t, 95, hasFeature.Len())
	assert.Equal(t, 5, hasFeature.Skipped[types.SkipMissingField])
}

func TestClassificationPriceBoundary(t *testing.T) {
	snap := snapshotWith(
		batchOf(types.LabelProperty, map[string]map[string]any{
			"L1": {"price": 500_000.0},
			"L2": {"price": 499_999.0},
		}),
		batchOf(types.LabelPriceRange, map[string]map[string]any{
			"Under $500K": {}, "$500K-$750K": {}, "$750K-$1M": {}, "Over $1M": {},
		}),
	)

	batches, _, err := NewClassificationStrategy(nil).Build(context.Background(), snap)
	require.NoError(t, err)

	inRange := findBatch(t, batches, types.EdgeInPriceRange)
	targets := map[string]string{}
	for _, e := range inRange.Edges() {
		targets[e.FromKey] = e.ToKey
	}
	assert.Equal(t, "$500K-$750K", targets["L1"], "exact boundary price lands in the upper bucket")
	assert.Equal(t, "Under $500K", targets["L2"])
}

func TestClassificationOfType(t *testing.T) {
	snap := snapshotWith(
		batchOf(types.LabelProperty, map[string]map[string]any{
			"L1": {"property_type": "Condo"},
		}),
		batchOf(types.LabelPropertyType, map[string]map[string]any{
			"condo": {"name": "condo"},
		}),
	)

	batches, _, err := NewClassificationStrategy(nil).Build(context.Background(), snap)
	require.NoError(t, err)

	ofType := findBatch(t, batches, types.EdgeOfType)
	require.Equal(t, 1, ofType.Len())
	assert.Equal(t, "condo", ofType.Edges()[0].ToKey, "raw token canonicalized before lookup")
}

func similaritySnapshot(vectors map[string][]float32) *Snapshot {
	props := types.NewNodeBatch(types.LabelProperty)
	for key, vec := range vectors {
		props.Add(key, map[string]any{"embedding": vec})
	}
	return snapshotWith(props)
}

func TestSimilarityThresholdBoundary(t *testing.T) {
	// a and b are identical (score 1.0); c is orthogonal to both
	// (score 0). With threshold 1.0 only the exact pair survives.
	snap := similaritySnapshot(map[string][]float32{
		"a": {1, 0},
		"b": {1, 0},
		"c": {0, 1},
	})

	strategy := NewSimilarityStrategy(1.0, 10)
	batches, _, err := strategy.Build(context.Background(), snap)
	require.NoError(t, err)

	batch := batches[0]
	require.Equal(t, 1, batch.Len(), "score exactly at the threshold is included")
	edge := batch.Edges()[0]
	assert.Equal(t, "a", edge.FromKey)
	assert.Equal(t, "b", edge.ToKey)
	assert.Greater(t, batch.Skipped[types.SkipBelowThreshold], 0, "scores below threshold excluded")
}

func TestSimilaritySymmetricPairDedup(t *testing.T) {
	snap := similaritySnapshot(map[string][]float32{
		"z-high": {0.5, 0.5},
		"a-low":  {0.5, 0.5},
	})

	batches, _, err := NewSimilarityStrategy(0.5, 10).Build(context.Background(), snap)
	require.NoError(t, err)

	batch := batches[0]
	require.Equal(t, 1, batch.Len(), "one record per unordered pair")
	edge := batch.Edges()[0]
	assert.Equal(t, "a-low", edge.FromKey, "direction canonicalized as (min, max)")
	assert.Equal(t, "z-high", edge.ToKey)
	assert.Equal(t, 1, batch.Skipped[types.SkipDuplicatePair])
}

func TestSimilarityDeterministicAcrossRuns(t *testing.T) {
	vectors := map[string][]float32{
		"a": {1, 0, 0}, "b": {0.9, 0.1, 0}, "c": {0.8, 0.3, 0.1},
		"d": {0, 1, 0}, "e": {0.1, 0.9, 0.2},
	}

	run := func() []string {
		batches, _, err := NewSimilarityStrategy(0.5, 2).Build(context.Background(), similaritySnapshot(vectors))
		require.NoError(t, err)
		var pairs []string
		for _, e := range batches[0].Edges() {
			pairs = append(pairs, e.FromKey+"->"+e.ToKey)
		}
		return pairs
	}

	assert.Equal(t, run(), run(), "same vectors and K emit identical edges")
}

func TestSimilarityTooFewEmbeddings(t *testing.T) {
	snap := similaritySnapshot(map[string][]float32{"a": {1, 0}})

	batches, warnings, err := NewSimilarityStrategy(0.5, 10).Build(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 0, batches[0].Len())
	assert.NotEmpty(t, warnings)
}

func describeSnapshot() *Snapshot {
	return snapshotWith(
		batchOf(types.LabelNeighborhood, map[string]map[string]any{
			"N1": {"city": "Austin", "state": "TX", "county": "Travis"},
			"N2": {"city": "Round Rock", "state": "TX", "county": "Williamson"},
		}),
		batchOf(types.LabelArticle, map[string]map[string]any{
			"A-exact":   {"best_city": "Austin", "best_state": "TX"},
			"A-county":  {"best_city": "Pflugerville", "best_state": "TX", "best_county": "Williamson"},
			"A-nomatch": {"best_city": "Miami", "best_state": "FL"},
			"A-nohint":  {},
		}),
	)
}

func TestDescribesTieredMatching(t *testing.T) {
	batches, _, err := ContentLocationStrategy{}.Build(context.Background(), describeSnapshot())
	require.NoError(t, err)

	batch := batches[0]
	byArticle := map[string]*types.Edge{}
	for _, e := range batch.Edges() {
		byArticle[e.FromKey] = e
	}

	exact := byArticle["A-exact"]
	require.NotNil(t, exact)
	assert.Equal(t, "N1", exact.ToKey)
	require.NotNil(t, exact.Score)
	assert.Equal(t, ConfidenceExactMatch, *exact.Score)

	// No exact city match, so the county tier wins with the lower score.
	county := byArticle["A-county"]
	require.NotNil(t, county)
	assert.Equal(t, "N2", county.ToKey)
	require.NotNil(t, county.Score)
	assert.Equal(t, ConfidenceCountyMatch, *county.Score)

	assert.NotContains(t, byArticle, "A-nomatch")
	assert.Equal(t, 1, batch.Skipped[types.SkipNoMatch])
	assert.Equal(t, 1, batch.Skipped[types.SkipMissingField])
}

func TestDescribesEmptyNeighborhoods(t *testing.T) {
	snap := snapshotWith(
		batchOf(types.LabelArticle, map[string]map[string]any{
			"A1": {"best_city": "Austin", "best_state": "TX"},
		}),
	)

	batches, warnings, err := ContentLocationStrategy{}.Build(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 0, batches[0].Len())
	assert.NotEmpty(t, warnings)
}

func TestSimilarityExplicitZeroThreshold(t *testing.T) {
	// b is orthogonal to a (score 0) and opposite to c (score 0 with b,
	// -1 with a). A configured threshold of zero must be honored, not
	// replaced with the default.
	snap := similaritySnapshot(map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {-1, 0},
	})

	batches, _, err := NewSimilarityStrategy(0, 10).Build(context.Background(), snap)
	require.NoError(t, err)

	pairs := map[string]bool{}
	for _, e := range batches[0].Edges() {
		pairs[e.FromKey+"|"+e.ToKey] = true
	}
	assert.True(t, pairs["a|b"], "zero-score pair meets an inclusive zero threshold")
	assert.True(t, pairs["b|c"])
	assert.False(t, pairs["a|c"], "negative score stays below a zero threshold")
	assert.Greater(t, batches[0].Skipped[types.SkipBelowThreshold], 0)
}

func TestSimilarityNegativeThreshold(t *testing.T) {
	snap := similaritySnapshot(map[string][]float32{
		"a": {1, 0},
		"c": {-1, 0},
	})

	batches, _, err := NewSimilarityStrategy(-1, 10).Build(context.Background(), snap)
	require.NoError(t, err)
	require.Equal(t, 1, batches[0].Len(), "threshold -1 admits opposite vectors")
	assert.Equal(t, 0, batches[0].Skipped[types.SkipBelowThreshold])
}
