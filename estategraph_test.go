package estategraph_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estategraph/estategraph"
	"github.com/estategraph/estategraph/pkg/driver"
	"github.com/estategraph/estategraph/pkg/source"
	"github.com/estategraph/estategraph/pkg/types"
)

func buildSources() estategraph.Sources {
	properties := source.NewTable("properties", source.PropertyColumns(), []source.Record{
		{
			source.ColListingID: "L1", source.ColPrice: 325_000.0,
			source.ColFeatures: []string{"Fireplace"}, source.ColPropertyType: "House",
			source.ColCity: "Madison", source.ColState: "WI", source.ColZipCode: "53703",
			source.ColNeighborhoodID: "N1",
		},
	})
	neighborhoods := source.NewTable("neighborhoods", source.NeighborhoodColumns(), []source.Record{
		{
			source.ColNeighborhoodID: "N1", source.ColName: "Tenney-Lapham",
			source.ColCity: "Madison", source.ColState: "WI", source.ColCounty: "Dane",
		},
	})
	articles := source.NewTable("articles", source.ArticleColumns(), []source.Record{
		{source.ColPageID: "A1", source.ColTitle: "Tenney-Lapham", source.ColBestCity: "Madison", source.ColBestState: "WI"},
	})
	return estategraph.Sources{Properties: properties, Neighborhoods: neighborhoods, Articles: articles}
}

func TestClientBuildGraph(t *testing.T) {
	store := driver.NewMemoryWriter()
	client, err := estategraph.NewClient(store, nil, nil)
	require.NoError(t, err)
	defer client.Close(context.Background())

	report, err := client.BuildGraph(context.Background(), buildSources())
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, store.NodeCount(types.LabelProperty))
	assert.Greater(t, store.EdgeCount(), 0)
}

func TestClientRecordsTelemetry(t *testing.T) {
	dir := t.TempDir()
	store := driver.NewMemoryWriter()
	client, err := estategraph.NewClient(store, &estategraph.Config{TelemetryDir: dir}, nil)
	require.NoError(t, err)

	report, err := client.BuildGraph(context.Background(), buildSources())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), report.RunID)
}

func TestClientRerunIsIdempotent(t *testing.T) {
	store := driver.NewMemoryWriter()
	client, err := estategraph.NewClient(store, nil, nil)
	require.NoError(t, err)

	_, err = client.BuildGraph(context.Background(), buildSources())
	require.NoError(t, err)
	nodes, edges := store.TotalNodeCount(), store.EdgeCount()

	_, err = client.BuildGraph(context.Background(), buildSources())
	require.NoError(t, err)
	assert.Equal(t, nodes, store.TotalNodeCount())
	assert.Equal(t, edges, store.EdgeCount())
}
