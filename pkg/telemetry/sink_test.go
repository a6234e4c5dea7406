package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estategraph/estategraph/pkg/types"
)

func sampleReport() *types.RunReport {
	report := types.NewRunReport("run-1")
	report.Success = true
	report.CleanupRan = true
	report.FinishedAt = report.StartedAt.Add(3 * time.Second)
	report.Nodes[types.LabelProperty] = &types.StageStats{Written: 120, Elapsed: time.Second}
	report.Nodes[types.LabelCity] = &types.StageStats{
		Written: 7,
		Skipped: map[types.SkipReason]int{types.SkipMissingField: 2},
	}
	report.Edges[types.EdgeLocatedIn] = &types.StageStats{Written: 115, Elapsed: time.Second}
	report.Edges[types.EdgeSimilarTo] = &types.StageStats{Failed: true, Error: "write rejected"}
	return report
}

func TestFlatten(t *testing.T) {
	rows := Flatten(sampleReport())
	require.Len(t, rows, 4)

	// Node rows come first, sorted by label.
	assert.Equal(t, "node", rows[0].Kind)
	assert.Equal(t, string(types.LabelCity), rows[0].Name)
	assert.Equal(t, int64(2), rows[0].Skipped)

	var similar StageRow
	for _, r := range rows {
		if r.Name == string(types.EdgeSimilarTo) {
			similar = r
		}
	}
	assert.True(t, similar.Failed)
	assert.Equal(t, "write rejected", similar.Error)
	assert.True(t, similar.RunSuccess, "run-level flags repeated on every row")
}

func TestSinkRecord(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSink(filepath.Join(dir, "telemetry"))
	require.NoError(t, err)

	report := sampleReport()
	require.NoError(t, sink.Record(report))

	path := filepath.Join(dir, "telemetry", "run_run-1.parquet")
	_, err = os.Stat(path)
	require.NoError(t, err)

	rows, err := parquet.ReadFile[StageRow](path)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "run-1", rows[0].RunID)
}

func TestSinkEmptyReport(t *testing.T) {
	sink, err := NewSink(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, sink.Record(types.NewRunReport("empty")))
	entries, err := os.ReadDir(sink.dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file written for an empty report")
}
