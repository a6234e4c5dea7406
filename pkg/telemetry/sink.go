// Package telemetry persists run reports as Parquet files so build
// history can be queried with the same tools as the source tables.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/estategraph/estategraph/pkg/types"
)

// StageRow is one node label or relationship type outcome within a run,
// flattened for Parquet storage.
type StageRow struct {
	RunID      string    `parquet:"run_id"`
	StartedAt  time.Time `parquet:"started_at"`
	FinishedAt time.Time `parquet:"finished_at"`
	Kind       string    `parquet:"kind"` // "node" or "edge"
	Name       string    `parquet:"name"`
	Written    int64     `parquet:"written"`
	Skipped    int64     `parquet:"skipped"`
	ElapsedMs  int64     `parquet:"elapsed_ms"`
	Failed     bool      `parquet:"failed"`
	Error      string    `parquet:"error"`
	RunSuccess bool      `parquet:"run_success"`
	CleanupRan bool      `parquet:"cleanup_ran"`
	Warnings   int64     `parquet:"warnings"`
}

// Sink writes run reports to Parquet files under a directory.
type Sink struct {
	dir string
}

// NewSink creates the output directory if needed.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// Record flattens the report into stage rows and writes one Parquet
// file named after the run.
func (s *Sink) Record(report *types.RunReport) error {
	rows := Flatten(report)
	if len(rows) == 0 {
		return nil
	}

	path := filepath.Join(s.dir, fmt.Sprintf("run_%s.parquet", report.RunID))
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write telemetry parquet file: %w", err)
	}
	return nil
}

// Flatten converts a report into one row per node label and edge type,
// in stable sorted order.
func Flatten(report *types.RunReport) []StageRow {
	base := StageRow{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt.UTC(),
		FinishedAt: report.FinishedAt.UTC(),
		RunSuccess: report.Success,
		CleanupRan: report.CleanupRan,
		Warnings:   int64(len(report.Warnings)),
	}

	rows := make([]StageRow, 0, len(report.Nodes)+len(report.Edges))
	for _, label := range report.NodeLabels() {
		stats := report.Nodes[label]
		row := base
		row.Kind = "node"
		row.Name = string(label)
		row.Written = int64(stats.Written)
		row.Skipped = int64(stats.SkipTotal())
		row.ElapsedMs = stats.Elapsed.Milliseconds()
		row.Failed = stats.Failed
		row.Error = stats.Error
		rows = append(rows, row)
	}
	for _, kind := range report.EdgeTypes() {
		stats := report.Edges[kind]
		row := base
		row.Kind = "edge"
		row.Name = string(kind)
		row.Written = int64(stats.Written)
		row.Skipped = int64(stats.SkipTotal())
		row.ElapsedMs = stats.Elapsed.Milliseconds()
		row.Failed = stats.Failed
		row.Error = stats.Error
		rows = append(rows, row)
	}
	return rows
}
