package types

import (
	"sort"
	"time"
)

// StageStats records the outcome of one node label or relationship type
// within a run.
type StageStats struct {
	Written int                `json:"written"`
	Skipped map[SkipReason]int `json:"skipped,omitempty"`
	Elapsed time.Duration      `json:"elapsed"`
	Failed  bool               `json:"failed,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// SkipTotal sums the skip counters.
func (s *StageStats) SkipTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// RunReport is the structured result of one pipeline run. Non-fatal
// problems are aggregated here rather than raised up the call stack; only
// node-phase write failures and schema mismatches terminate a run early.
type RunReport struct {
	RunID      string                    `json:"run_id"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Success    bool                      `json:"success"`
	Nodes      map[NodeLabel]*StageStats `json:"nodes"`
	Edges      map[EdgeType]*StageStats  `json:"edges"`
	CleanupRan bool                      `json:"cleanup_ran"`
	Warnings   []string                  `json:"warnings,omitempty"`
	FatalError string                    `json:"fatal_error,omitempty"`
}

// NewRunReport creates an empty report for the given run ID.
func NewRunReport(runID string) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: time.Now(),
		Nodes:     make(map[NodeLabel]*StageStats),
		Edges:     make(map[EdgeType]*StageStats),
	}
}

// Warn appends a warning to the report.
func (r *RunReport) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// NodesWritten sums node counts across labels.
func (r *RunReport) NodesWritten() int {
	total := 0
	for _, s := range r.Nodes {
		total += s.Written
	}
	return total
}

// EdgesWritten sums edge counts across relationship types.
func (r *RunReport) EdgesWritten() int {
	total := 0
	for _, s := range r.Edges {
		total += s.Written
	}
	return total
}

// NodeLabels returns the labels present in the report, sorted for stable
// output.
func (r *RunReport) NodeLabels() []NodeLabel {
	labels := make([]NodeLabel, 0, len(r.Nodes))
	for l := range r.Nodes {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// EdgeTypes returns the relationship types present in the report, sorted
// for stable output.
func (r *RunReport) EdgeTypes() []EdgeType {
	kinds := make([]EdgeType, 0, len(r.Edges))
	for k := range r.Edges {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
