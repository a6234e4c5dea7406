// Package pipeline sequences the graph build: materialize nodes, write
// nodes, build relationships, write relationships, clean up denormalized
// fields. Stages are separated by hard barriers; within a stage,
// independent node or relationship types run concurrently over the
// immutable source snapshot. Results accumulate in an explicit run
// report returned to the caller, not in shared mutable state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/estategraph/estategraph/pkg/driver"
	"github.com/estategraph/estategraph/pkg/materialize"
	"github.com/estategraph/estategraph/pkg/relate"
	"github.com/estategraph/estategraph/pkg/source"
	"github.com/estategraph/estategraph/pkg/types"
	"github.com/estategraph/estategraph/pkg/utils"
)

// Sources holds the read-only entity snapshots for one run.
type Sources struct {
	Properties    *source.Table
	Neighborhoods *source.Table
	Articles      *source.Table
}

// Options carries the tunables the configuration surface exposes.
type Options struct {
	BatchSize           int
	WriteRetries        int
	WriteTimeout        time.Duration
	MaxConcurrency      int
	// SimilarityThreshold distinguishes unset (nil, meaning the
	// default) from an explicit value; cosine scores span [-1, 1], so
	// zero and negative thresholds are expressible.
	SimilarityThreshold *float64
	SimilarityTopK      int
	PriceBuckets        []types.PriceBucket
}

// Pipeline runs the staged graph build against one writer.
type Pipeline struct {
	writer  driver.GraphWriter
	opts    Options
	logger  *slog.Logger
	coord   *Coordinator
	builder *materialize.Materializer
}

// New creates a pipeline. A nil logger falls back to slog.Default.
func New(writer driver.GraphWriter, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		writer:  writer,
		opts:    opts,
		logger:  logger,
		coord:   NewCoordinator(writer, opts.BatchSize, opts.WriteRetries, opts.WriteTimeout, logger),
		builder: materialize.New(opts.PriceBuckets, logger),
	}
}

func (p *Pipeline) similarityThreshold() float64 {
	if p.opts.SimilarityThreshold != nil {
		return *p.opts.SimilarityThreshold
	}
	return relate.DefaultSimilarityThreshold
}

// denormalizedFields lists, per label, the attributes that exist only to
// support relationship inference and are removed once the relationships
// are durable.
var denormalizedFields = map[types.NodeLabel][]string{
	types.LabelProperty:     {"neighborhood_id", "city", "state", "zip_code", "features", "property_type"},
	types.LabelNeighborhood: {"city", "state", "county"},
	types.LabelArticle:      {"best_city", "best_state", "best_county"},
}

// Run executes the full staged build over the given snapshots and
// returns the structured report. The report is always returned, also
// alongside a fatal error.
func (p *Pipeline) Run(ctx context.Context, sources Sources) (*types.RunReport, error) {
	return p.run(ctx, sources)
}

// materialized is one node type's unit of work in the materialize
// stage. The closure owns batch, warnings and elapsed until the stage
// barrier; the report is only touched after every unit has finished.
type materialized struct {
	label    types.NodeLabel
	fn       materialize.Func
	batch    *types.NodeBatch
	warnings []string
	elapsed  time.Duration
}

func (p *Pipeline) run(ctx context.Context, sources Sources) (*types.RunReport, error) {
	report := types.NewRunReport(uuid.NewString())
	p.logger.Info("Starting graph build", "run_id", report.RunID,
		"properties", sources.Properties.Len(),
		"neighborhoods", sources.Neighborhoods.Len(),
		"articles", sources.Articles.Len())

	fatal := func(err error) (*types.RunReport, error) {
		report.Success = false
		report.FatalError = err.Error()
		report.FinishedAt = time.Now()
		p.logger.Error("Graph build aborted", "run_id", report.RunID, "error", err)
		return report, err
	}

	// Stage 1: materialize the full node set for every type. A schema
	// mismatch here is fatal before anything is written.
	units := []materialized{
		{label: types.LabelProperty, fn: func() (*types.NodeBatch, []string, error) { return p.builder.Properties(sources.Properties) }},
		{label: types.LabelNeighborhood, fn: func() (*types.NodeBatch, []string, error) { return p.builder.Neighborhoods(sources.Neighborhoods) }},
		{label: types.LabelArticle, fn: func() (*types.NodeBatch, []string, error) { return p.builder.Articles(sources.Articles) }},
		{label: types.LabelFeature, fn: func() (*types.NodeBatch, []string, error) { return p.builder.Features(sources.Properties) }},
		{label: types.LabelPropertyType, fn: func() (*types.NodeBatch, []string, error) { return p.builder.PropertyTypes(sources.Properties) }},
		{label: types.LabelPriceRange, fn: func() (*types.NodeBatch, []string, error) { return p.builder.PriceRanges() }},
		{label: types.LabelCity, fn: func() (*types.NodeBatch, []string, error) { return p.builder.Cities(sources.Properties, sources.Neighborhoods) }},
		{label: types.LabelState, fn: func() (*types.NodeBatch, []string, error) {
			return p.builder.States(sources.Properties, sources.Neighborhoods, sources.Articles)
		}},
		{label: types.LabelCounty, fn: func() (*types.NodeBatch, []string, error) { return p.builder.Counties(sources.Neighborhoods) }},
		{label: types.LabelZipCode, fn: func() (*types.NodeBatch, []string, error) { return p.builder.ZipCodes(sources.Properties) }},
	}

	nodeSets, err := p.materializeStage(ctx, units, report)
	if err != nil {
		return fatal(err)
	}

	// Stage 2: write every node batch. Any failure here aborts the run;
	// a relationship phase must never run against an incomplete node set.
	if err := p.writer.CreateIndices(ctx); err != nil {
		return fatal(fmt.Errorf("failed to create indices: %w", err))
	}
	if err := p.writeNodesStage(ctx, nodeSets, report); err != nil {
		return fatal(err)
	}

	// Stage 3+4: build and write relationships. A failing relationship
	// type does not stop its siblings; the run is marked failed at
	// summary time instead.
	snap := relate.NewSnapshot(nodeSets)
	strategies := []relate.Strategy{
		relate.GeographyStrategy{},
		relate.NewClassificationStrategy(p.opts.PriceBuckets),
		relate.NewSimilarityStrategy(p.similarityThreshold(), p.opts.SimilarityTopK),
		relate.ContentLocationStrategy{},
	}
	edgesFailed := p.relationshipStage(ctx, snap, strategies, report)

	// Stage 5: cleanup strips denormalized fields, only after every
	// relationship type was durably written.
	if !edgesFailed {
		if err := p.cleanupStage(ctx, report); err != nil {
			report.Warn(fmt.Sprintf("cleanup failed: %v", err))
			edgesFailed = true
		}
	} else {
		report.Warn("skipping cleanup: one or more relationship types failed")
	}

	report.Success = !edgesFailed
	report.FinishedAt = time.Now()
	p.logger.Info("Graph build finished", "run_id", report.RunID,
		"success", report.Success,
		"nodes_written", report.NodesWritten(),
		"edges_written", report.EdgesWritten(),
		"elapsed", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func (p *Pipeline) materializeStage(ctx context.Context, units []materialized, report *types.RunReport) (map[types.NodeLabel]*types.NodeBatch, error) {
	started := time.Now()
	fns := make([]func() error, len(units))
	for i := range units {
		unit := &units[i]
		fns[i] = func() error {
			unitStarted := time.Now()
			batch, warnings, err := unit.fn()
			unit.elapsed = time.Since(unitStarted)
			if err != nil {
				return err
			}
			unit.batch = batch
			unit.warnings = warnings
			return nil
		}
	}

	for _, err := range utils.SemaphoreGather(ctx, p.opts.MaxConcurrency, fns...) {
		if err != nil {
			return nil, err
		}
	}

	nodeSets := make(map[types.NodeLabel]*types.NodeBatch, len(units))
	for _, unit := range units {
		nodeSets[unit.label] = unit.batch
		report.Nodes[unit.label] = &types.StageStats{Skipped: unit.batch.Skipped, Elapsed: unit.elapsed}
		for _, w := range unit.warnings {
			report.Warn(w)
		}
	}
	p.logger.Info("Materialized node set", "labels", len(units), "elapsed", time.Since(started))
	return nodeSets, nil
}

func (p *Pipeline) writeNodesStage(ctx context.Context, nodeSets map[types.NodeLabel]*types.NodeBatch, report *types.RunReport) error {
	fns := make([]func() error, 0, len(nodeSets))
	for _, label := range types.AllNodeLabels() {
		batch, ok := nodeSets[label]
		if !ok {
			continue
		}
		stats := report.Nodes[label]
		fns = append(fns, func() error {
			started := time.Now()
			written, err := p.coord.WriteNodes(ctx, batch)
			stats.Elapsed += time.Since(started)
			if err != nil {
				stats.Failed = true
				stats.Error = err.Error()
				return err
			}
			stats.Written = written
			return nil
		})
	}

	for _, err := range utils.SemaphoreGather(ctx, p.opts.MaxConcurrency, fns...) {
		if err != nil {
			return err
		}
	}
	return nil
}

// relationshipStage builds and writes every relationship type, returning
// whether any of them failed.
func (p *Pipeline) relationshipStage(ctx context.Context, snap *relate.Snapshot, strategies []relate.Strategy, report *types.RunReport) bool {
	type strategyResult struct {
		batches  []*types.EdgeBatch
		warnings []string
		err      error
		name     string
	}

	results := make([]strategyResult, len(strategies))
	fns := make([]func() error, len(strategies))
	for i, strategy := range strategies {
		fns[i] = func() error {
			batches, warnings, err := strategy.Build(ctx, snap)
			results[i] = strategyResult{batches: batches, warnings: warnings, err: err, name: strategy.Name()}
			return nil
		}
	}
	failed := false
	// Build closures stash errors in results; anything coming back
	// through the gather itself is a recovered panic inside a strategy.
	for _, err := range utils.SemaphoreGather(ctx, p.opts.MaxConcurrency, fns...) {
		if err != nil {
			report.Warn(fmt.Sprintf("relationship strategy crashed: %v", err))
			failed = true
		}
	}
	var writes []func() error
	for _, result := range results {
		for _, w := range result.warnings {
			report.Warn(w)
		}
		if result.err != nil {
			report.Warn(fmt.Sprintf("strategy %s failed: %v", result.name, result.err))
			failed = true
			continue
		}
		for _, batch := range result.batches {
			stats := &types.StageStats{Skipped: batch.Skipped}
			report.Edges[batch.Type] = stats
			writes = append(writes, func() error {
				started := time.Now()
				written, err := p.coord.WriteEdges(ctx, batch)
				stats.Elapsed = time.Since(started)
				if err != nil {
					stats.Failed = true
					stats.Error = err.Error()
					return err
				}
				stats.Written = written
				return nil
			})
		}
	}

	for _, err := range utils.SemaphoreGather(ctx, p.opts.MaxConcurrency, writes...) {
		if err != nil {
			report.Warn(err.Error())
			failed = true
		}
	}
	return failed
}

func (p *Pipeline) cleanupStage(ctx context.Context, report *types.RunReport) error {
	for _, label := range []types.NodeLabel{types.LabelProperty, types.LabelNeighborhood, types.LabelArticle} {
		if err := p.coord.RemoveProperties(ctx, label, denormalizedFields[label]); err != nil {
			return err
		}
	}
	report.CleanupRan = true
	p.logger.Info("Removed denormalized fields", "labels", 3)
	return nil
}
