package estategraph

import (
	"context"
	"log/slog"
	"time"

	"github.com/estategraph/estategraph/pkg/driver"
	"github.com/estategraph/estategraph/pkg/pipeline"
	"github.com/estategraph/estategraph/pkg/telemetry"
	"github.com/estategraph/estategraph/pkg/types"
)

// Sources holds the three entity snapshots a build consumes.
type Sources = pipeline.Sources

// Builder is the main interface for turning flat real-estate tables
// into a labeled graph.
type Builder interface {
	// BuildGraph runs the full staged build against the configured
	// graph store and returns the run report. The report is returned
	// even when the error is non-nil.
	BuildGraph(ctx context.Context, sources Sources) (*types.RunReport, error)

	// CreateIndices creates the uniqueness constraints the merge
	// semantics depend on. BuildGraph calls this itself; it is exposed
	// for operators who want to prepare a store ahead of time.
	CreateIndices(ctx context.Context) error

	// Close closes the underlying graph store connection.
	Close(ctx context.Context) error
}

// Config holds configuration for the Client.
type Config struct {
	// BatchSize caps how many nodes or relationships go into one write.
	BatchSize int
	// WriteRetries is how many times a failed write batch is retried.
	WriteRetries int
	// WriteTimeout bounds a single write batch.
	WriteTimeout time.Duration
	// MaxConcurrency caps concurrent node types within a stage.
	MaxConcurrency int
	// SimilarityThreshold is the minimum cosine similarity, inclusive,
	// for SIMILAR_TO relationships. Nil means the default; zero and
	// negative values are explicit thresholds, since cosine scores
	// span [-1, 1].
	SimilarityThreshold *float64
	// SimilarityTopK caps SIMILAR_TO neighbors per property.
	SimilarityTopK int
	// PriceBuckets overrides the built-in price range boundaries.
	PriceBuckets []types.PriceBucket
	// TelemetryDir, when set, receives one Parquet file per run.
	TelemetryDir string
}

// Client implements Builder over a driver.GraphWriter.
type Client struct {
	writer driver.GraphWriter
	pipe   *pipeline.Pipeline
	sink   *telemetry.Sink
	logger *slog.Logger
}

// NewClient creates a client. A nil config means defaults; a nil logger
// falls back to slog.Default.
func NewClient(writer driver.GraphWriter, config *Config, logger *slog.Logger) (*Client, error) {
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var sink *telemetry.Sink
	if config.TelemetryDir != "" {
		var err error
		sink, err = telemetry.NewSink(config.TelemetryDir)
		if err != nil {
			return nil, err
		}
	}

	pipe := pipeline.New(writer, pipeline.Options{
		BatchSize:           config.BatchSize,
		WriteRetries:        config.WriteRetries,
		WriteTimeout:        config.WriteTimeout,
		MaxConcurrency:      config.MaxConcurrency,
		SimilarityThreshold: config.SimilarityThreshold,
		SimilarityTopK:      config.SimilarityTopK,
		PriceBuckets:        config.PriceBuckets,
	}, logger)

	return &Client{
		writer: writer,
		pipe:   pipe,
		sink:   sink,
		logger: logger,
	}, nil
}

// BuildGraph implements Builder. Telemetry write failures never fail
// the build; they are logged and the report is returned as-is.
func (c *Client) BuildGraph(ctx context.Context, sources Sources) (*types.RunReport, error) {
	report, err := c.pipe.Run(ctx, sources)
	if c.sink != nil && report != nil {
		if terr := c.sink.Record(report); terr != nil {
			c.logger.Warn("Failed to record run telemetry", "run_id", report.RunID, "error", terr)
		}
	}
	return report, err
}

// CreateIndices implements Builder.
func (c *Client) CreateIndices(ctx context.Context) error {
	return c.writer.CreateIndices(ctx)
}

// Close implements Builder.
func (c *Client) Close(ctx context.Context) error {
	return c.writer.Close(ctx)
}
