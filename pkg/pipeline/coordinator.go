package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/estategraph/estategraph/pkg/driver"
	"github.com/estategraph/estategraph/pkg/types"
	"github.com/estategraph/estategraph/pkg/utils"
)

// Coordinator issues batched, retried writes against the graph store.
// Partitioning keeps individual store transactions bounded; each batch
// call gets its own timeout and a bounded number of attempts before the
// batch is declared failed.
type Coordinator struct {
	writer    driver.GraphWriter
	batchSize int
	retries   int
	timeout   time.Duration
	logger    *slog.Logger
}

// NewCoordinator creates a write coordinator. Non-positive batch size
// and timeout fall back to 500 rows and 30s; a negative retry count
// falls back to 2, while zero means a single attempt.
func NewCoordinator(writer driver.GraphWriter, batchSize, retries int, timeout time.Duration, logger *slog.Logger) *Coordinator {
	if batchSize <= 0 {
		batchSize = 500
	}
	if retries < 0 {
		retries = 2
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		writer:    writer,
		batchSize: batchSize,
		retries:   retries,
		timeout:   timeout,
		logger:    logger,
	}
}

// WriteNodes upserts one label's node batch and returns the count
// written.
func (c *Coordinator) WriteNodes(ctx context.Context, batch *types.NodeBatch) (int, error) {
	nodes := batch.Nodes()
	for _, chunk := range utils.Batch(nodes, c.batchSize) {
		err := c.withRetries(ctx, fmt.Sprintf("%s nodes", batch.Label), func(callCtx context.Context) error {
			return c.writer.UpsertNodes(callCtx, batch.Label, chunk)
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %s node batch: %v", types.ErrWriteFailure, batch.Label, err)
		}
	}
	c.logger.Info("Persisted node batch", "label", string(batch.Label), "count", len(nodes))
	return len(nodes), nil
}

// WriteEdges upserts one relationship type's edge batch and returns the
// count written.
func (c *Coordinator) WriteEdges(ctx context.Context, batch *types.EdgeBatch) (int, error) {
	edges := batch.Edges()
	for _, chunk := range utils.Batch(edges, c.batchSize) {
		err := c.withRetries(ctx, fmt.Sprintf("%s edges", batch.Type), func(callCtx context.Context) error {
			return c.writer.UpsertEdges(callCtx, batch.Type, chunk)
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %s edge batch: %v", types.ErrWriteFailure, batch.Type, err)
		}
	}
	c.logger.Info("Persisted edge batch", "type", string(batch.Type), "count", len(edges))
	return len(edges), nil
}

// RemoveProperties strips denormalized fields from one label's nodes.
func (c *Coordinator) RemoveProperties(ctx context.Context, label types.NodeLabel, fields []string) error {
	err := c.withRetries(ctx, fmt.Sprintf("%s cleanup", label), func(callCtx context.Context) error {
		return c.writer.RemoveNodeProperties(callCtx, label, fields)
	})
	if err != nil {
		return fmt.Errorf("%w: cleanup of %s: %v", types.ErrWriteFailure, label, err)
	}
	return nil
}

// withRetries runs one write call under a timeout, retrying a bounded
// number of times. A timeout counts as the attempt failing.
func (c *Coordinator) withRetries(ctx context.Context, what string, call func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		lastErr = call(callCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("Write batch failed", "target", what, "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("exhausted %d attempts: %w", c.retries+1, lastErr)
}
