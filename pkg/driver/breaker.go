package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/estategraph/estategraph/pkg/types"
)

// BreakerWriter wraps a GraphWriter with a circuit breaker so a failing
// store trips fast instead of burning the retry budget on every batch.
// Index creation and cleanup run once per run and bypass the breaker.
type BreakerWriter struct {
	inner GraphWriter
	cb    *gobreaker.CircuitBreaker
}

// BreakerSettings configures the write circuit breaker.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
}

// NewBreakerWriter wraps a writer with a circuit breaker.
func NewBreakerWriter(inner GraphWriter, cfg BreakerSettings, logger *slog.Logger) *BreakerWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadyToTripRatio <= 0 {
		cfg.ReadyToTripRatio = 0.6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        "graph-writes",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Error("Graph write circuit breaker tripped", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
	}

	return &BreakerWriter{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerWriter) CreateIndices(ctx context.Context) error {
	return b.inner.CreateIndices(ctx)
}

func (b *BreakerWriter) UpsertNodes(ctx context.Context, label types.NodeLabel, nodes []*types.Node) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.UpsertNodes(ctx, label, nodes)
	})
	return err
}

func (b *BreakerWriter) UpsertEdges(ctx context.Context, edgeType types.EdgeType, edges []*types.Edge) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.UpsertEdges(ctx, edgeType, edges)
	})
	return err
}

func (b *BreakerWriter) RemoveNodeProperties(ctx context.Context, label types.NodeLabel, fields []string) error {
	return b.inner.RemoveNodeProperties(ctx, label, fields)
}

func (b *BreakerWriter) Close(ctx context.Context) error {
	return b.inner.Close(ctx)
}
