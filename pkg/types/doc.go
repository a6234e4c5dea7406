// Package types defines the graph data model shared across the engine:
// node labels with their natural keys, relationship types, deduplicating
// node/edge batches, price-bucket boundaries, and the structured run
// report with its skip-reason taxonomy.
package types
