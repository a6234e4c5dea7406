// Package materialize extracts the full node set from the source
// snapshots before any relationship work begins. Each node type has one
// extraction rule producing a deduplicated batch keyed by natural key;
// derived types (features, property types, price ranges, geography) are
// scanned out of raw attributes.
package materialize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/estategraph/estategraph/pkg/source"
	"github.com/estategraph/estategraph/pkg/types"
)

// Materializer holds the pure configuration node extraction depends on.
type Materializer struct {
	buckets []types.PriceBucket
	logger  *slog.Logger
}

// New creates a Materializer. Nil buckets fall back to the default price
// boundaries; a nil logger falls back to slog.Default.
func New(buckets []types.PriceBucket, logger *slog.Logger) *Materializer {
	if len(buckets) == 0 {
		buckets = types.DefaultPriceBuckets()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{buckets: buckets, logger: logger}
}

// Func is one node type's materialization unit, runnable concurrently
// with its siblings. It returns the batch, non-fatal warnings, and an
// error only for schema mismatches.
type Func func() (*types.NodeBatch, []string, error)

// Properties materializes Property nodes from the property feed.
// The listing_id column is required schema; every other field is carried
// as an attribute when present. The inlined neighborhood_id and address
// text stay on the node until cleanup because the relationship builders
// need them.
func (m *Materializer) Properties(tbl *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelProperty)
	if tbl.Len() == 0 {
		return batch, []string{emptySourceWarning("properties", types.LabelProperty)}, nil
	}
	if err := tbl.Require(source.ColListingID); err != nil {
		return nil, nil, err
	}

	for _, row := range tbl.Rows() {
		id, ok := row.String(source.ColListingID)
		if !ok {
			batch.Skip(types.SkipMissingField)
			continue
		}

		props := map[string]any{}
		if price, ok := row.Float(source.ColPrice); ok {
			props["price"] = price
		}
		if beds, ok := row.Int(source.ColBedrooms); ok {
			props["bedrooms"] = beds
		}
		if baths, ok := row.Float(source.ColBathrooms); ok {
			props["bathrooms"] = baths
		}
		if area, ok := row.Float(source.ColSquareFeet); ok {
			props["square_feet"] = area
		}
		if features, ok := row.Strings(source.ColFeatures); ok {
			props["features"] = features
		}
		if ptype, ok := row.String(source.ColPropertyType); ok {
			props["property_type"] = ptype
		}
		if addr, ok := row.String(source.ColAddress); ok {
			props["address"] = addr
		}
		if city, ok := row.String(source.ColCity); ok {
			props["city"] = city
		}
		if state, ok := row.String(source.ColState); ok {
			props["state"] = strings.ToUpper(strings.TrimSpace(state))
		}
		if zip, ok := row.String(source.ColZipCode); ok {
			props["zip_code"] = zip
		}
		if nbID, ok := row.String(source.ColNeighborhoodID); ok {
			props["neighborhood_id"] = nbID
		}
		if vec, ok := row.Vector(source.ColEmbedding); ok {
			props["embedding"] = vec
		}
		batch.Add(id, props)
	}
	return batch, nil, nil
}

// Neighborhoods materializes Neighborhood nodes from the neighborhood
// feed. The neighborhood_id column is required schema.
func (m *Materializer) Neighborhoods(tbl *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelNeighborhood)
	if tbl.Len() == 0 {
		return batch, []string{emptySourceWarning("neighborhoods", types.LabelNeighborhood)}, nil
	}
	if err := tbl.Require(source.ColNeighborhoodID); err != nil {
		return nil, nil, err
	}

	for _, row := range tbl.Rows() {
		id, ok := row.String(source.ColNeighborhoodID)
		if !ok {
			batch.Skip(types.SkipMissingField)
			continue
		}

		props := map[string]any{}
		if name, ok := row.String(source.ColName); ok {
			props["name"] = name
		}
		if city, ok := row.String(source.ColCity); ok {
			props["city"] = city
		}
		if state, ok := row.String(source.ColState); ok {
			props["state"] = strings.ToUpper(strings.TrimSpace(state))
		}
		if county, ok := row.String(source.ColCounty); ok {
			props["county"] = county
		}
		if vec, ok := row.Vector(source.ColEmbedding); ok {
			props["embedding"] = vec
		}
		batch.Add(id, props)
	}
	return batch, nil, nil
}

// Articles materializes Article nodes from the encyclopedia feed. The
// page_id column is required schema. The best_* geographic hints stay on
// the node until cleanup; the content-location matcher reads them.
func (m *Materializer) Articles(tbl *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelArticle)
	if tbl.Len() == 0 {
		return batch, []string{emptySourceWarning("articles", types.LabelArticle)}, nil
	}
	if err := tbl.Require(source.ColPageID); err != nil {
		return nil, nil, err
	}

	for _, row := range tbl.Rows() {
		id, ok := row.String(source.ColPageID)
		if !ok {
			batch.Skip(types.SkipMissingField)
			continue
		}

		props := map[string]any{}
		if title, ok := row.String(source.ColTitle); ok {
			props["title"] = title
		}
		if summary, ok := row.String(source.ColSummary); ok {
			props["summary"] = summary
		}
		if city, ok := row.String(source.ColBestCity); ok {
			props["best_city"] = city
		}
		if state, ok := row.String(source.ColBestState); ok {
			props["best_state"] = strings.ToUpper(strings.TrimSpace(state))
		}
		if county, ok := row.String(source.ColBestCounty); ok {
			props["best_county"] = county
		}
		if vec, ok := row.Vector(source.ColEmbedding); ok {
			props["embedding"] = vec
		}
		batch.Add(id, props)
	}
	return batch, nil, nil
}

func emptySourceWarning(name string, label types.NodeLabel) string {
	return fmt.Sprintf("source %q is empty, %s nodes not materialized", name, label)
}
