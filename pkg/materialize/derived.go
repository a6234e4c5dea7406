package materialize

import (
	"fmt"
	"strings"

	"github.com/estategraph/estategraph/pkg/source"
	"github.com/estategraph/estategraph/pkg/types"
)

// Derived node types are scanned out of raw attributes of the primary
// feeds. An absent backing column produces the node type empty with a
// warning; the run continues without it.

// Features derives Feature nodes by unwinding each property's feature
// list into canonical lower-cased tokens.
func (m *Materializer) Features(properties *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelFeature)
	if warn, ok := derivable(properties, source.ColFeatures, types.LabelFeature); !ok {
		return batch, warn, nil
	}

	for _, row := range properties.Rows() {
		features, ok := row.Strings(source.ColFeatures)
		if !ok {
			batch.Skip(types.SkipMissingField)
			continue
		}
		for _, raw := range features {
			token := types.CanonicalToken(raw)
			if token == "" {
				continue
			}
			batch.Add(token, map[string]any{"name": token})
		}
	}
	return batch, nil, nil
}

// PropertyTypes derives PropertyType nodes from the canonicalized type
// token of each property.
func (m *Materializer) PropertyTypes(properties *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelPropertyType)
	if warn, ok := derivable(properties, source.ColPropertyType, types.LabelPropertyType); !ok {
		return batch, warn, nil
	}

	for _, row := range properties.Rows() {
		raw, ok := row.String(source.ColPropertyType)
		if !ok {
			batch.Skip(types.SkipMissingField)
			continue
		}
		token := types.CanonicalToken(raw)
		if token == "" {
			continue
		}
		batch.Add(token, map[string]any{"name": token})
	}
	return batch, nil, nil
}

// PriceRanges materializes one node per configured price bucket. The
// boundaries are fixed configuration, so the node set is identical across
// runs regardless of the observed price distribution.
func (m *Materializer) PriceRanges() (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelPriceRange)
	for _, bucket := range m.buckets {
		batch.Add(bucket.Label, map[string]any{
			"label": bucket.Label,
			"lower": bucket.Lower,
		})
	}
	return batch, nil, nil
}

// Cities derives City nodes from the inline city/state fields of both
// neighborhoods and properties, deduplicated by the (city, state)
// composite key.
func (m *Materializer) Cities(properties, neighborhoods *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelCity)
	addFrom := func(tbl *source.Table) {
		if !tbl.HasColumn(source.ColCity) || !tbl.HasColumn(source.ColState) {
			return
		}
		for _, row := range tbl.Rows() {
			city, okCity := row.String(source.ColCity)
			state, okState := row.String(source.ColState)
			if !okCity || !okState {
				batch.Skip(types.SkipMissingField)
				continue
			}
			state = strings.ToUpper(strings.TrimSpace(state))
			batch.Add(types.CompositeKey(city, state), map[string]any{
				"name":  strings.TrimSpace(city),
				"state": state,
			})
		}
	}
	addFrom(neighborhoods)
	addFrom(properties)

	if batch.Len() == 0 {
		return batch, []string{fmt.Sprintf("no city/state fields found, %s nodes not materialized", types.LabelCity)}, nil
	}
	return batch, nil, nil
}

// States derives State nodes from every inline state code across the
// primary feeds.
func (m *Materializer) States(properties, neighborhoods, articles *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelState)
	addCol := func(tbl *source.Table, column string) {
		if !tbl.HasColumn(column) {
			return
		}
		for _, row := range tbl.Rows() {
			state, ok := row.String(column)
			if !ok {
				continue
			}
			code := strings.ToUpper(strings.TrimSpace(state))
			if code == "" {
				continue
			}
			batch.Add(code, map[string]any{"code": code})
		}
	}
	addCol(neighborhoods, source.ColState)
	addCol(properties, source.ColState)
	addCol(articles, source.ColBestState)

	if batch.Len() == 0 {
		return batch, []string{fmt.Sprintf("no state fields found, %s nodes not materialized", types.LabelState)}, nil
	}
	return batch, nil, nil
}

// Counties derives County nodes from the neighborhood feed's inline
// county/state fields, deduplicated by the (county, state) composite key.
func (m *Materializer) Counties(neighborhoods *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelCounty)
	if warn, ok := derivable(neighborhoods, source.ColCounty, types.LabelCounty); !ok {
		return batch, warn, nil
	}

	for _, row := range neighborhoods.Rows() {
		county, okCounty := row.String(source.ColCounty)
		state, okState := row.String(source.ColState)
		if !okCounty || !okState {
			batch.Skip(types.SkipMissingField)
			continue
		}
		state = strings.ToUpper(strings.TrimSpace(state))
		batch.Add(types.CompositeKey(county, state), map[string]any{
			"name":  strings.TrimSpace(county),
			"state": state,
		})
	}
	return batch, nil, nil
}

// ZipCodes derives ZipCode nodes from property address fields.
func (m *Materializer) ZipCodes(properties *source.Table) (*types.NodeBatch, []string, error) {
	batch := types.NewNodeBatch(types.LabelZipCode)
	if warn, ok := derivable(properties, source.ColZipCode, types.LabelZipCode); !ok {
		return batch, warn, nil
	}

	for _, row := range properties.Rows() {
		zip, ok := row.String(source.ColZipCode)
		if !ok {
			batch.Skip(types.SkipMissingField)
			continue
		}
		zip = strings.TrimSpace(zip)
		if zip == "" {
			continue
		}
		batch.Add(zip, map[string]any{"code": zip})
	}
	return batch, nil, nil
}

// derivable reports whether the backing column for a derived node type is
// present at all. An absent column or empty table yields the type empty
// with a warning instead of failing the run.
func derivable(tbl *source.Table, column string, label types.NodeLabel) ([]string, bool) {
	if tbl.Len() == 0 {
		return []string{fmt.Sprintf("backing source for %s is empty", label)}, false
	}
	if !tbl.HasColumn(column) {
		return []string{fmt.Sprintf("column %q absent, %s nodes not materialized", column, label)}, false
	}
	return nil, true
}
