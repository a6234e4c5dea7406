// Package source provides typed, read-only views over the upstream
// tabular entity feeds. A Table carries a declared schema with per-column
// nullability; the engine asserts required columns up front and otherwise
// only iterates. Tables are immutable for the duration of a run and safe
// to share across concurrent stages without locking.
package source

import (
	"fmt"
	"strconv"

	"github.com/estategraph/estategraph/pkg/types"
)

// Column names shared between the loaders and the materialization rules.
const (
	ColListingID      = "listing_id"
	ColPrice          = "price"
	ColBedrooms       = "bedrooms"
	ColBathrooms      = "bathrooms"
	ColSquareFeet     = "square_feet"
	ColFeatures       = "features"
	ColPropertyType   = "property_type"
	ColAddress        = "address"
	ColCity           = "city"
	ColState          = "state"
	ColCounty         = "county"
	ColZipCode        = "zip_code"
	ColNeighborhoodID = "neighborhood_id"
	ColName           = "name"
	ColPageID         = "page_id"
	ColTitle          = "title"
	ColSummary        = "summary"
	ColBestCity       = "best_city"
	ColBestState      = "best_state"
	ColBestCounty     = "best_county"
	ColEmbedding      = "embedding"
)

// Column declares one schema column.
type Column struct {
	Name     string
	Nullable bool
}

// Record is one source row. Values may be absent or nil for nullable
// columns; the typed accessors report presence alongside the value.
type Record map[string]any

// Table is a read-only snapshot of one upstream dataset.
type Table struct {
	name    string
	columns map[string]Column
	rows    []Record
}

// NewTable builds a table over the given rows. The rows are referenced,
// not copied; callers hand over ownership.
func NewTable(name string, columns []Column, rows []Record) *Table {
	cols := make(map[string]Column, len(columns))
	for _, c := range columns {
		cols[c.Name] = c
	}
	return &Table{name: name, columns: cols, rows: rows}
}

// Name returns the dataset name, used in error and report messages.
func (t *Table) Name() string { return t.name }

// Len returns the row count. A nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns the underlying rows. Callers must treat them as read-only.
func (t *Table) Rows() []Record {
	if t == nil {
		return nil
	}
	return t.rows
}

// HasColumn reports whether the schema declares the column at all,
// independent of whether values are null.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.columns[name]
	return ok
}

// Require asserts that every named column is declared in the schema.
// A missing column is a schema mismatch, fatal for the entity type that
// depends on it.
func (t *Table) Require(columns ...string) error {
	for _, name := range columns {
		if !t.HasColumn(name) {
			return fmt.Errorf("%w: source %q does not declare column %q", types.ErrSchemaMismatch, t.Name(), name)
		}
	}
	return nil
}

// String returns the column value as a non-empty string, with presence.
func (r Record) String(column string) (string, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Float returns the column value as a float64, with presence. Numeric
// source loaders disagree on width, so every numeric type is accepted.
func (r Record) Float(column string) (float64, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns the column value as an int, with presence.
func (r Record) Int(column string) (int, bool) {
	f, ok := r.Float(column)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Strings returns the column value as a string list, with presence.
// Accepts []string and []any-of-string, which covers JSON-decoded rows.
func (r Record) Strings(column string) ([]string, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		if len(list) == 0 {
			return nil, false
		}
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// Vector returns the column value as an embedding vector, with presence.
func (r Record) Vector(column string) ([]float32, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return nil, false
	}
	switch vec := v.(type) {
	case []float32:
		if len(vec) == 0 {
			return nil, false
		}
		return vec, true
	case []float64:
		out := make([]float32, len(vec))
		for i, f := range vec {
			out[i] = float32(f)
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// PropertyColumns is the declared schema for the property feed.
func PropertyColumns() []Column {
	return []Column{
		{Name: ColListingID},
		{Name: ColPrice, Nullable: true},
		{Name: ColBedrooms, Nullable: true},
		{Name: ColBathrooms, Nullable: true},
		{Name: ColSquareFeet, Nullable: true},
		{Name: ColFeatures, Nullable: true},
		{Name: ColPropertyType, Nullable: true},
		{Name: ColAddress, Nullable: true},
		{Name: ColCity, Nullable: true},
		{Name: ColState, Nullable: true},
		{Name: ColZipCode, Nullable: true},
		{Name: ColNeighborhoodID, Nullable: true},
		{Name: ColEmbedding, Nullable: true},
	}
}

// NeighborhoodColumns is the declared schema for the neighborhood feed.
func NeighborhoodColumns() []Column {
	return []Column{
		{Name: ColNeighborhoodID},
		{Name: ColName, Nullable: true},
		{Name: ColCity, Nullable: true},
		{Name: ColState, Nullable: true},
		{Name: ColCounty, Nullable: true},
		{Name: ColEmbedding, Nullable: true},
	}
}

// ArticleColumns is the declared schema for the encyclopedia article feed.
func ArticleColumns() []Column {
	return []Column{
		{Name: ColPageID},
		{Name: ColTitle, Nullable: true},
		{Name: ColSummary, Nullable: true},
		{Name: ColBestCity, Nullable: true},
		{Name: ColBestState, Nullable: true},
		{Name: ColBestCounty, Nullable: true},
		{Name: ColEmbedding, Nullable: true},
	}
}
