package relate

import (
	"context"
	"fmt"

	"github.com/estategraph/estategraph/pkg/types"
)

// GeographyStrategy resolves the geographic hierarchy from inline fields:
// Property→Neighborhood (LOCATED_IN), Property→ZipCode (IN_ZIP),
// Neighborhood→City (PART_OF), Neighborhood/City→County (IN_COUNTY), and
// County→State (IN_STATE). No geocoding or inference happens here; a null
// field skips the edge.
type GeographyStrategy struct{}

func (GeographyStrategy) Name() string { return "geography" }

func (GeographyStrategy) Build(_ context.Context, snap *Snapshot) ([]*types.EdgeBatch, []string, error) {
	var warnings []string

	locatedIn := types.NewEdgeBatch(types.EdgeLocatedIn)
	inZip := types.NewEdgeBatch(types.EdgeInZip)
	partOf := types.NewEdgeBatch(types.EdgePartOf)
	inCounty := types.NewEdgeBatch(types.EdgeInCounty)
	inState := types.NewEdgeBatch(types.EdgeInState)

	properties := snap.Batch(types.LabelProperty)
	neighborhoods := snap.Batch(types.LabelNeighborhood)

	if snap.Empty(types.LabelNeighborhood) {
		warnings = append(warnings, systemicSkip(types.EdgeLocatedIn, types.LabelNeighborhood))
	} else if !snap.Empty(types.LabelProperty) {
		for _, prop := range properties.Nodes() {
			nbID, ok := propString(prop, "neighborhood_id")
			if !ok {
				locatedIn.Skip(types.SkipMissingField)
				continue
			}
			guard(snap, locatedIn, &types.Edge{
				Type:      types.EdgeLocatedIn,
				FromLabel: types.LabelProperty, FromKey: prop.Key,
				ToLabel: types.LabelNeighborhood, ToKey: nbID,
			})
		}
	}

	if !snap.Empty(types.LabelProperty) && !snap.Empty(types.LabelZipCode) {
		for _, prop := range properties.Nodes() {
			zip, ok := propString(prop, "zip_code")
			if !ok {
				inZip.Skip(types.SkipMissingField)
				continue
			}
			guard(snap, inZip, &types.Edge{
				Type:      types.EdgeInZip,
				FromLabel: types.LabelProperty, FromKey: prop.Key,
				ToLabel: types.LabelZipCode, ToKey: zip,
			})
		}
	}

	if snap.Empty(types.LabelCity) {
		warnings = append(warnings, systemicSkip(types.EdgePartOf, types.LabelCity))
	} else if !snap.Empty(types.LabelNeighborhood) {
		for _, nb := range neighborhoods.Nodes() {
			city, okCity := propString(nb, "city")
			state, okState := propString(nb, "state")
			if !okCity || !okState {
				partOf.Skip(types.SkipMissingField)
				continue
			}
			guard(snap, partOf, &types.Edge{
				Type:      types.EdgePartOf,
				FromLabel: types.LabelNeighborhood, FromKey: nb.Key,
				ToLabel: types.LabelCity, ToKey: types.CompositeKey(city, state),
			})
		}
	}

	if snap.Empty(types.LabelCounty) {
		warnings = append(warnings, systemicSkip(types.EdgeInCounty, types.LabelCounty))
	} else if !snap.Empty(types.LabelNeighborhood) {
		for _, nb := range neighborhoods.Nodes() {
			county, okCounty := propString(nb, "county")
			state, okState := propString(nb, "state")
			if !okCounty || !okState {
				inCounty.Skip(types.SkipMissingField)
				continue
			}
			countyKey := types.CompositeKey(county, state)
			guard(snap, inCounty, &types.Edge{
				Type:      types.EdgeInCounty,
				FromLabel: types.LabelNeighborhood, FromKey: nb.Key,
				ToLabel: types.LabelCounty, ToKey: countyKey,
			})
			// A neighborhood that names both its city and county also
			// places that city in the county.
			if city, ok := propString(nb, "city"); ok {
				guard(snap, inCounty, &types.Edge{
					Type:      types.EdgeInCounty,
					FromLabel: types.LabelCity, FromKey: types.CompositeKey(city, state),
					ToLabel: types.LabelCounty, ToKey: countyKey,
				})
			}
		}
	}

	if snap.Empty(types.LabelState) {
		warnings = append(warnings, systemicSkip(types.EdgeInState, types.LabelState))
	} else if !snap.Empty(types.LabelCounty) {
		for _, county := range snap.Batch(types.LabelCounty).Nodes() {
			state, ok := propString(county, "state")
			if !ok {
				inState.Skip(types.SkipMissingField)
				continue
			}
			guard(snap, inState, &types.Edge{
				Type:      types.EdgeInState,
				FromLabel: types.LabelCounty, FromKey: county.Key,
				ToLabel: types.LabelState, ToKey: state,
			})
		}
	}

	return []*types.EdgeBatch{locatedIn, inZip, partOf, inCounty, inState}, warnings, nil
}

func systemicSkip(edgeType types.EdgeType, label types.NodeLabel) string {
	return fmt.Sprintf("no %s nodes materialized, skipping %s relationships", label, edgeType)
}
