package relate

import (
	"context"

	"github.com/estategraph/estategraph/pkg/types"
)

// ClassificationStrategy links each property to its classification
// buckets: canonical feature tokens (HAS_FEATURE), the canonical type
// token (OF_TYPE), and the fixed price bucket its price falls into
// (IN_PRICE_RANGE). Bucket assignment depends only on the property's own
// price and the configured boundaries, never on other properties.
type ClassificationStrategy struct {
	Buckets []types.PriceBucket
}

// NewClassificationStrategy builds the strategy, defaulting the price
// boundaries when none are configured.
func NewClassificationStrategy(buckets []types.PriceBucket) *ClassificationStrategy {
	if len(buckets) == 0 {
		buckets = types.DefaultPriceBuckets()
	}
	return &ClassificationStrategy{Buckets: buckets}
}

func (s *ClassificationStrategy) Name() string { return "classification" }

func (s *ClassificationStrategy) Build(_ context.Context, snap *Snapshot) ([]*types.EdgeBatch, []string, error) {
	var warnings []string

	hasFeature := types.NewEdgeBatch(types.EdgeHasFeature)
	ofType := types.NewEdgeBatch(types.EdgeOfType)
	inRange := types.NewEdgeBatch(types.EdgeInPriceRange)
	batches := []*types.EdgeBatch{hasFeature, ofType, inRange}

	if snap.Empty(types.LabelProperty) {
		warnings = append(warnings, "no Property nodes materialized, skipping classification relationships")
		return batches, warnings, nil
	}

	linkFeatures := !snap.Empty(types.LabelFeature)
	if !linkFeatures {
		warnings = append(warnings, systemicSkip(types.EdgeHasFeature, types.LabelFeature))
	}
	linkTypes := !snap.Empty(types.LabelPropertyType)
	if !linkTypes {
		warnings = append(warnings, systemicSkip(types.EdgeOfType, types.LabelPropertyType))
	}
	linkRanges := !snap.Empty(types.LabelPriceRange)
	if !linkRanges {
		warnings = append(warnings, systemicSkip(types.EdgeInPriceRange, types.LabelPriceRange))
	}

	for _, prop := range snap.Batch(types.LabelProperty).Nodes() {
		if linkFeatures {
			if features, ok := propStrings(prop, "features"); ok {
				for _, raw := range features {
					token := types.CanonicalToken(raw)
					if token == "" {
						continue
					}
					guard(snap, hasFeature, &types.Edge{
						Type:      types.EdgeHasFeature,
						FromLabel: types.LabelProperty, FromKey: prop.Key,
						ToLabel: types.LabelFeature, ToKey: token,
					})
				}
			} else {
				hasFeature.Skip(types.SkipMissingField)
			}
		}

		if linkTypes {
			if raw, ok := propString(prop, "property_type"); ok {
				guard(snap, ofType, &types.Edge{
					Type:      types.EdgeOfType,
					FromLabel: types.LabelProperty, FromKey: prop.Key,
					ToLabel: types.LabelPropertyType, ToKey: types.CanonicalToken(raw),
				})
			} else {
				ofType.Skip(types.SkipMissingField)
			}
		}

		if linkRanges {
			if price, ok := propFloat(prop, "price"); ok {
				label := types.PriceBucketFor(price, s.Buckets)
				if label == "" {
					inRange.Skip(types.SkipNoMatch)
					continue
				}
				guard(snap, inRange, &types.Edge{
					Type:      types.EdgeInPriceRange,
					FromLabel: types.LabelProperty, FromKey: prop.Key,
					ToLabel: types.LabelPriceRange, ToKey: label,
				})
			} else {
				inRange.Skip(types.SkipMissingField)
			}
		}
	}

	return batches, warnings, nil
}
