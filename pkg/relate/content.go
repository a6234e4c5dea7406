package relate

import (
	"context"

	"github.com/estategraph/estategraph/pkg/types"
)

// Confidence scores attached to DESCRIBES edges, by matching tier.
const (
	ConfidenceExactMatch  = 0.9
	ConfidenceCountyMatch = 0.6
)

// ContentLocationStrategy matches each article to neighborhoods through
// its geographic hint fields, in priority order: an exact city+state
// match first, a county match as the fallback, otherwise no edge. The
// confidence score records which tier matched.
type ContentLocationStrategy struct{}

func (ContentLocationStrategy) Name() string { return "content-location" }

func (ContentLocationStrategy) Build(_ context.Context, snap *Snapshot) ([]*types.EdgeBatch, []string, error) {
	batch := types.NewEdgeBatch(types.EdgeDescribes)

	if snap.Empty(types.LabelArticle) {
		return []*types.EdgeBatch{batch}, []string{systemicSkip(types.EdgeDescribes, types.LabelArticle)}, nil
	}
	if snap.Empty(types.LabelNeighborhood) {
		return []*types.EdgeBatch{batch}, []string{systemicSkip(types.EdgeDescribes, types.LabelNeighborhood)}, nil
	}

	// Index neighborhoods by their inline location fields once; the
	// article scan is then O(n).
	byCityState := make(map[string][]string)
	byCountyState := make(map[string][]string)
	for _, nb := range snap.Batch(types.LabelNeighborhood).Nodes() {
		state, okState := propString(nb, "state")
		if !okState {
			continue
		}
		if city, ok := propString(nb, "city"); ok {
			key := types.CompositeKey(city, state)
			byCityState[key] = append(byCityState[key], nb.Key)
		}
		if county, ok := propString(nb, "county"); ok {
			key := types.CompositeKey(county, state)
			byCountyState[key] = append(byCountyState[key], nb.Key)
		}
	}

	for _, article := range snap.Batch(types.LabelArticle).Nodes() {
		state, okState := propString(article, "best_state")
		if !okState {
			batch.Skip(types.SkipMissingField)
			continue
		}

		matches, confidence := matchTiers(article, state, byCityState, byCountyState)
		if len(matches) == 0 {
			batch.Skip(types.SkipNoMatch)
			continue
		}
		for _, nbKey := range matches {
			score := confidence
			guard(snap, batch, &types.Edge{
				Type:      types.EdgeDescribes,
				FromLabel: types.LabelArticle, FromKey: article.Key,
				ToLabel: types.LabelNeighborhood, ToKey: nbKey,
				Score: &score,
			})
		}
	}

	return []*types.EdgeBatch{batch}, nil, nil
}

// matchTiers tries each tier in order and stops at the first that
// produces any neighborhood; a county fallback is never mixed with
// exact-match confidence.
func matchTiers(article *types.Node, state string, byCityState, byCountyState map[string][]string) ([]string, float64) {
	if city, ok := propString(article, "best_city"); ok {
		if matches := byCityState[types.CompositeKey(city, state)]; len(matches) > 0 {
			return matches, ConfidenceExactMatch
		}
	}
	if county, ok := propString(article, "best_county"); ok {
		if matches := byCountyState[types.CompositeKey(county, state)]; len(matches) > 0 {
			return matches, ConfidenceCountyMatch
		}
	}
	return nil, 0
}
