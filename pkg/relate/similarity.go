package relate

import (
	"context"
	"fmt"
	"sort"

	"github.com/estategraph/estategraph/pkg/types"
	"github.com/estategraph/estategraph/pkg/utils"
)

// DefaultSimilarityThreshold is the minimum cosine similarity, inclusive,
// for a SIMILAR_TO edge.
const DefaultSimilarityThreshold = 0.5

// DefaultSimilarityTopK bounds the candidate set per entity.
const DefaultSimilarityTopK = 10

// SimilarityStrategy links entities of the same label whose embedding
// vectors are close: exact top-K cosine neighbors per entity, kept when
// the score meets the threshold. Entities are visited in key order and
// ties keep the earlier candidate, so the same vectors and K always yield
// the same edges. SIMILAR_TO is undirected; the pair is canonicalized as
// (min key, max key) so at most one record exists per pair.
type SimilarityStrategy struct {
	Threshold float64
	TopK      int
}

// NewSimilarityStrategy builds the strategy. The threshold is used as
// given; cosine scores span [-1, 1], so zero and negative thresholds are
// meaningful. Callers that want the default pass
// DefaultSimilarityThreshold. A non-positive K falls back to
// DefaultSimilarityTopK.
func NewSimilarityStrategy(threshold float64, topK int) *SimilarityStrategy {
	if topK <= 0 {
		topK = DefaultSimilarityTopK
	}
	return &SimilarityStrategy{Threshold: threshold, TopK: topK}
}

func (s *SimilarityStrategy) Name() string { return "similarity" }

func (s *SimilarityStrategy) Build(ctx context.Context, snap *Snapshot) ([]*types.EdgeBatch, []string, error) {
	batch := types.NewEdgeBatch(types.EdgeSimilarTo)
	var warnings []string

	for _, label := range []types.NodeLabel{types.LabelProperty, types.LabelNeighborhood} {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if warn := s.linkLabel(snap, label, batch); warn != "" {
			warnings = append(warnings, warn)
		}
	}

	return []*types.EdgeBatch{batch}, warnings, nil
}

type embedded struct {
	key    string
	vector []float32
}

func (s *SimilarityStrategy) linkLabel(snap *Snapshot, label types.NodeLabel, batch *types.EdgeBatch) string {
	nodes := snap.Batch(label)
	if nodes == nil || nodes.Len() == 0 {
		return systemicSkip(types.EdgeSimilarTo, label)
	}

	entities := make([]embedded, 0, nodes.Len())
	for _, n := range nodes.Nodes() {
		if vec, ok := propVector(n, "embedding"); ok {
			entities = append(entities, embedded{key: n.Key, vector: vec})
		} else {
			batch.Skip(types.SkipMissingField)
		}
	}
	if len(entities) < 2 {
		return fmt.Sprintf("fewer than two %s nodes carry embeddings, skipping %s", label, types.EdgeSimilarTo)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].key < entities[j].key })

	seen := make(map[string]struct{})
	for _, entity := range entities {
		candidates := make([]utils.ScoredItem[string], 0, len(entities)-1)
		for _, other := range entities {
			if other.key == entity.key {
				continue
			}
			candidates = append(candidates, utils.ScoredItem[string]{
				Item:  other.key,
				Score: utils.CosineSimilarity(entity.vector, other.vector),
			})
		}

		for _, neighbor := range utils.TopKByScore(candidates, s.TopK) {
			if neighbor.Score < s.Threshold {
				batch.Skip(types.SkipBelowThreshold)
				continue
			}
			fromKey, toKey := entity.key, neighbor.Item
			if toKey < fromKey {
				fromKey, toKey = toKey, fromKey
			}
			pair := fromKey + "|" + toKey
			if _, dup := seen[pair]; dup {
				batch.Skip(types.SkipDuplicatePair)
				continue
			}
			seen[pair] = struct{}{}

			score := neighbor.Score
			guard(snap, batch, &types.Edge{
				Type:      types.EdgeSimilarTo,
				FromLabel: label, FromKey: fromKey,
				ToLabel: label, ToKey: toKey,
				Score: &score,
			})
		}
	}
	return ""
}
