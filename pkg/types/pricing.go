package types

// PriceBucket is one fixed price-range boundary. Lower is inclusive; the
// bucket extends up to (but not including) the next bucket's Lower. The
// boundaries are configuration, not quantiles, so repeated runs on the
// same data produce identical buckets.
type PriceBucket struct {
	Label string  `json:"label" mapstructure:"label"`
	Lower float64 `json:"lower" mapstructure:"lower"`
}

// DefaultPriceBuckets returns the standard residential price boundaries.
func DefaultPriceBuckets() []PriceBucket {
	return []PriceBucket{
		{Label: "Under $500K", Lower: 0},
		{Label: "$500K-$750K", Lower: 500_000},
		{Label: "$750K-$1M", Lower: 750_000},
		{Label: "Over $1M", Lower: 1_000_000},
	}
}

// PriceBucketFor returns the bucket label for a price. Buckets must be
// sorted ascending by Lower. A price exactly on a boundary lands in the
// bucket whose lower bound it equals. Returns "" for a negative price or
// an empty bucket set.
func PriceBucketFor(price float64, buckets []PriceBucket) string {
	if len(buckets) == 0 || price < buckets[0].Lower {
		return ""
	}
	label := buckets[0].Label
	for _, b := range buckets[1:] {
		if price < b.Lower {
			break
		}
		label = b.Label
	}
	return label
}
