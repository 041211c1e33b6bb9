package selection

import (
	"math"

	"github.com/wonny/twpicks/internal/contracts"
)

// BucketAll is the unrestricted price band
const BucketAll = "all"

// ⭐ SSOT: 가격 구간 정의 (반개구간 [min, max))
var definedBuckets = []contracts.Bucket{
	{Key: "lt100", Label: "100以內", Min: math.Inf(-1), Max: 100},
	{Key: "100_300", Label: "100~300", Min: 100, Max: 300},
	{Key: "300_600", Label: "300~600", Min: 300, Max: 600},
	{Key: "600_1000", Label: "600~1000", Min: 600, Max: 1000},
	{Key: "gt1000", Label: "1000以上", Min: 1000, Max: math.Inf(1)},
}

// Buckets returns the defined bands in ascending price order (excluding "all")
func Buckets() []contracts.Bucket {
	out := make([]contracts.Bucket, len(definedBuckets))
	copy(out, definedBuckets)
	return out
}

// ParseBucket resolves a bucket key; unknown keys mean "all"
func ParseBucket(key string) contracts.Bucket {
	for _, b := range definedBuckets {
		if b.Key == key {
			return b
		}
	}
	return contracts.Bucket{Key: BucketAll, Label: "不限", Min: math.Inf(-1), Max: math.Inf(1)}
}

// FilterBucket keeps records whose last close falls in the band
func FilterBucket(records []contracts.ScoreRecord, b contracts.Bucket) []contracts.ScoreRecord {
	out := make([]contracts.ScoreRecord, 0, len(records))
	for _, rec := range records {
		if b.Contains(rec.Signals.LastClose) {
			out = append(out, rec)
		}
	}
	return out
}
