package selection

import (
	"sort"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

// Stage-2 top-K bounds
const (
	DefaultTopK = 40
	MinTopK     = 10
	MaxTopK     = 100
)

// Ranker orders score records
// ⭐ SSOT: 랭킹/정렬 규칙은 여기서만
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{logger: log}
}

// Rank returns a new slice sorted by score desc (symbol asc on ties) with Rank assigned
func (r *Ranker) Rank(records []contracts.ScoreRecord) []contracts.ScoreRecord {
	ranked := make([]contracts.ScoreRecord, len(records))
	copy(ranked, records)

	sortByScore(ranked)

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if len(ranked) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"total":     len(ranked),
			"top_score": ranked[0].Score,
			"top":       ranked[0].Symbol,
		}).Debug("Ranking completed")
	}
	return ranked
}

// TopK returns the first k records of a ranked slice
func (r *Ranker) TopK(ranked []contracts.ScoreRecord, k int) []contracts.ScoreRecord {
	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

// Splice replaces records by symbol with their rescored versions and re-ranks
// rescored 에 없는 종목은 stage 1 점수 그대로 유지
func (r *Ranker) Splice(all, rescored []contracts.ScoreRecord) []contracts.ScoreRecord {
	bySymbol := make(map[string]contracts.ScoreRecord, len(rescored))
	for _, rec := range rescored {
		bySymbol[rec.Symbol] = rec
	}

	merged := make([]contracts.ScoreRecord, len(all))
	replaced := 0
	for i, rec := range all {
		if rep, ok := bySymbol[rec.Symbol]; ok {
			merged[i] = rep
			replaced++
			continue
		}
		merged[i] = rec
	}

	r.logger.WithFields(map[string]interface{}{
		"total":    len(all),
		"replaced": replaced,
	}).Debug("Stage 2 results spliced")

	return r.Rank(merged)
}

// ClampTopK bounds the stage-2 candidate count; 0 means default
func ClampTopK(k int) int {
	if k == 0 {
		return DefaultTopK
	}
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

func sortByScore(records []contracts.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Symbol < records[j].Symbol
	})
}
