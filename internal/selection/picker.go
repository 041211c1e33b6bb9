package selection

import (
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/strategyconfig"
	"github.com/wonny/twpicks/pkg/logger"
)

// DefaultFallbackReason is used when a fallback carries no failure diagnostic
const DefaultFallbackReason = "未通過"

// Picker emits the final primary/fallback list
// ⭐ SSOT: 최종 선정(主推/補位) 규칙은 여기서만
type Picker struct {
	maxPicks int
	minScore float64
	logger   *logger.Logger
}

// NewPicker creates a new picker
func NewPicker(cfg strategyconfig.Selection, log *logger.Logger) *Picker {
	maxPicks := cfg.MaxPicks
	if maxPicks < 1 {
		maxPicks = 3
	}
	return &Picker{
		maxPicks: maxPicks,
		minScore: cfg.MinPickScore,
		logger:   log,
	}
}

// MinScore returns the eligibility threshold
func (p *Picker) MinScore() float64 {
	return p.minScore
}

// Eligible returns records with score strictly above the threshold, score desc
func (p *Picker) Eligible(records []contracts.ScoreRecord) []contracts.ScoreRecord {
	out := make([]contracts.ScoreRecord, 0, len(records))
	for _, rec := range records {
		if rec.Score > p.minScore {
			out = append(out, rec)
		}
	}
	sortByScore(out)
	return out
}

// CountPassed counts gate-passed records among the eligible set
func (p *Picker) CountPassed(records []contracts.ScoreRecord) int {
	n := 0
	for _, rec := range p.Eligible(records) {
		if rec.Passed {
			n++
		}
	}
	return n
}

// Select takes passed records first, then fills from the eligible set
// 적격 종목이 부족하면 적은 수를 반환 (패딩 없음)
func (p *Picker) Select(records []contracts.ScoreRecord) []contracts.Pick {
	eligible := p.Eligible(records)
	picks := make([]contracts.Pick, 0, p.maxPicks)
	used := make(map[string]bool, p.maxPicks)

	// 1. 主推: 게이트 통과 종목
	for _, rec := range eligible {
		if len(picks) >= p.maxPicks {
			break
		}
		if !rec.Passed || used[rec.Symbol] {
			continue
		}
		picks = append(picks, ToPick(rec, contracts.PickPrimary, ""))
		used[rec.Symbol] = true
	}

	// 2. 補位: 점수순 보충
	for _, rec := range eligible {
		if len(picks) >= p.maxPicks {
			break
		}
		if used[rec.Symbol] {
			continue
		}
		picks = append(picks, ToPick(rec, contracts.PickFallback, fallbackReason(rec)))
		used[rec.Symbol] = true
	}

	p.logger.WithFields(map[string]interface{}{
		"eligible": len(eligible),
		"picks":    len(picks),
	}).Info("Selection completed")

	return picks
}

// SelectByBuckets emits up to perBucket eligible records per defined price band
func (p *Picker) SelectByBuckets(records []contracts.ScoreRecord, perBucket int) map[string][]contracts.Pick {
	if perBucket < 1 {
		perBucket = p.maxPicks
	}
	eligible := p.Eligible(records)

	out := make(map[string][]contracts.Pick, len(definedBuckets))
	for _, b := range definedBuckets {
		picks := make([]contracts.Pick, 0, perBucket)
		for _, rec := range eligible {
			if len(picks) >= perBucket {
				break
			}
			if !b.Contains(rec.Signals.LastClose) {
				continue
			}
			if rec.Passed {
				picks = append(picks, ToPick(rec, contracts.PickPrimary, ""))
			} else {
				picks = append(picks, ToPick(rec, contracts.PickFallback, fallbackReason(rec)))
			}
		}
		out[b.Key] = picks
	}
	return out
}

func fallbackReason(rec contracts.ScoreRecord) string {
	if rec.Diagnostics.Reason == "" || rec.Diagnostics.Reason == ReasonPass {
		return DefaultFallbackReason
	}
	return rec.Diagnostics.Reason
}

// ToPick projects a working record onto the output record
// 내부 필드(bars, 수급 시계열)는 여기서 제거된다
func ToPick(rec contracts.ScoreRecord, pickType contracts.PickType, reason string) contracts.Pick {
	var badges []string
	if len(rec.Badges) > 0 {
		badges = append(badges, rec.Badges...)
	}
	return contracts.Pick{
		Symbol:             rec.Symbol,
		Name:               rec.Name,
		Industry:           rec.Industry,
		Score:              rec.Score,
		PickType:           pickType,
		FallbackReason:     reason,
		Reasons:            badges,
		Passed:             rec.Passed,
		TradeStyle:         rec.TradeStyle,
		Plan:               rec.Plan,
		LastClose:          rec.Signals.LastClose,
		MA5:                rec.Signals.MA5,
		MA20:               rec.Signals.MA20,
		RSI14:              rec.Signals.RSI14,
		VolRatio:           rec.Signals.VolRatio,
		InstSumTotal:       rec.Institutional.Total,
		InstBuyStreak:      rec.Institutional.ConsecutiveBuyDays,
		InstLatestTotalNet: rec.Institutional.LatestDayTotal,
		Stage:              rec.Stage,
	}
}
