package selection

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/strategyconfig"
)

// Badges raised by secondary heat
const (
	BadgeMarginHot   = "融資偏熱"
	BadgeDayTradeHot = "當沖偏高"
)

// Trade-style tags
const (
	StyleShortTerm = "短期"
	StyleSwing     = "波段"
)

// ScoreInput is everything needed to score one symbol at one stage
type ScoreInput struct {
	Symbol        string
	Name          string
	Industry      string
	Bars          *contracts.BarSeries
	Signals       contracts.RawSignals
	Institutional contracts.InstitutionalSummary
	Secondary     *contracts.SecondarySignals // nil ⇒ stage 1
	Stage         string
}

// Scorer computes the composite score, gate status and plan
// ⭐ SSOT: 복합 점수 공식은 여기서만
type Scorer struct {
	screener *Screener
	weights  strategyconfig.Scoring
	plan     strategyconfig.Plan
	nearHigh strategyconfig.NearHigh
}

// NewScorer creates a scorer from the strategy
func NewScorer(cfg *strategyconfig.Config) *Scorer {
	return &Scorer{
		screener: NewScreener(GatesFromConfig(cfg.Screening)),
		weights:  cfg.Scoring,
		plan:     cfg.Plan,
		nearHigh: cfg.Screening.NearHigh,
	}
}

// Screener returns the gate chain used by the scorer
func (s *Scorer) Screener() *Screener {
	return s.screener
}

// Score builds a fresh ScoreRecord; inputs are never mutated
func (s *Scorer) Score(in ScoreInput) contracts.ScoreRecord {
	sig := in.Signals
	inst := in.Institutional

	diag := s.screener.Evaluate(GateInput{Signals: sig, Institutional: inst})

	// 1. 법인 수급 (로그 스케일)
	instTerm := math.Log10(math.Max(1, math.Abs(inst.Total)))
	if inst.Total <= 0 {
		instTerm = -instTerm
	}

	// 2. 추세 (ma20 미정의 ⇒ 0)
	trendTerm := 0.0
	if sig.MA20 != nil && *sig.MA20 != 0 {
		trendTerm = (sig.LastClose / *sig.MA20 - 1) * 100
	}

	// 3. 거래량
	volTerm := (sig.VolRatio - 1) * s.weights.VolumeWeight

	// 4. 2차 신호 보정
	adj, badges := s.SecondaryAdjustment(in.Secondary)
	diag.SecondaryAdj = adj

	score := instTerm*s.weights.InstitutionalWeight + trendTerm*s.weights.TrendWeight + volTerm + adj

	// 5. 고점 근접 보너스 (게이트 활성 시)
	if s.nearHigh.Enable {
		if dist, ok := NearHighDistance(sig); ok {
			d := dist
			diag.NearHighDist = &d
			score += math.Max(0, (s.nearHigh.MaxDistPct-dist)/s.nearHigh.MaxDistPct) * s.nearHigh.Bonus
		}
	}

	stage := in.Stage
	if stage == "" {
		stage = contracts.StageOne
	}

	return contracts.ScoreRecord{
		Symbol:        in.Symbol,
		Name:          in.Name,
		Industry:      in.Industry,
		Signals:       sig,
		Institutional: inst,
		Secondary:     in.Secondary,
		Score:         Round(score, 4),
		Passed:        len(diag.Failed) == 0,
		Plan:          s.Plan(sig),
		Badges:        badges,
		Diagnostics:   diag,
		Stage:         stage,
		TradeStyle:    TradeStyle(sig),
		Bars:          in.Bars,
	}
}

// SecondaryAdjustment returns the score adjustment and badges for stage-2 signals
func (s *Scorer) SecondaryAdjustment(sec *contracts.SecondarySignals) (float64, []string) {
	if sec == nil {
		return 0, nil
	}
	adj := 0.0
	var badges []string
	if sec.Margin != nil && sec.Margin.Hot {
		adj -= s.weights.HotPenalty
		badges = append(badges, BadgeMarginHot)
	}
	if sec.DayTrade != nil {
		if sec.DayTrade.Hot {
			adj -= s.weights.HotPenalty
			badges = append(badges, BadgeDayTradeHot)
		}
		if sec.DayTrade.Ratio != nil && *sec.DayTrade.Ratio < s.weights.CalmDayTradePct {
			adj += s.weights.CalmDayTradeBonus
		}
	}
	return adj, badges
}

// Plan derives the ATR ladder around the last close
func (s *Scorer) Plan(sig contracts.RawSignals) contracts.Plan {
	last := sig.LastClose
	atrUse := last * s.plan.FallbackATRPct
	if sig.ATR14 != nil && *sig.ATR14 > 0 {
		atrUse = *sig.ATR14
	}
	return contracts.Plan{
		EntryLow:  Round(last-atrUse*s.plan.EntryATR, 2),
		EntryHigh: Round(last+atrUse*s.plan.EntryATR, 2),
		Stop:      Round(last-atrUse*s.plan.StopATR, 2),
		TP1:       Round(last+atrUse*s.plan.TP1ATR, 2),
		TP2:       Round(last+atrUse*s.plan.TP2ATR, 2),
		ATRUsed:   Round(atrUse, 4),
	}
}

// TradeStyle tags hot short-term setups; everything else is swing
func TradeStyle(sig contracts.RawSignals) string {
	if sig.RSI14 == nil || sig.MA5 == nil || sig.MA20 == nil {
		return StyleSwing
	}
	if sig.VolRatio >= 1.6 && *sig.RSI14 >= 65 {
		return StyleShortTerm
	}
	return StyleSwing
}

// Round rounds half away from zero to places decimals
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
