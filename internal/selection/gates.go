package selection

import (
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/strategyconfig"
)

// Gate names (Diagnostics.Gates 키)
const (
	GateTrend         = "trend"
	GateRSI           = "rsi"
	GateVolume        = "volume"
	GateInstitutional = "institutional"
	GateNearHigh      = "nearHigh"
)

// GateInput is what every gate sees
type GateInput struct {
	Signals       contracts.RawSignals
	Institutional contracts.InstitutionalSummary
}

// Gate is a pluggable pass/fail predicate
type Gate interface {
	Name() string
	Reason() string // 실패 시 표시 사유
	Check(in GateInput) bool
}

// TrendGate: close > ma20 and ma5 > ma20, both defined
type TrendGate struct{}

func (TrendGate) Name() string   { return GateTrend }
func (TrendGate) Reason() string { return "均線不強" }

func (TrendGate) Check(in GateInput) bool {
	s := in.Signals
	if s.MA5 == nil || s.MA20 == nil || *s.MA20 == 0 || *s.MA5 == 0 {
		return false
	}
	return s.LastClose > *s.MA20 && *s.MA5 > *s.MA20
}

// RSIGate: rsi14 within [Min, Max]; undefined RSI passes
type RSIGate struct {
	Min float64
	Max float64
}

func (RSIGate) Name() string   { return GateRSI }
func (RSIGate) Reason() string { return "RSI不佳" }

func (g RSIGate) Check(in GateInput) bool {
	if in.Signals.RSI14 == nil {
		return true
	}
	r := *in.Signals.RSI14
	return r >= g.Min && r <= g.Max
}

// VolumeGate: volRatio >= MinRatio
type VolumeGate struct {
	MinRatio float64
}

func (VolumeGate) Name() string   { return GateVolume }
func (VolumeGate) Reason() string { return "量能不足" }

func (g VolumeGate) Check(in GateInput) bool {
	return in.Signals.VolRatio >= g.MinRatio
}

// InstitutionalGate: window total > 0, buy streak >= MinStreak, latest day > 0
type InstitutionalGate struct {
	MinStreak int
}

func (InstitutionalGate) Name() string   { return GateInstitutional }
func (InstitutionalGate) Reason() string { return "法人不穩" }

func (g InstitutionalGate) Check(in GateInput) bool {
	inst := in.Institutional
	return inst.Total > 0 && inst.ConsecutiveBuyDays >= g.MinStreak && inst.LatestDayTotal > 0
}

// NearHighGate: close within MaxDistPct of the N-day closing high
type NearHighGate struct {
	MaxDistPct float64
}

func (NearHighGate) Name() string   { return GateNearHigh }
func (NearHighGate) Reason() string { return "離高點遠" }

func (g NearHighGate) Check(in GateInput) bool {
	dist, ok := NearHighDistance(in.Signals)
	return ok && dist <= g.MaxDistPct
}

// NearHighDistance returns (high − close) / high over the N-day window
func NearHighDistance(s contracts.RawSignals) (float64, bool) {
	if s.HighN <= 0 {
		return 0, false
	}
	return (s.HighN - s.LastClose) / s.HighN, true
}

// GatesFromConfig builds the gate chain in reporting order
// ⭐ SSOT: 게이트 구성은 전략 설정에서만 결정
func GatesFromConfig(cfg strategyconfig.Screening) []Gate {
	gates := []Gate{
		TrendGate{},
		RSIGate{Min: cfg.RSIMin, Max: cfg.RSIMax},
		VolumeGate{MinRatio: cfg.VolumeRatioMin},
	}
	if cfg.Institutional.Enable {
		gates = append(gates, InstitutionalGate{MinStreak: cfg.Institutional.MinStreak})
	}
	if cfg.NearHigh.Enable {
		gates = append(gates, NearHighGate{MaxDistPct: cfg.NearHigh.MaxDistPct})
	}
	return gates
}
