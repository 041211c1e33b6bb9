package s2_signals

import (
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/indicator"
	"github.com/wonny/twpicks/pkg/logger"
)

const (
	// DefaultMinBars is the history floor below which a symbol is not scored
	DefaultMinBars = 30
	// DefaultHighLookback is the close window used for the near-high reading
	DefaultHighLookback = 120
)

// TechnicalCalculator calculates technical readings at the latest bar
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type TechnicalCalculator struct {
	minBars      int
	highLookback int
	logger       *logger.Logger
}

// NewTechnicalCalculator creates a new technical calculator
func NewTechnicalCalculator(minBars, highLookback int, log *logger.Logger) *TechnicalCalculator {
	if minBars <= 0 {
		minBars = DefaultMinBars
	}
	if highLookback <= 0 {
		highLookback = DefaultHighLookback
	}
	return &TechnicalCalculator{
		minBars:      minBars,
		highLookback: highLookback,
		logger:       log,
	}
}

// Calculate computes RawSignals; false when history is too short
func (c *TechnicalCalculator) Calculate(series *contracts.BarSeries) (contracts.RawSignals, bool) {
	n := series.Len()
	if n < c.minBars {
		return contracts.RawSignals{}, false
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	i := n - 1

	ma5 := indicator.SMA(closes, 5)
	ma20 := indicator.SMA(closes, 20)
	rsi14 := indicator.RSI(closes, 14)
	vol20 := indicator.SMA(volumes, 20)
	atr14 := indicator.ATR(highs, lows, closes, 14)

	// 평균 거래량 미정의/0 이면 1
	volRatio := 1.0
	if avg, ok := vol20.At(i); ok && avg > 0 {
		volRatio = volumes[i] / avg
	}

	signals := contracts.RawSignals{
		LastClose: closes[i],
		MA5:       ma5.Ptr(i),
		MA20:      ma20.Ptr(i),
		RSI14:     rsi14.Ptr(i),
		Vol20:     vol20.Ptr(i),
		VolRatio:  volRatio,
		ATR14:     atr14.Ptr(i),
		HighN:     indicator.HighestHigh(closes, c.highLookback),
		BarCount:  n,
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":    series.Symbol,
		"close":     signals.LastClose,
		"vol_ratio": volRatio,
	}).Debug("Calculated technical signals")

	return signals, true
}
