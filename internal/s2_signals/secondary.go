package s2_signals

import (
	"context"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

const (
	// DefaultSecondaryLookback is the calendar-day range requested for margin/day-trade series
	DefaultSecondaryLookback = 35

	marginTail      = 12
	marginMinRows   = 3
	marginHotStreak = 3
	marginHotChange = 0.05
	dayTradeHotPct  = 35.0
)

// SecondaryEnricher computes margin and day-trading heat for stage 2
// ⭐ SSOT: 融資/當沖 과열 판단은 여기서만
type SecondaryEnricher struct {
	source   contracts.SecondarySource
	lookback int
	logger   *logger.Logger
}

// NewSecondaryEnricher creates a new secondary enricher
func NewSecondaryEnricher(source contracts.SecondarySource, lookbackDays int, log *logger.Logger) *SecondaryEnricher {
	if lookbackDays <= 0 {
		lookbackDays = DefaultSecondaryLookback
	}
	return &SecondaryEnricher{
		source:   source,
		lookback: lookbackDays,
		logger:   log.WithField("module", "secondary"),
	}
}

// Enabled reports whether stage 2 can run (credential present)
func (e *SecondaryEnricher) Enabled() bool {
	return e != nil && e.source != nil && e.source.Enabled()
}

// Enrich fetches both series and derives heat signals
// 각 신호는 독립적으로 nil 가능, 에러는 반환하지 않는다
func (e *SecondaryEnricher) Enrich(ctx context.Context, symbol string, end time.Time) contracts.SecondarySignals {
	signals := contracts.SecondarySignals{}
	if !e.Enabled() {
		return signals
	}
	start := end.AddDate(0, 0, -e.lookback)

	margin, err := e.source.MarginSeries(ctx, symbol, start, end)
	if err != nil {
		e.logger.WithError(err).WithField("symbol", symbol).Debug("Margin series unavailable")
	} else {
		signals.Margin = MarginHeatFrom(margin)
	}

	dayTrade, err := e.source.DayTradingSeries(ctx, symbol, start, end)
	if err != nil {
		e.logger.WithError(err).WithField("symbol", symbol).Debug("Day-trading series unavailable")
	} else {
		signals.DayTrade = DayTradeHeatFrom(dayTrade)
	}

	return signals
}

// MarginHeatFrom derives margin heat from date-ascending rows; nil when too few rows
func MarginHeatFrom(rows []contracts.MarginRow) *contracts.MarginHeat {
	if len(rows) < marginMinRows {
		return nil
	}

	// 잔고가 모두 0 인 행은 공시 전 데이터로 본다
	last := -1
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].MarginBalance != 0 || rows[i].ShortBalance != 0 {
			last = i
			break
		}
	}
	if last < 0 {
		return nil
	}

	tail := rows
	if len(tail) > marginTail {
		tail = tail[len(tail)-marginTail:]
	}
	first := tail[0]

	streak := 0
	for i := len(tail) - 1; i >= 1; i-- {
		if tail[i].MarginBalance > tail[i-1].MarginBalance {
			streak++
		} else {
			break
		}
	}

	delta := rows[last].MarginBalance - first.MarginBalance
	var grew bool
	if first.MarginBalance > 0 {
		grew = delta/first.MarginBalance >= marginHotChange
	} else {
		grew = delta > 0
	}

	return &contracts.MarginHeat{
		IncStreak:  streak,
		Delta:      delta,
		ShortDelta: rows[last].ShortBalance - first.ShortBalance,
		Hot:        streak >= marginHotStreak && grew,
		LastDate:   rows[last].Date,
	}
}

// DayTradeHeatFrom derives day-trading heat from the newest row carrying a ratio
func DayTradeHeatFrom(rows []contracts.DayTradeRow) *contracts.DayTradeHeat {
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if row.Ratio == nil {
			continue
		}
		ratio := *row.Ratio
		// 0~1 비율 표기는 퍼센트로 정규화
		if ratio > 0 && ratio <= 1 {
			ratio *= 100
		}
		return &contracts.DayTradeHeat{
			Ratio:    &ratio,
			Volume:   row.Volume,
			Amount:   row.Amount,
			Hot:      ratio >= dayTradeHotPct,
			LastDate: row.Date,
		}
	}
	return nil
}
