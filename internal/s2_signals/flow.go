package s2_signals

import (
	"context"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

// DefaultMaxLookbackAttempts bounds the calendar-day walk when resolving a window
const DefaultMaxLookbackAttempts = 60

// FlowAggregator aggregates institutional (法人) flows over a trading-date window
// ⭐ SSOT: 수급 윈도우 해석과 집계는 여기서만
type FlowAggregator struct {
	source      contracts.InstitutionalSource
	maxAttempts int
	logger      *logger.Logger
}

// NewFlowAggregator creates a new flow aggregator
func NewFlowAggregator(source contracts.InstitutionalSource, maxAttempts int, log *logger.Logger) *FlowAggregator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLookbackAttempts
	}
	return &FlowAggregator{
		source:      source,
		maxAttempts: maxAttempts,
		logger:      log.WithField("module", "flow"),
	}
}

// ResolveWindow walks back from end collecting the most recent dates that carry data
//
// 실행(run)당 한 번 호출해 모든 종목이 같은 윈도우를 공유한다.
// 조회 실패는 빈 날짜로 취급하고, ctx 취소만 에러로 반환한다.
func (a *FlowAggregator) ResolveWindow(ctx context.Context, end time.Time, windowDays int) (*contracts.FlowWindow, error) {
	window := &contracts.FlowWindow{Requested: windowDays}
	if windowDays <= 0 {
		return window, nil
	}

	day := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	skipped := 0
	for attempt := 0; attempt < a.maxAttempts && len(window.Days) < windowDays; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := a.source.FetchInstitutionalDay(ctx, day)
		switch {
		case err != nil:
			a.logger.WithError(err).WithField("date", day.Format("20060102")).Debug("Institutional fetch failed, skipping date")
			skipped++
		case rec.Empty():
			skipped++
		default:
			window.Days = append(window.Days, rec)
		}
		day = day.AddDate(0, 0, -1)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"requested": windowDays,
		"resolved":  len(window.Days),
		"skipped":   skipped,
	}
	if len(window.Days) < windowDays {
		a.logger.WithFields(fields).Warn("Institutional window resolved short")
	} else {
		a.logger.WithFields(fields).Info("Institutional window resolved")
	}
	return window, nil
}

// Summarize aggregates one symbol's flows over a resolved window
// 순수 함수: 날짜에 종목이 없으면 0 으로 기여
func (a *FlowAggregator) Summarize(symbol string, window *contracts.FlowWindow) contracts.InstitutionalSummary {
	return Summarize(symbol, window)
}

// Summarize is the stateless form of FlowAggregator.Summarize
func Summarize(symbol string, window *contracts.FlowWindow) contracts.InstitutionalSummary {
	summary := contracts.InstitutionalSummary{}
	if window == nil {
		return summary
	}
	summary.WindowDays = len(window.Days)
	summary.Dates = window.Dates()
	summary.Series = make([]contracts.DailyFlow, 0, len(window.Days))

	buyOpen, sellOpen := true, true
	for i, day := range window.Days {
		rec := day.Records[symbol]
		net := rec.CategoryNet
		total := net.Total()

		summary.Sums = summary.Sums.Add(net)
		summary.Series = append(summary.Series, contracts.DailyFlow{
			Date:        day.Date.Format("20060102"),
			CategoryNet: net,
		})

		if i == 0 {
			summary.LatestDayTotal = total
		}
		if summary.Name == "" && rec.Name != "" {
			summary.Name = rec.Name
		}

		// 최신일부터 연속 구간
		if buyOpen && total > 0 {
			summary.ConsecutiveBuyDays++
		} else {
			buyOpen = false
		}
		if sellOpen && total < 0 {
			summary.ConsecutiveSellDays++
		} else {
			sellOpen = false
		}
	}
	summary.Total = summary.Sums.Total()

	return summary
}
