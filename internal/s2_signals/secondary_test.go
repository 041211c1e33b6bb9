package s2_signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

type stubSecondary struct {
	enabled   bool
	margin    []contracts.MarginRow
	dayTrade  []contracts.DayTradeRow
	marginErr error
	dtErr     error
	start     time.Time
}

func (s *stubSecondary) Enabled() bool { return s.enabled }

func (s *stubSecondary) MarginSeries(_ context.Context, _ string, start, _ time.Time) ([]contracts.MarginRow, error) {
	s.start = start
	return s.margin, s.marginErr
}

func (s *stubSecondary) DayTradingSeries(context.Context, string, time.Time, time.Time) ([]contracts.DayTradeRow, error) {
	return s.dayTrade, s.dtErr
}

func marginRows(balances ...float64) []contracts.MarginRow {
	rows := make([]contracts.MarginRow, len(balances))
	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, b := range balances {
		rows[i] = contracts.MarginRow{Date: d.AddDate(0, 0, i).Format("2006-01-02"), MarginBalance: b, ShortBalance: 10}
	}
	return rows
}

func ptr(v float64) *float64 { return &v }

func TestMarginHeatFrom(t *testing.T) {
	tests := []struct {
		name       string
		rows       []contracts.MarginRow
		wantNil    bool
		wantStreak int
		wantDelta  float64
		wantHot    bool
	}{
		{name: "too few rows", rows: marginRows(1, 2), wantNil: true},
		{name: "all zero rows", rows: []contracts.MarginRow{{Date: "2026-01-01"}, {Date: "2026-01-02"}, {Date: "2026-01-03"}}, wantNil: true},
		{name: "hot: streak 3 and +10%", rows: marginRows(1000, 1000, 1030, 1060, 1100), wantStreak: 3, wantDelta: 100, wantHot: true},
		{name: "streak without enough growth", rows: marginRows(1000, 1000, 1010, 1020, 1030), wantStreak: 3, wantDelta: 30},
		{name: "growth without streak", rows: marginRows(1000, 1200, 1100, 1150), wantStreak: 1, wantDelta: 150},
		{name: "zero first balance any positive change", rows: marginRows(0, 1, 2, 3), wantStreak: 3, wantDelta: 3, wantHot: true},
		{
			name:       "only last 12 rows count",
			rows:       marginRows(1, 2, 3, 4, 500, 500, 500, 500, 500, 500, 500, 500, 510, 520, 530, 540),
			wantStreak: 4,
			wantDelta:  40,
			wantHot:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarginHeatFrom(tt.rows)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStreak, got.IncStreak)
			assert.InDelta(t, tt.wantDelta, got.Delta, 1e-9)
			assert.Equal(t, tt.wantHot, got.Hot)
			assert.Equal(t, 0.0, got.ShortDelta)
		})
	}
}

func TestDayTradeHeatFrom(t *testing.T) {
	tests := []struct {
		name      string
		rows      []contracts.DayTradeRow
		wantNil   bool
		wantRatio float64
		wantHot   bool
		wantDate  string
	}{
		{name: "no rows", wantNil: true},
		{name: "no ratio anywhere", rows: []contracts.DayTradeRow{{Date: "2026-01-02"}}, wantNil: true},
		{
			name:      "fraction normalized to percent",
			rows:      []contracts.DayTradeRow{{Date: "2026-01-02", Ratio: ptr(0.4)}},
			wantRatio: 40, wantHot: true, wantDate: "2026-01-02",
		},
		{
			name:      "percent kept",
			rows:      []contracts.DayTradeRow{{Date: "2026-01-02", Ratio: ptr(12.5)}},
			wantRatio: 12.5, wantDate: "2026-01-02",
		},
		{
			name: "newest row with ratio wins",
			rows: []contracts.DayTradeRow{
				{Date: "2026-01-02", Ratio: ptr(50)},
				{Date: "2026-01-03", Ratio: ptr(20)},
				{Date: "2026-01-04"},
			},
			wantRatio: 20, wantDate: "2026-01-03",
		},
		{
			name:      "boundary 35 is hot",
			rows:      []contracts.DayTradeRow{{Date: "2026-01-02", Ratio: ptr(35)}},
			wantRatio: 35, wantHot: true, wantDate: "2026-01-02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DayTradeHeatFrom(tt.rows)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.NotNil(t, got.Ratio)
			assert.InDelta(t, tt.wantRatio, *got.Ratio, 1e-9)
			assert.Equal(t, tt.wantHot, got.Hot)
			assert.Equal(t, tt.wantDate, got.LastDate)
		})
	}
}

func TestSecondaryEnricher_Enrich(t *testing.T) {
	end := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	t.Run("disabled yields empty signals", func(t *testing.T) {
		e := NewSecondaryEnricher(&stubSecondary{enabled: false, margin: marginRows(1, 2, 3, 4)}, 0, logger.Nop())
		assert.False(t, e.Enabled())

		got := e.Enrich(context.Background(), "2330", end)
		assert.Nil(t, got.Margin)
		assert.Nil(t, got.DayTrade)
	})

	t.Run("errors become nil signals independently", func(t *testing.T) {
		src := &stubSecondary{
			enabled:   true,
			marginErr: errors.New("402 quota"),
			dayTrade:  []contracts.DayTradeRow{{Date: "2026-02-09", Ratio: ptr(0.5)}},
		}
		e := NewSecondaryEnricher(src, 0, logger.Nop())

		got := e.Enrich(context.Background(), "2330", end)
		assert.Nil(t, got.Margin)
		require.NotNil(t, got.DayTrade)
		assert.True(t, got.DayTrade.Hot)
		assert.Equal(t, 1, got.HotCount())
		assert.Equal(t, end.AddDate(0, 0, -DefaultSecondaryLookback), src.start)
	})

	t.Run("nil enricher is disabled", func(t *testing.T) {
		var e *SecondaryEnricher
		assert.False(t, e.Enabled())
	})
}
