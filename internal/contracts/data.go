package contracts

import (
	"errors"
	"time"
)

// ErrNoData is returned by sources when a request succeeded but carried no rows
var ErrNoData = errors.New("no data")

// Bar is one daily OHLCV observation
// ⭐ SSOT: 일봉 데이터 구조는 여기서만 정의
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BarSeries is an ascending-by-date bar sequence for one symbol
// 불변식: 모든 Close > 0 (수집 단계에서 걸러냄)
type BarSeries struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"` // 소스가 알려준 표시명 (없을 수 있음)
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars
func (s *BarSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar
func (s *BarSeries) Last() (Bar, bool) {
	if s.Len() == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes returns the close column
func (s *BarSeries) Closes() []float64 {
	return s.column(func(b Bar) float64 { return b.Close })
}

// Highs returns the high column
func (s *BarSeries) Highs() []float64 {
	return s.column(func(b Bar) float64 { return b.High })
}

// Lows returns the low column
func (s *BarSeries) Lows() []float64 {
	return s.column(func(b Bar) float64 { return b.Low })
}

// Volumes returns the volume column
func (s *BarSeries) Volumes() []float64 {
	return s.column(func(b Bar) float64 { return b.Volume })
}

func (s *BarSeries) column(get func(Bar) float64) []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = get(s.Bars[i])
	}
	return out
}
