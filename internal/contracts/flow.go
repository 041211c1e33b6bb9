package contracts

import "time"

// CategoryNet holds net buy/sell shares by investor category
// 외국인(외자+외자자영) / 투신 / 자영
type CategoryNet struct {
	Foreign float64 `json:"foreign"`
	Trust   float64 `json:"trust"`
	Dealer  float64 `json:"dealer"`
}

// Total returns the sum over categories
func (c CategoryNet) Total() float64 {
	return c.Foreign + c.Trust + c.Dealer
}

// Add returns the element-wise sum
func (c CategoryNet) Add(o CategoryNet) CategoryNet {
	return CategoryNet{
		Foreign: c.Foreign + o.Foreign,
		Trust:   c.Trust + o.Trust,
		Dealer:  c.Dealer + o.Dealer,
	}
}

// InstitutionalRecord is one symbol's row of a per-date institutional record set
type InstitutionalRecord struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	CategoryNet
}

// InstitutionalDay is the all-symbols institutional record set for one date
type InstitutionalDay struct {
	Date    time.Time                      `json:"date"`
	Records map[string]InstitutionalRecord `json:"records"`
}

// Empty reports whether the date carried no data (holiday, not yet published)
func (d *InstitutionalDay) Empty() bool {
	return d == nil || len(d.Records) == 0
}

// FlowWindow is the resolved set of trading dates, newest first
// ⭐ SSOT: 실행(run)당 한 번 해석, 모든 종목이 공유
type FlowWindow struct {
	Requested int                 `json:"requested"`
	Days      []*InstitutionalDay `json:"-"`
}

// Dates returns the resolved dates as YYYYMMDD strings, newest first
func (w *FlowWindow) Dates() []string {
	if w == nil {
		return nil
	}
	out := make([]string, 0, len(w.Days))
	for _, d := range w.Days {
		out = append(out, d.Date.Format("20060102"))
	}
	return out
}

// DailyFlow is one symbol's category nets on one date
type DailyFlow struct {
	Date string `json:"date"`
	CategoryNet
}

// InstitutionalSummary aggregates one symbol's flows over the window
type InstitutionalSummary struct {
	WindowDays          int         `json:"windowDays"`
	Dates               []string    `json:"dates"`
	Sums                CategoryNet `json:"sums"`
	Total               float64     `json:"sumTotal"`
	ConsecutiveBuyDays  int         `json:"buyStreak"`  // 최신일부터 순매수(>0) 연속일
	ConsecutiveSellDays int         `json:"sellStreak"` // 최신일부터 순매도(<0) 연속일
	LatestDayTotal      float64     `json:"latestTotalNet"`
	Name                string      `json:"nameFromT86,omitempty"`
	Series              []DailyFlow `json:"series,omitempty"`
}
