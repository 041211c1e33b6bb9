package contracts

import "time"

// DayAllRecord is one canonical row of the bulk end-of-day record set
// 원본 스키마(배열/키 객체)는 소스별 어댑터가 이 형태로 변환
type DayAllRecord struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"` // 成交股數 (shares)
	Close  float64 `json:"close"`
}

// Classification is identity metadata from the symbol classification source
type Classification struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"stock_name"`
	Industry string `json:"industry_category"`
	Type     string `json:"type"` // 시장/보드 구분 (twse, tpex, 創新板 ...)
}

// PoolEntry is one candidate of the run's universe
type PoolEntry struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
	Close  float64 `json:"close"`
}

// Pool is the capped, filtered, volume-sorted universe for one run
// ⭐ SSOT: Universe → Stage 1 후보 전달
type Pool struct {
	Date     time.Time                 `json:"date"`
	Source   string                    `json:"source"`    // openapi | legacy | none
	Entries  []PoolEntry               `json:"entries"`   // 거래량 내림차순
	RawCount int                       `json:"raw_count"` // 어댑터 변환 전 행 수
	Excluded map[string]int            `json:"excluded"`  // 제외 사유별 건수
	Info     map[string]Classification `json:"-"`
}

// Len returns the number of entries
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Entries)
}

// Symbols returns the entry symbols in pool order
func (p *Pool) Symbols() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, e.Symbol)
	}
	return out
}

// Lookup finds the entry for a symbol
func (p *Pool) Lookup(symbol string) (PoolEntry, bool) {
	if p == nil {
		return PoolEntry{}, false
	}
	for _, e := range p.Entries {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return PoolEntry{}, false
}

// Classification returns the identity metadata for a symbol if known
func (p *Pool) Classification(symbol string) (Classification, bool) {
	if p == nil || p.Info == nil {
		return Classification{}, false
	}
	c, ok := p.Info[symbol]
	return c, ok
}
