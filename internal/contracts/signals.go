package contracts

// RawSignals are the technical readings at the latest bar
// nil 포인터 = 데이터 부족으로 정의되지 않은 값
type RawSignals struct {
	LastClose float64  `json:"lastClose"`
	MA5       *float64 `json:"ma5"`
	MA20      *float64 `json:"ma20"`
	RSI14     *float64 `json:"rsi14"`
	Vol20     *float64 `json:"vol20"`
	VolRatio  float64  `json:"volRatio"` // 평균 거래량 미정의/0 이면 1
	ATR14     *float64 `json:"atr14"`
	HighN     float64  `json:"highN"` // 최근 N일 최고가 (N은 전략 설정)
	BarCount  int      `json:"barCount"`
}

// MarginRow is one day of margin-purchase / short-sale balances
type MarginRow struct {
	Date          string  `json:"date"`
	MarginBalance float64 `json:"marginBalance"`
	ShortBalance  float64 `json:"shortBalance"`
}

// DayTradeRow is one day of day-trading statistics
type DayTradeRow struct {
	Date   string   `json:"date"`
	Ratio  *float64 `json:"ratio"` // 원본 단위 그대로 (0~1 또는 %)
	Volume float64  `json:"volume"`
	Amount float64  `json:"amount"`
}

// MarginHeat summarizes the margin-purchase balance trend
type MarginHeat struct {
	IncStreak  int     `json:"mpIncStreak"`
	Delta      float64 `json:"mpDelta"`
	ShortDelta float64 `json:"ssDelta"`
	Hot        bool    `json:"mpHot"`
	LastDate   string  `json:"lastDate"`
}

// DayTradeHeat summarizes the latest day-trading ratio
type DayTradeHeat struct {
	Ratio    *float64 `json:"ratio"` // 퍼센트로 정규화됨
	Volume   float64  `json:"vol"`
	Amount   float64  `json:"amount"`
	Hot      bool     `json:"hot"`
	LastDate string   `json:"lastDate"`
}

// SecondarySignals are the stage-2 enrichment readings
// 각 항목은 독립적으로 nil 가능 (소스 실패 시)
type SecondarySignals struct {
	Margin   *MarginHeat   `json:"margin"`
	DayTrade *DayTradeHeat `json:"daytrade"`
}

// HotCount returns how many heat flags are raised
func (s *SecondarySignals) HotCount() int {
	if s == nil {
		return 0
	}
	n := 0
	if s.Margin != nil && s.Margin.Hot {
		n++
	}
	if s.DayTrade != nil && s.DayTrade.Hot {
		n++
	}
	return n
}
