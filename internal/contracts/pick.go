package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// PickType classifies a pick
type PickType string

const (
	PickPrimary  PickType = "主推" // 게이트 통과
	PickFallback PickType = "補位" // 빈자리 보충
)

// Pick is the externally visible, immutable output record
type Pick struct {
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	Industry       string   `json:"industry"`
	Score          float64  `json:"score"`
	PickType       PickType `json:"pickType"`
	FallbackReason string   `json:"fallbackReason,omitempty"`
	Reasons        []string `json:"reasons,omitempty"` // 배지 (融資偏熱, 當沖偏高)
	Passed         bool     `json:"passed"`
	TradeStyle     string   `json:"tradeStyle,omitempty"`
	Plan           Plan     `json:"plan"`

	LastClose          float64  `json:"lastClose"`
	MA5                *float64 `json:"ma5"`
	MA20               *float64 `json:"ma20"`
	RSI14              *float64 `json:"rsi14"`
	VolRatio           float64  `json:"volRatio"`
	InstSumTotal       float64  `json:"instSumTotal"`
	InstBuyStreak      int      `json:"instBuyStreak"`
	InstLatestTotalNet float64  `json:"instLatestTotalNet"`
	Stage              string   `json:"stage"`
}

// Bucket is a half-open price interval [Min, Max)
type Bucket struct {
	Key   string
	Label string
	Min   float64 // -Inf 가능
	Max   float64 // +Inf 가능
}

// Contains reports whether price falls in [Min, Max)
func (b Bucket) Contains(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	return price >= b.Min && price < b.Max
}

// MarshalJSON renders infinite bounds as null
func (b Bucket) MarshalJSON() ([]byte, error) {
	bound := func(v float64) *float64 {
		if math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		Key   string   `json:"key"`
		Label string   `json:"label"`
		Min   *float64 `json:"min"`
		Max   *float64 `json:"max"`
	}{b.Key, b.Label, bound(b.Min), bound(b.Max)})
}

// UnmarshalJSON restores null bounds as infinities
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key   string   `json:"key"`
		Label string   `json:"label"`
		Min   *float64 `json:"min"`
		Max   *float64 `json:"max"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Key, b.Label = raw.Key, raw.Label
	b.Min, b.Max = math.Inf(-1), math.Inf(1)
	if raw.Min != nil {
		b.Min = *raw.Min
	}
	if raw.Max != nil {
		b.Max = *raw.Max
	}
	return nil
}

// PoolInfo describes the universe used for a run
type PoolInfo struct {
	Type string `json:"type"`
	Size int    `json:"size"`
	Note string `json:"note"`
}

// PickResult is the run output consumed by transport and persistence
// ⭐ SSOT: 파이프라인 최종 산출물
type PickResult struct {
	OK                  bool              `json:"ok"`
	RunID               string            `json:"runId"`
	Date                string            `json:"date"` // YYYY-MM-DD (Asia/Taipei)
	GeneratedAt         time.Time         `json:"generatedAt"`
	StrategyHash        string            `json:"strategyHash,omitempty"`
	Pool                PoolInfo          `json:"pool"`
	WindowDays          int               `json:"windowDays"`
	Bucket              Bucket            `json:"bucket"`
	SecondaryEnabled    bool              `json:"finmindEnabled"`
	Stage2TopK          int               `json:"finmindStage2TopK"`
	MinPickScore        float64           `json:"minPickScore"`
	CountInBucket       int               `json:"countInBucket"`
	CountPassedInBucket int               `json:"countPassedInBucket"`
	Picks               []Pick            `json:"picks"`
	BucketPicks         map[string][]Pick `json:"bucketPicks,omitempty"`
}
