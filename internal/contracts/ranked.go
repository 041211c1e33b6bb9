package contracts

// Stage tags on a ScoreRecord
const (
	StageOne = "stage1"
	StageTwo = "stage2"
)

// Plan is the static entry/stop/target ladder around the last close
type Plan struct {
	EntryLow  float64 `json:"entryLow"`
	EntryHigh float64 `json:"entryHigh"`
	Stop      float64 `json:"stop"`
	TP1       float64 `json:"tp1"`
	TP2       float64 `json:"tp2"`
	ATRUsed   float64 `json:"atrUsed"`
}

// Diagnostics records which gates failed and why
type Diagnostics struct {
	Gates        map[string]bool `json:"gates"`
	Failed       []string        `json:"failed,omitempty"` // 실패 사유 (게이트 순서)
	Reason       string          `json:"reasons"`          // "PASS" 또는 사유 " / " 연결
	SecondaryAdj float64         `json:"finAdj"`
	NearHighDist *float64        `json:"nearHighDistPct,omitempty"`
}

// ScoreRecord is the internal working record of one scored symbol
// ⭐ SSOT: Stage 1/2 작업 레코드 (외부 출력은 Pick 으로 투영)
//
// Stage 2 에서는 제자리 수정하지 않고 새 레코드로 교체한다.
type ScoreRecord struct {
	Symbol        string               `json:"symbol"`
	Name          string               `json:"name"`
	Industry      string               `json:"industry"`
	Signals       RawSignals           `json:"signals"`
	Institutional InstitutionalSummary `json:"institutional"`
	Secondary     *SecondarySignals    `json:"secondary"`
	Score         float64              `json:"score"`
	Passed        bool                 `json:"passed"`
	Plan          Plan                 `json:"plan"`
	Badges        []string             `json:"badges,omitempty"`
	Diagnostics   Diagnostics          `json:"debug"`
	Stage         string               `json:"stage"`
	TradeStyle    string               `json:"tradeStyle,omitempty"`
	Rank          int                  `json:"rank,omitempty"`

	// internal-only, stripped by the Pick projection
	Bars *BarSeries `json:"-"`
}

// IsTopRanked checks if the record is in the top N ranks
func (r *ScoreRecord) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}
