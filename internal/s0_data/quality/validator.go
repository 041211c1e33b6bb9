package quality

import (
	"fmt"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
)

// Coverage keys
const (
	CoverageBars           = "bars"           // 일봉 수집 성공 / 풀
	CoverageHistory        = "history"        // 채점 가능(최소 봉 수) / 수집 성공
	CoverageInstitutional  = "institutional"  // 해석된 거래일 / 요청 윈도우
	CoverageClassification = "classification" // 분류 정보 보유 / 풀
)

// QualityGate scores how complete the inputs of one run were
// 실패해도 실행은 계속된다 (경고만)
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinBarsCoverage           float64 `json:"min_bars_coverage"`
	MinHistoryCoverage        float64 `json:"min_history_coverage"`
	MinInstitutionalCoverage  float64 `json:"min_institutional_coverage"`
	MinClassificationCoverage float64 `json:"min_classification_coverage"`
	MinQualityScore           float64 `json:"min_quality_score"`
}

// DefaultConfig returns the reference thresholds
func DefaultConfig() Config {
	return Config{
		MinBarsCoverage:           0.90,
		MinHistoryCoverage:        0.90,
		MinInstitutionalCoverage:  1.0,
		MinClassificationCoverage: 0.0, // 분류 소스는 fail-open
		MinQualityScore:           0.80,
	}
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Input is what one run observed
type Input struct {
	Date    time.Time
	Pool    *contracts.Pool
	Window  *contracts.FlowWindow
	Fetched int // 일봉 수집 성공 종목 수
	Scored  int // 최소 봉 수를 채운 종목 수
}

// Snapshot is the coverage summary of one run
type Snapshot struct {
	Date         time.Time          `json:"date"`
	PoolSize     int                `json:"poolSize"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"qualityScore"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// IsValid reports whether every threshold held
func (s *Snapshot) IsValid() bool {
	return s != nil && len(s.Warnings) == 0
}

// Check computes coverage ratios and the weighted quality score
// ⭐ SSOT: 실행 입력 품질 검증
func (g *QualityGate) Check(in Input) *Snapshot {
	poolSize := in.Pool.Len()
	snapshot := &Snapshot{
		Date:     in.Date,
		PoolSize: poolSize,
		Coverage: map[string]float64{
			CoverageBars:           ratio(in.Fetched, poolSize),
			CoverageHistory:        ratio(in.Scored, in.Fetched),
			CoverageInstitutional:  windowCoverage(in.Window),
			CoverageClassification: classificationCoverage(in.Pool),
		},
	}
	snapshot.QualityScore = calculateScore(snapshot.Coverage)

	if poolSize == 0 {
		snapshot.Warnings = append(snapshot.Warnings, "empty universe")
	}
	thresholds := []struct {
		key string
		min float64
	}{
		{CoverageBars, g.config.MinBarsCoverage},
		{CoverageHistory, g.config.MinHistoryCoverage},
		{CoverageInstitutional, g.config.MinInstitutionalCoverage},
		{CoverageClassification, g.config.MinClassificationCoverage},
	}
	for _, th := range thresholds {
		if cov := snapshot.Coverage[th.key]; cov < th.min {
			snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("%s coverage %.2f < %.2f", th.key, cov, th.min))
		}
	}
	if snapshot.QualityScore < g.config.MinQualityScore {
		snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("quality score %.2f < %.2f", snapshot.QualityScore, g.config.MinQualityScore))
	}

	return snapshot
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		CoverageBars:           0.40, // 일봉 필수
		CoverageHistory:        0.20,
		CoverageInstitutional:  0.30, // 수급 윈도우
		CoverageClassification: 0.10,
	}

	score := 0.0
	for key, weight := range weights {
		score += coverage[key] * weight
	}
	return score
}

// ratio returns n/d; an empty denominator counts as full coverage
func ratio(n, d int) float64 {
	if d <= 0 {
		return 1
	}
	return float64(n) / float64(d)
}

func windowCoverage(w *contracts.FlowWindow) float64 {
	if w == nil {
		return 0
	}
	return ratio(len(w.Days), w.Requested)
}

func classificationCoverage(p *contracts.Pool) float64 {
	if p.Len() == 0 {
		return 1
	}
	known := 0
	for _, e := range p.Entries {
		if _, ok := p.Classification(e.Symbol); ok {
			known++
		}
	}
	return ratio(known, p.Len())
}
