package s1_universe

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

// 혁신판(創新板) 판별 정규식
var innovationBoardPattern = regexp.MustCompile(`(?i)創新|創新版|創新板|innovation`)

// Exclusion reasons (Pool.Excluded keys)
const (
	ReasonNotCommonStock = "非普通股"
	ReasonLowLiquidity   = "成交量不足"
	ReasonLowPrice       = "股價過低"
	ReasonInnovation     = "創新板"
	ReasonDuplicate      = "重複"
	ReasonPoolCap        = "超出股票池"
)

var symbolPattern = regexp.MustCompile(`^\d{4}$`)

// Builder constructs the run's candidate pool
type Builder struct {
	primary    contracts.DayAllSource
	secondary  contracts.DayAllSource
	classifier []contracts.ClassificationSource
	config     Config
	logger     *logger.Logger
}

// Config holds universe filter criteria
type Config struct {
	PoolSize           int     `json:"pool_size"`            // 거래량 상위 N
	MinLiquidityShares float64 `json:"min_liquidity_shares"` // 최소 거래량 (주, 초과)
	MinPrice           float64 `json:"min_price"`            // 최소 종가 (초과)
	ExcludeInnovation  bool    `json:"exclude_innovation"`   // 創新板 제외
}

// DefaultConfig returns the reference filter criteria
func DefaultConfig() Config {
	return Config{
		PoolSize:           600,
		MinLiquidityShares: 500_000,
		MinPrice:           10,
		ExcludeInnovation:  true,
	}
}

// NewBuilder creates a new Universe Builder
// classifiers 는 순서대로 시도, 처음으로 비어 있지 않은 결과를 사용
func NewBuilder(primary, secondary contracts.DayAllSource, classifiers []contracts.ClassificationSource, config Config, log *logger.Logger) *Builder {
	return &Builder{
		primary:    primary,
		secondary:  secondary,
		classifier: classifiers,
		config:     config,
		logger:     log.WithField("module", "universe"),
	}
}

// Build constructs the pool
// ⭐ SSOT: S1 → Stage 1 후보 생성
//
// 원천 실패는 에러가 아니다: 두 소스 모두 실패하면 빈 풀을 반환한다.
// 에러는 ctx 취소일 때만 반환.
func (b *Builder) Build(ctx context.Context, date time.Time) (*contracts.Pool, error) {
	records, source := b.fetchDayAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := b.loadClassifications(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool := b.filter(records, info)
	pool.Date = date
	pool.Source = source

	b.logger.WithFields(map[string]interface{}{
		"source":   source,
		"raw":      pool.RawCount,
		"pool":     pool.Len(),
		"excluded": pool.Excluded,
	}).Info("Universe built")

	return pool, nil
}

// fetchDayAll tries primary then secondary exactly once each
func (b *Builder) fetchDayAll(ctx context.Context) ([]contracts.DayAllRecord, string) {
	for _, src := range []contracts.DayAllSource{b.primary, b.secondary} {
		if src == nil {
			continue
		}
		records, err := src.FetchDayAll(ctx)
		if err != nil {
			b.logger.WithError(err).WithField("source", src.Name()).Warn("Day-all source failed")
			continue
		}
		if len(records) == 0 {
			b.logger.WithField("source", src.Name()).Warn("Day-all source returned no rows")
			continue
		}
		return records, src.Name()
	}
	return nil, "none"
}

// loadClassifications returns the first non-empty classification table (nil ⇒ fail open)
func (b *Builder) loadClassifications(ctx context.Context) map[string]contracts.Classification {
	for _, src := range b.classifier {
		info, err := src.FetchClassifications(ctx)
		if err != nil {
			b.logger.WithError(err).Warn("Classification source failed")
			continue
		}
		if len(info) > 0 {
			return info
		}
	}
	return nil
}

// Classifications returns the identity table used for exclusion and display names
func (b *Builder) Classifications(ctx context.Context) map[string]contracts.Classification {
	return b.loadClassifications(ctx)
}

// Config returns the thresholds in use
func (b *Builder) Config() Config {
	return b.config
}

// filter applies the pool rules to canonical records
func (b *Builder) filter(records []contracts.DayAllRecord, info map[string]contracts.Classification) *contracts.Pool {
	pool := &contracts.Pool{
		Entries:  make([]contracts.PoolEntry, 0),
		RawCount: len(records),
		Excluded: make(map[string]int),
		Info:     info,
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		reason := b.checkExclusion(rec, info)
		if reason == "" && seen[rec.Symbol] {
			reason = ReasonDuplicate
		}
		if reason != "" {
			pool.Excluded[reason]++
			continue
		}
		seen[rec.Symbol] = true
		pool.Entries = append(pool.Entries, contracts.PoolEntry{
			Symbol: rec.Symbol,
			Name:   rec.Name,
			Volume: rec.Volume,
			Close:  rec.Close,
		})
	}

	sort.SliceStable(pool.Entries, func(i, j int) bool {
		a, c := pool.Entries[i], pool.Entries[j]
		if a.Volume != c.Volume {
			return a.Volume > c.Volume
		}
		return a.Symbol < c.Symbol
	})

	if b.config.PoolSize > 0 && len(pool.Entries) > b.config.PoolSize {
		pool.Excluded[ReasonPoolCap] += len(pool.Entries) - b.config.PoolSize
		pool.Entries = pool.Entries[:b.config.PoolSize]
	}
	return pool
}

// checkExclusion returns the exclusion reason or "" when the record passes
func (b *Builder) checkExclusion(rec contracts.DayAllRecord, info map[string]contracts.Classification) string {
	// 1. 보통주 (4자리 숫자)
	if !symbolPattern.MatchString(rec.Symbol) {
		return ReasonNotCommonStock
	}

	// 2. 유동성
	if !(rec.Volume > b.config.MinLiquidityShares) {
		return ReasonLowLiquidity
	}

	// 3. 가격
	if !(rec.Close > b.config.MinPrice) {
		return ReasonLowPrice
	}

	// 4. 創新板 (분류 정보 없으면 통과)
	if b.config.ExcludeInnovation {
		if c, ok := info[rec.Symbol]; ok && IsInnovationBoard(c.Type) {
			return ReasonInnovation
		}
	}

	return ""
}

// IsInnovationBoard reports whether a board-type tag names the innovation board
func IsInnovationBoard(boardType string) bool {
	return innovationBoardPattern.MatchString(boardType)
}

// Diagnostics is the debug view of one pool build
type Diagnostics struct {
	Source        string                   `json:"source"`
	RawCount      int                      `json:"rawCount"`
	ParsedCount   int                      `json:"parsedCount"`
	FilteredCount int                      `json:"filteredCount"`
	PoolCount     int                      `json:"poolCount"`
	Excluded      map[string]int           `json:"excluded"`
	HeadParsed    []contracts.DayAllRecord `json:"headParsed"`
	HeadPool      []contracts.PoolEntry    `json:"headPool"`
	Thresholds    Config                   `json:"thresholds"`
}

// Inspect rebuilds the pool and reports how records were filtered
func (b *Builder) Inspect(ctx context.Context) (*Diagnostics, error) {
	records, source := b.fetchDayAll(ctx)
	info := b.loadClassifications(ctx)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("inspect universe: %w", err)
	}

	parsed := make([]contracts.DayAllRecord, 0, len(records))
	for _, r := range records {
		if symbolPattern.MatchString(r.Symbol) {
			parsed = append(parsed, r)
		}
	}

	pool := b.filter(records, info)
	filtered := pool.Len() + pool.Excluded[ReasonPoolCap]

	return &Diagnostics{
		Source:        source,
		RawCount:      len(records),
		ParsedCount:   len(parsed),
		FilteredCount: filtered,
		PoolCount:     pool.Len(),
		Excluded:      pool.Excluded,
		HeadParsed:    head(parsed, 5),
		HeadPool:      head(pool.Entries, 10),
		Thresholds:    b.config,
	}, nil
}

func head[T any](s []T, n int) []T {
	if len(s) < n {
		return s
	}
	return s[:n]
}
