package contracts

import (
	"context"
	"time"
)

// =============================================================================
// Data Sources (S0)
// =============================================================================

// DayAllSource fetches the bulk end-of-day record set for all listed symbols
type DayAllSource interface {
	Name() string
	FetchDayAll(ctx context.Context) ([]DayAllRecord, error)
}

// ClassificationSource fetches symbol identity/board metadata
type ClassificationSource interface {
	FetchClassifications(ctx context.Context) (map[string]Classification, error)
}

// BarSource fetches ~6 months of daily bars for one symbol
type BarSource interface {
	FetchBars(ctx context.Context, symbol string) (*BarSeries, error)
}

// InstitutionalSource fetches the all-symbols institutional record set for one date
// 휴장일/미공개일은 에러가 아닌 빈 InstitutionalDay 로 반환
type InstitutionalSource interface {
	FetchInstitutionalDay(ctx context.Context, date time.Time) (*InstitutionalDay, error)
}

// SecondarySource fetches per-symbol margin and day-trading series
type SecondarySource interface {
	Enabled() bool
	MarginSeries(ctx context.Context, symbol string, start, end time.Time) ([]MarginRow, error)
	DayTradingSeries(ctx context.Context, symbol string, start, end time.Time) ([]DayTradeRow, error)
}

// =============================================================================
// Infrastructure
// =============================================================================

// Cache is a TTL key/value store for source responses
// ⭐ SSOT: 메모리/Redis 캐시 공통 인터페이스
type Cache interface {
	// Get decodes the cached value into dest; false on miss or expiry
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RunRecorder persists pick results
type RunRecorder interface {
	SaveRun(ctx context.Context, result *PickResult) error
	LatestRun(ctx context.Context) (*PickResult, error)
}
