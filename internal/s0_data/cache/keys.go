package cache

import (
	"fmt"
	"time"
)

// TTLs per source
const (
	TTLData   = 30 * time.Minute // 봉, T86, FinMind
	TTLDayAll = 10 * time.Minute // 전종목 일별 스냅샷
	TTLInfo   = 6 * time.Hour    // 종목 분류
)

// DayAllKey is the bulk day-all snapshot key for a source
func DayAllKey(source string) string {
	return fmt.Sprintf("dayall:%s", source)
}

// ClassificationKey is the symbol classification table key
func ClassificationKey(source string) string {
	return fmt.Sprintf("stockinfo:%s", source)
}

// BarsKey is the daily bar series key
func BarsKey(symbol string) string {
	return fmt.Sprintf("bars:%s", symbol)
}

// InstitutionalKey is the per-date institutional record set key
func InstitutionalKey(date time.Time) string {
	return fmt.Sprintf("t86:%s", date.Format("20060102"))
}
