package collector

import (
	"context"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

// Collector fetches per-symbol bar series under bounded concurrency
// ⭐ SSOT: 종목별 일봉 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	bars    contracts.BarSource
	opts    Options
	timeout time.Duration
	logger  *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int           // 동시 워커 수
	Pace    time.Duration // 워커별 요청 간격
	Timeout time.Duration // 종목별 작업 타임아웃 (0 이면 없음)
}

// NewCollector creates a new Collector instance
func NewCollector(bars contracts.BarSource, cfg Config, log *logger.Logger) *Collector {
	return &Collector{
		bars:    bars,
		opts:    Options{Limit: cfg.Workers, Pace: cfg.Pace},
		timeout: cfg.Timeout,
		logger:  log.WithField("module", "collector"),
	}
}

// FetchResult represents the result of a fetch operation
type FetchResult struct {
	Symbol string
	Series *contracts.BarSeries
	Error  error
}

// CollectBars fetches bars for every symbol; results follow input order
func (c *Collector) CollectBars(ctx context.Context, symbols []string) []FetchResult {
	c.logger.WithFields(map[string]interface{}{
		"symbol_count": len(symbols),
		"workers":      c.opts.Limit,
		"pace_ms":      c.opts.Pace.Milliseconds(),
	}).Info("Starting bar collection")

	outcomes := RunBounded(ctx, symbols, c.opts, func(ctx context.Context, symbol string) (*contracts.BarSeries, error) {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return c.bars.FetchBars(ctx, symbol)
	})

	results := make([]FetchResult, len(symbols))
	failCount := 0
	for i, o := range outcomes {
		results[i] = FetchResult{Symbol: symbols[i], Series: o.Value, Error: o.Err}
		if o.Err != nil {
			failCount++
			c.logger.WithError(o.Err).WithField("symbol", symbols[i]).Debug("Bar fetch failed")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(symbols) - failCount,
		"failed":  failCount,
		"total":   len(results),
	}).Info("Bar collection completed")

	return results
}
