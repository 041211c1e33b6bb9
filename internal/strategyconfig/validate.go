package strategyconfig

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var hhmmPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil || cfg.Meta.Timezone == "" {
		return ValidationError{"meta.timezone", "must be a valid IANA zone"}
	}
	if err := validateHHMM(cfg.Meta.DecisionTimeLocal); err != nil {
		return ValidationError{"meta.decision_time_local", err.Error()}
	}

	// === Universe ===
	if cfg.Universe.PoolSize <= 0 {
		return ValidationError{"universe.pool_size", "must be > 0"}
	}
	if cfg.Universe.MinLiquidityShares < 0 {
		return ValidationError{"universe.min_liquidity_shares", "must be >= 0"}
	}
	if cfg.Universe.MinPrice < 0 {
		return ValidationError{"universe.min_price", "must be >= 0"}
	}

	// === Signals ===
	// RSI14/MA20 정의에 최소 20봉 필요
	if cfg.Signals.MinBars < 20 {
		return ValidationError{"signals.min_bars", "must be >= 20"}
	}
	if cfg.Signals.HighLookback <= 0 {
		return ValidationError{"signals.high_lookback", "must be > 0"}
	}

	// === Flow ===
	if cfg.Flow.WindowDays <= 0 {
		return ValidationError{"flow.window_days", "must be > 0"}
	}
	if cfg.Flow.MaxLookbackAttempts < cfg.Flow.WindowDays {
		return ValidationError{"flow.max_lookback_attempts", "must be >= window_days"}
	}

	// === Secondary ===
	if cfg.Secondary.LookbackDays <= 0 {
		return ValidationError{"secondary.lookback_days", "must be > 0"}
	}
	if cfg.Secondary.Stage2TopK < 10 || cfg.Secondary.Stage2TopK > 100 {
		return ValidationError{"secondary.stage2_top_k", "must be in [10, 100]"}
	}

	// === Screening ===
	s := cfg.Screening
	if s.RSIMin < 0 || s.RSIMax > 100 || s.RSIMin >= s.RSIMax {
		return ValidationError{"screening", "must satisfy 0 <= rsi_min < rsi_max <= 100"}
	}
	if s.VolumeRatioMin < 0 {
		return ValidationError{"screening.volume_ratio_min", "must be >= 0"}
	}
	if s.Institutional.Enable && s.Institutional.MinStreak < 1 {
		return ValidationError{"screening.institutional.min_streak", "must be >= 1"}
	}
	if s.NearHigh.Enable && (s.NearHigh.MaxDistPct <= 0 || s.NearHigh.MaxDistPct >= 1) {
		return ValidationError{"screening.near_high.max_dist_pct", "must be in (0, 1)"}
	}

	// === Scoring ===
	if cfg.Scoring.HotPenalty < 0 {
		return ValidationError{"scoring.hot_penalty", "must be >= 0"}
	}

	// === Plan ===
	p := cfg.Plan
	if p.StopATR <= 0 || p.TP1ATR <= 0 || p.TP2ATR < p.TP1ATR {
		return ValidationError{"plan", "must satisfy stop_atr > 0 and 0 < tp1_atr <= tp2_atr"}
	}
	if p.FallbackATRPct <= 0 {
		return ValidationError{"plan.fallback_atr_pct", "must be > 0"}
	}

	// === Selection ===
	if cfg.Selection.MaxPicks < 1 {
		return ValidationError{"selection.max_picks", "must be >= 1"}
	}
	if cfg.Selection.PerBucket < 1 {
		return ValidationError{"selection.per_bucket", "must be >= 1"}
	}

	// === Concurrency ===
	if cfg.Concurrency.Stage1Workers < 1 || cfg.Concurrency.Stage2Workers < 1 {
		return ValidationError{"concurrency", "workers must be >= 1"}
	}
	if cfg.Concurrency.PaceMillis < 0 || cfg.Concurrency.TimeoutSeconds < 0 {
		return ValidationError{"concurrency", "pace_ms and timeout_seconds must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 최소 점수 음수 허용 시 경고
	if cfg.Selection.MinPickScore < 0 {
		warnings = append(warnings, Warning{
			Code:    "NEGATIVE_MIN_SCORE",
			Message: "min_pick_score < 0: 음수 점수 종목이 추천될 수 있음",
		})
	}

	// 수급 게이트와 고점 게이트 동시 사용
	if cfg.Screening.Institutional.Enable && cfg.Screening.NearHigh.Enable {
		warnings = append(warnings, Warning{
			Code:    "STACKED_GATES",
			Message: "institutional + near_high 동시 적용: 주추천(主推) 수가 크게 줄 수 있음",
		})
	}

	// 과도한 동시성 경고 (외부 API 차단 위험)
	if cfg.Concurrency.Stage1Workers > 10 || cfg.Concurrency.Stage2Workers > 10 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_CONCURRENCY",
			Message: "workers > 10: 외부 API 요청 제한에 걸릴 수 있음",
		})
	}

	if cfg.Concurrency.PaceMillis == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_PACING",
			Message: "pace_ms = 0: 워커별 요청 간격 없음",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateHHMM(s string) error {
	if !hhmmPattern.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}
