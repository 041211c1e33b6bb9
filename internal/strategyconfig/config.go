package strategyconfig

import "time"

// Config는 종목 선정 전략의 전체 설정
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Universe    Universe    `yaml:"universe" json:"universe"`
	Signals     Signals     `yaml:"signals" json:"signals"`
	Flow        Flow        `yaml:"flow" json:"flow"`
	Secondary   Secondary   `yaml:"secondary" json:"secondary"`
	Screening   Screening   `yaml:"screening" json:"screening"`
	Scoring     Scoring     `yaml:"scoring" json:"scoring"`
	Plan        Plan        `yaml:"plan" json:"plan"`
	Selection   Selection   `yaml:"selection" json:"selection"`
	Concurrency Concurrency `yaml:"concurrency" json:"concurrency"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID        string `yaml:"strategy_id" json:"strategy_id"`
	Version           string `yaml:"version" json:"version"`
	Timezone          string `yaml:"timezone" json:"timezone"`
	DecisionTimeLocal string `yaml:"decision_time_local" json:"decision_time_local"` // HH:MM, 일일 실행 시각
}

// Universe S1: 후보 풀
type Universe struct {
	PoolSize           int     `yaml:"pool_size" json:"pool_size"`
	MinLiquidityShares float64 `yaml:"min_liquidity_shares" json:"min_liquidity_shares"`
	MinPrice           float64 `yaml:"min_price" json:"min_price"`
	ExcludeInnovation  bool    `yaml:"exclude_innovation" json:"exclude_innovation"`
}

// Signals S2: 기술적 지표
type Signals struct {
	MinBars      int `yaml:"min_bars" json:"min_bars"`
	HighLookback int `yaml:"high_lookback" json:"high_lookback"`
}

// Flow 법인 수급 윈도우
type Flow struct {
	WindowDays          int `yaml:"window_days" json:"window_days"`
	MaxLookbackAttempts int `yaml:"max_lookback_attempts" json:"max_lookback_attempts"`
}

// Secondary Stage 2: 融資/當沖
type Secondary struct {
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"`
	Stage2TopK   int `yaml:"stage2_top_k" json:"stage2_top_k"`
}

// Screening 게이트 설정
type Screening struct {
	RSIMin         float64       `yaml:"rsi_min" json:"rsi_min"`
	RSIMax         float64       `yaml:"rsi_max" json:"rsi_max"`
	VolumeRatioMin float64       `yaml:"volume_ratio_min" json:"volume_ratio_min"`
	Institutional  Institutional `yaml:"institutional" json:"institutional"`
	NearHigh       NearHigh      `yaml:"near_high" json:"near_high"`
}

type Institutional struct {
	Enable    bool `yaml:"enable" json:"enable"`
	MinStreak int  `yaml:"min_streak" json:"min_streak"`
}

type NearHigh struct {
	Enable     bool    `yaml:"enable" json:"enable"`
	MaxDistPct float64 `yaml:"max_dist_pct" json:"max_dist_pct"` // 0.05 = 5%
	Bonus      float64 `yaml:"bonus" json:"bonus"`
}

// Scoring 복합 점수 가중치
type Scoring struct {
	InstitutionalWeight float64 `yaml:"institutional_weight" json:"institutional_weight"`
	TrendWeight         float64 `yaml:"trend_weight" json:"trend_weight"`
	VolumeWeight        float64 `yaml:"volume_weight" json:"volume_weight"`
	HotPenalty          float64 `yaml:"hot_penalty" json:"hot_penalty"`
	CalmDayTradeBonus   float64 `yaml:"calm_day_trade_bonus" json:"calm_day_trade_bonus"`
	CalmDayTradePct     float64 `yaml:"calm_day_trade_pct" json:"calm_day_trade_pct"`
}

// Plan ATR 배수 기반 진입/손절/목표가
type Plan struct {
	EntryATR       float64 `yaml:"entry_atr" json:"entry_atr"`
	StopATR        float64 `yaml:"stop_atr" json:"stop_atr"`
	TP1ATR         float64 `yaml:"tp1_atr" json:"tp1_atr"`
	TP2ATR         float64 `yaml:"tp2_atr" json:"tp2_atr"`
	FallbackATRPct float64 `yaml:"fallback_atr_pct" json:"fallback_atr_pct"` // ATR 미정의 시 종가 대비
}

// Selection 최종 선정
type Selection struct {
	MaxPicks     int     `yaml:"max_picks" json:"max_picks"`
	MinPickScore float64 `yaml:"min_pick_score" json:"min_pick_score"`
	PerBucket    int     `yaml:"per_bucket" json:"per_bucket"`
}

// Concurrency 단계별 동시성/요청 간격
type Concurrency struct {
	Stage1Workers  int `yaml:"stage1_workers" json:"stage1_workers"`
	Stage2Workers  int `yaml:"stage2_workers" json:"stage2_workers"`
	PaceMillis     int `yaml:"pace_ms" json:"pace_ms"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Pace returns the per-worker request spacing
func (c Concurrency) Pace() time.Duration {
	return time.Duration(c.PaceMillis) * time.Millisecond
}

// Timeout returns the per-symbol work timeout
func (c Concurrency) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Default returns the reference strategy
// ⭐ SSOT: 파일 없이도 파이프라인이 동작하는 기준값
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID:        "tw_equity_picks",
			Version:           "1",
			Timezone:          "Asia/Taipei",
			DecisionTimeLocal: "15:10",
		},
		Universe: Universe{
			PoolSize:           600,
			MinLiquidityShares: 500_000,
			MinPrice:           10,
			ExcludeInnovation:  true,
		},
		Signals: Signals{
			MinBars:      30,
			HighLookback: 120,
		},
		Flow: Flow{
			WindowDays:          10,
			MaxLookbackAttempts: 60,
		},
		Secondary: Secondary{
			LookbackDays: 35,
			Stage2TopK:   40,
		},
		Screening: Screening{
			RSIMin:         50,
			RSIMax:         82,
			VolumeRatioMin: 1.1,
			Institutional:  Institutional{Enable: true, MinStreak: 3},
			NearHigh:       NearHigh{Enable: false, MaxDistPct: 0.05, Bonus: 5},
		},
		Scoring: Scoring{
			InstitutionalWeight: 3.2,
			TrendWeight:         2.2,
			VolumeWeight:        10,
			HotPenalty:          2.0,
			CalmDayTradeBonus:   0.6,
			CalmDayTradePct:     20,
		},
		Plan: Plan{
			EntryATR:       0.3,
			StopATR:        1.5,
			TP1ATR:         2.0,
			TP2ATR:         3.0,
			FallbackATRPct: 0.03,
		},
		Selection: Selection{
			MaxPicks:     3,
			MinPickScore: 0,
			PerBucket:    3,
		},
		Concurrency: Concurrency{
			Stage1Workers:  6,
			Stage2Workers:  5,
			PaceMillis:     30,
			TimeoutSeconds: 45,
		},
	}
}
