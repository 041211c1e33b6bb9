package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s0_data/collector"
	"github.com/wonny/twpicks/internal/s0_data/quality"
	"github.com/wonny/twpicks/internal/s1_universe"
	"github.com/wonny/twpicks/internal/s2_signals"
	"github.com/wonny/twpicks/internal/selection"
	"github.com/wonny/twpicks/internal/strategyconfig"
	"github.com/wonny/twpicks/pkg/logger"
)

// ErrInsufficientHistory is returned by ScoreSymbol when a symbol has too few bars
var ErrInsufficientHistory = errors.New("insufficient bar history")

// PoolType tags the universe in run output
const PoolType = "TWSE_TOP_VOLUME"

// Stage names (RunResult.CompletedStages)
const (
	StageUniverse  = "S1:Universe"
	StageFlow      = "S2:FlowWindow"
	StageOne       = "Stage1:Score"
	StageTwo       = "Stage2:Enrich"
	StageSelection = "Select"
)

// Sources are the external collaborators of a run
type Sources struct {
	PrimaryDayAll   contracts.DayAllSource
	SecondaryDayAll contracts.DayAllSource
	Classifiers     []contracts.ClassificationSource
	Bars            contracts.BarSource
	Institutional   contracts.InstitutionalSource
	Enrichment      contracts.SecondarySource // nil 또는 Enabled()=false ⇒ Stage 2 생략
}

// Orchestrator coordinates the screening pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	universe  *s1_universe.Builder
	bars      contracts.BarSource
	collector *collector.Collector
	flow      *s2_signals.FlowAggregator
	technical *s2_signals.TechnicalCalculator
	secondary *s2_signals.SecondaryEnricher
	scorer    *selection.Scorer
	ranker    *selection.Ranker
	picker    *selection.Picker
	quality   *quality.QualityGate

	strategy     *strategyconfig.Config
	strategyHash string
	location     *time.Location
	now          func() time.Time

	logger *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Date       time.Time // zero ⇒ now (전략 timezone)
	RunID      string    // empty ⇒ uuid
	WindowDays int       // 0 ⇒ strategy flow.window_days
	TopK       int       // 0 ⇒ strategy secondary.stage2_top_k, [10,100]
	Bucket     string    // "" ⇒ all
	PerBucket  int       // > 0 ⇒ bucketPicks 도 생성
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	Date            time.Time
	Success         bool
	CompletedStages []string
	Pool            *contracts.Pool
	Window          *contracts.FlowWindow
	Records         []contracts.ScoreRecord // 최종 랭킹 (내부용)
	Quality         *quality.Snapshot
	Result          *contracts.PickResult
	Duration        time.Duration
}

// NewOrchestrator wires the pipeline from sources and strategy
func NewOrchestrator(src Sources, strategy *strategyconfig.Config, log *logger.Logger) (*Orchestrator, error) {
	if strategy == nil {
		strategy = strategyconfig.Default()
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}
	loc, err := time.LoadLocation(strategy.Meta.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", strategy.Meta.Timezone, err)
	}

	u := strategy.Universe
	cc := strategy.Concurrency

	return &Orchestrator{
		universe: s1_universe.NewBuilder(src.PrimaryDayAll, src.SecondaryDayAll, src.Classifiers, s1_universe.Config{
			PoolSize:           u.PoolSize,
			MinLiquidityShares: u.MinLiquidityShares,
			MinPrice:           u.MinPrice,
			ExcludeInnovation:  u.ExcludeInnovation,
		}, log),
		bars: src.Bars,
		collector: collector.NewCollector(src.Bars, collector.Config{
			Workers: cc.Stage1Workers,
			Pace:    cc.Pace(),
			Timeout: cc.Timeout(),
		}, log),
		flow:         s2_signals.NewFlowAggregator(src.Institutional, strategy.Flow.MaxLookbackAttempts, log),
		technical:    s2_signals.NewTechnicalCalculator(strategy.Signals.MinBars, strategy.Signals.HighLookback, log),
		secondary:    s2_signals.NewSecondaryEnricher(src.Enrichment, strategy.Secondary.LookbackDays, log),
		scorer:       selection.NewScorer(strategy),
		ranker:       selection.NewRanker(log),
		picker:       selection.NewPicker(strategy.Selection, log),
		quality:      quality.NewQualityGate(quality.DefaultConfig()),
		strategy:     strategy,
		strategyHash: hash,
		location:     loc,
		now:          time.Now,
		logger:       log.WithField("module", "brain"),
	}, nil
}

// Universe exposes the pool builder (debug surface)
func (o *Orchestrator) Universe() *s1_universe.Builder {
	return o.universe
}

// SecondaryEnabled reports whether stage 2 will run
func (o *Orchestrator) SecondaryEnabled() bool {
	return o.secondary.Enabled()
}

// Strategy returns the strategy in use
func (o *Orchestrator) Strategy() *strategyconfig.Config {
	return o.strategy
}

// Run executes the pipeline
// S1 → flow window → Stage 1 → top-K → Stage 2 → splice → select
//
// ctx 취소만 에러로 반환한다. 원천 실패는 모두 제외 처리.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	startTime := o.now()
	cfg = o.normalize(cfg)
	bucket := selection.ParseBucket(cfg.Bucket)

	result := &RunResult{
		RunID:           cfg.RunID,
		Date:            cfg.Date,
		CompletedStages: make([]string, 0, 5),
	}
	log := o.logger.WithRun(cfg.RunID)

	log.WithFields(map[string]interface{}{
		"date":        cfg.Date.Format("2006-01-02"),
		"window_days": cfg.WindowDays,
		"top_k":       cfg.TopK,
		"bucket":      bucket.Key,
		"secondary":   o.secondary.Enabled(),
	}).Info("Starting pipeline run")

	// S1: Universe
	pool, err := o.universe.Build(ctx, cfg.Date)
	if err != nil {
		return result, fmt.Errorf("universe: %w", err)
	}
	result.Pool = pool
	result.CompletedStages = append(result.CompletedStages, StageUniverse)

	// S2: 수급 윈도우 (실행당 1회)
	window, err := o.flow.ResolveWindow(ctx, cfg.Date, cfg.WindowDays)
	if err != nil {
		return result, fmt.Errorf("flow window: %w", err)
	}
	result.Window = window
	result.CompletedStages = append(result.CompletedStages, StageFlow)

	// Stage 1
	records, fetchedOK, err := o.runStage1(ctx, pool, window)
	if err != nil {
		return result, err
	}
	result.Quality = o.quality.Check(quality.Input{
		Date:    cfg.Date,
		Pool:    pool,
		Window:  window,
		Fetched: fetchedOK,
		Scored:  len(records),
	})
	if !result.Quality.IsValid() {
		log.WithFields(map[string]interface{}{
			"quality_score": result.Quality.QualityScore,
			"warnings":      result.Quality.Warnings,
		}).Warn("Data quality below threshold, continuing")
	}
	if bucket.Key != selection.BucketAll {
		records = selection.FilterBucket(records, bucket)
	}
	ranked := o.ranker.Rank(records)
	result.CompletedStages = append(result.CompletedStages, StageOne)

	log.WithFields(map[string]interface{}{
		"pool":   pool.Len(),
		"scored": len(ranked),
	}).Info("Stage 1 completed")

	// Stage 2: 상위 K 만 2차 신호로 재채점
	stage2TopK := 0
	if o.secondary.Enabled() && len(ranked) > 0 {
		stage2TopK = cfg.TopK
		top := o.ranker.TopK(ranked, cfg.TopK)
		rescored, err := o.runStage2(ctx, top, cfg.Date)
		if err != nil {
			return result, err
		}
		ranked = o.ranker.Splice(ranked, rescored)
		result.CompletedStages = append(result.CompletedStages, StageTwo)

		log.WithFields(map[string]interface{}{
			"candidates": len(top),
			"rescored":   len(rescored),
		}).Info("Stage 2 completed")
	}
	result.Records = ranked

	// Select
	picks := o.picker.Select(ranked)
	out := &contracts.PickResult{
		OK:           true,
		RunID:        cfg.RunID,
		Date:         cfg.Date.Format("2006-01-02"),
		GeneratedAt:  o.now(),
		StrategyHash: o.strategyHash,
		Pool: contracts.PoolInfo{
			Type: PoolType,
			Size: pool.Len(),
			Note: o.poolNote(),
		},
		WindowDays:          cfg.WindowDays,
		Bucket:              bucket,
		SecondaryEnabled:    o.secondary.Enabled(),
		Stage2TopK:          stage2TopK,
		MinPickScore:        o.picker.MinScore(),
		CountInBucket:       len(ranked),
		CountPassedInBucket: o.picker.CountPassed(ranked),
		Picks:               picks,
	}
	if cfg.PerBucket > 0 {
		out.BucketPicks = o.picker.SelectByBuckets(ranked, cfg.PerBucket)
	}
	result.Result = out
	result.CompletedStages = append(result.CompletedStages, StageSelection)

	result.Success = true
	result.Duration = o.now().Sub(startTime)

	log.WithFields(map[string]interface{}{
		"picks":    len(picks),
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// runStage1 fetches bars for the pool and scores every symbol with enough history
// 반환: 레코드, 일봉 수집 성공 수
func (o *Orchestrator) runStage1(ctx context.Context, pool *contracts.Pool, window *contracts.FlowWindow) ([]contracts.ScoreRecord, int, error) {
	fetched := o.collector.CollectBars(ctx, pool.Symbols())
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("stage 1: %w", err)
	}

	records := make([]contracts.ScoreRecord, 0, len(fetched))
	short, ok := 0, 0
	for i, f := range fetched {
		if f.Error != nil {
			continue
		}
		ok++
		signals, enough := o.technical.Calculate(f.Series)
		if !enough {
			short++
			continue
		}

		entry := pool.Entries[i]
		inst := o.flow.Summarize(entry.Symbol, window)
		info, _ := pool.Classification(entry.Symbol)

		records = append(records, o.scorer.Score(selection.ScoreInput{
			Symbol:        entry.Symbol,
			Name:          DisplayName(inst.Name, info.Name, f.Series.Name, entry.Name),
			Industry:      info.Industry,
			Bars:          f.Series,
			Signals:       signals,
			Institutional: inst,
			Stage:         contracts.StageOne,
		}))
	}

	o.logger.WithFields(map[string]interface{}{
		"fetched":      len(fetched),
		"scored":       len(records),
		"short_series": short,
	}).Debug("Stage 1 scoring done")

	return records, ok, nil
}

// runStage2 enriches the top-K with secondary signals and rescores them
// 실패한 종목은 stage 1 레코드 그대로 유지
func (o *Orchestrator) runStage2(ctx context.Context, top []contracts.ScoreRecord, date time.Time) ([]contracts.ScoreRecord, error) {
	cc := o.strategy.Concurrency
	outcomes := collector.RunBounded(ctx, top, collector.Options{
		Limit: cc.Stage2Workers,
		Pace:  cc.Pace(),
	}, func(ctx context.Context, rec contracts.ScoreRecord) (contracts.ScoreRecord, error) {
		if t := cc.Timeout(); t > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t)
			defer cancel()
		}
		sec := o.secondary.Enrich(ctx, rec.Symbol, date)
		return o.rescore(rec, &sec), nil
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stage 2: %w", err)
	}

	rescored := make([]contracts.ScoreRecord, 0, len(outcomes))
	for i, out := range outcomes {
		if !out.OK() {
			o.logger.WithError(out.Err).WithField("symbol", top[i].Symbol).Warn("Stage 2 enrichment failed, keeping stage 1 score")
			continue
		}
		rescored = append(rescored, out.Value)
	}
	return rescored, nil
}

// rescore builds a new stage-2 record from a stage-1 record
func (o *Orchestrator) rescore(rec contracts.ScoreRecord, sec *contracts.SecondarySignals) contracts.ScoreRecord {
	return o.scorer.Score(selection.ScoreInput{
		Symbol:        rec.Symbol,
		Name:          rec.Name,
		Industry:      rec.Industry,
		Bars:          rec.Bars,
		Signals:       rec.Signals,
		Institutional: rec.Institutional,
		Secondary:     sec,
		Stage:         contracts.StageTwo,
	})
}

// ScoreSymbol runs the full scoring path for one symbol, secondary included
func (o *Orchestrator) ScoreSymbol(ctx context.Context, symbol string, windowDays int) (*contracts.ScoreRecord, error) {
	if windowDays <= 0 {
		windowDays = o.strategy.Flow.WindowDays
	}
	date := o.today()

	var (
		series *contracts.BarSeries
		window *contracts.FlowWindow
		info   map[string]contracts.Classification
		sec    contracts.SecondarySignals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		series, err = o.bars.FetchBars(gctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch bars %s: %w", symbol, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		window, err = o.flow.ResolveWindow(gctx, date, windowDays)
		return err
	})
	g.Go(func() error {
		info = o.universe.Classifications(gctx)
		return nil
	})
	g.Go(func() error {
		sec = o.secondary.Enrich(gctx, symbol, date)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	signals, ok := o.technical.Calculate(series)
	if !ok {
		return nil, fmt.Errorf("%s: %w (%d bars)", symbol, ErrInsufficientHistory, series.Len())
	}

	inst := o.flow.Summarize(symbol, window)
	c := info[symbol]

	in := selection.ScoreInput{
		Symbol:        symbol,
		Name:          DisplayName(inst.Name, c.Name, series.Name, ""),
		Industry:      c.Industry,
		Bars:          series,
		Signals:       signals,
		Institutional: inst,
		Stage:         contracts.StageOne,
	}
	if o.secondary.Enabled() {
		in.Secondary = &sec
		in.Stage = contracts.StageTwo
	}

	rec := o.scorer.Score(in)
	return &rec, nil
}

// DisplayName picks the first non-blank name: T86 → classification → bar source → day-all
func DisplayName(candidates ...string) string {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return ""
}

func (o *Orchestrator) normalize(cfg RunConfig) RunConfig {
	if cfg.Date.IsZero() {
		cfg.Date = o.today()
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = o.strategy.Flow.WindowDays
	}
	if cfg.TopK == 0 {
		cfg.TopK = o.strategy.Secondary.Stage2TopK
	}
	cfg.TopK = selection.ClampTopK(cfg.TopK)
	if cfg.Bucket == "" {
		cfg.Bucket = selection.BucketAll
	}
	return cfg
}

func (o *Orchestrator) today() time.Time {
	return o.now().In(o.location)
}

func (o *Orchestrator) poolNote() string {
	u := o.strategy.Universe
	return fmt.Sprintf("上市股票成交量排序取前%d（先過濾量>%.0f股、收盤>%.0f元、排除創新板/創新版）",
		u.PoolSize, u.MinLiquidityShares, u.MinPrice)
}
