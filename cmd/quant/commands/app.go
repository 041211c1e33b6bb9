package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/twpicks/internal/brain"
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/external/finmind"
	"github.com/wonny/twpicks/internal/external/twse"
	"github.com/wonny/twpicks/internal/external/yahoo"
	"github.com/wonny/twpicks/internal/s0_data/cache"
	"github.com/wonny/twpicks/internal/selection"
	"github.com/wonny/twpicks/internal/strategyconfig"
	"github.com/wonny/twpicks/pkg/config"
	"github.com/wonny/twpicks/pkg/database"
	"github.com/wonny/twpicks/pkg/httputil"
	"github.com/wonny/twpicks/pkg/logger"
	"github.com/wonny/twpicks/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	strategy     *strategyconfig.Config
	memory       *cache.Memory // Redis 사용 시 nil
	orchestrator *brain.Orchestrator
	recorder     contracts.RunRecorder // nil ⇒ 기록 안 함

	closers []func()
}

// appOptions selects optional infrastructure
type appOptions struct {
	withRecorder bool
}

// newApp loads configuration and wires sources, cache, pipeline and recorder
// ⭐ SSOT: 의존성 조립은 여기서만
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Strategy
	path := cfg.StrategyPath
	if strategyFile != "" {
		path = strategyFile
	}
	strategy, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Strategy warning")
	}

	a := &app{cfg: cfg, log: log, strategy: strategy}

	// 4. Response cache: Redis when enabled, otherwise in-process
	sourceCache, err := a.openCache()
	if err != nil {
		return nil, err
	}

	// 5. External sources
	httpClient := httputil.New(cfg, log)
	twseClient := twse.NewClient(httpClient, sourceCache, cfg.TWSE, log)
	yahooClient := yahoo.NewClient(httpClient, sourceCache, cfg.Yahoo.BaseURL, log)
	finmindClient := finmind.NewClient(httpClient, sourceCache, cfg.FinMind, log)

	sources := brain.Sources{
		PrimaryDayAll:   twseClient.OpenAPIDayAll(),
		SecondaryDayAll: twseClient.LegacyDayAll(),
		Classifiers: []contracts.ClassificationSource{
			finmindClient, // TaiwanStockInfo: 토큰 없이도 동작
			twseClient.ISINClassifications(),
		},
		Bars:          yahooClient,
		Institutional: twseClient,
		Enrichment:    finmindClient,
	}

	// 6. Pipeline
	orch, err := brain.NewOrchestrator(sources, strategy, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}
	a.orchestrator = orch

	// 7. Run recorder (optional)
	if opts.withRecorder {
		if err := a.openRecorder(ctx); err != nil {
			a.close()
			return nil, err
		}
	}

	log.WithFields(map[string]interface{}{
		"strategy":  strategy.Meta.StrategyID,
		"secondary": orch.SecondaryEnabled(),
		"recorder":  a.recorder != nil,
	}).Debug("Application wired")

	return a, nil
}

func (a *app) openCache() (contracts.Cache, error) {
	rc, err := redis.New(a.cfg)
	if err != nil {
		// Redis 장애 시 메모리 캐시로 계속
		a.log.WithError(err).Warn("Redis unavailable, using in-memory cache")
	} else if rc.Enabled() {
		a.closers = append(a.closers, func() { _ = rc.Close() })
		return redis.NewCache(rc, a.cfg.Redis.Prefix), nil
	}

	a.memory = cache.NewMemory(a.log)
	return a.memory, nil
}

// openRecorder prefers PostgreSQL, then the local SQLite archive
func (a *app) openRecorder(ctx context.Context) error {
	db, err := database.New(ctx, a.cfg)
	switch {
	case err == nil:
		a.closers = append(a.closers, db.Close)
		rec := selection.NewPostgresRecorder(db.Pool)
		if err := rec.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		a.recorder = rec
		a.log.Info("Recording runs to PostgreSQL")
		return nil
	case !errors.Is(err, database.ErrDisabled):
		return fmt.Errorf("connect to database: %w", err)
	}

	if !a.cfg.SQLite.Enabled {
		return nil
	}
	sqlDB, err := database.OpenSQLite(a.cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	a.closers = append(a.closers, func() { _ = sqlDB.Close() })

	rec := selection.NewSQLiteRecorder(sqlDB)
	if err := rec.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	a.recorder = rec
	a.log.WithField("path", a.cfg.SQLite.Path).Info("Recording runs to SQLite")
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
