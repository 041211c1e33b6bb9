package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wonny/twpicks/internal/brain"
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

// TodayFile is the name of the latest-run output file
const TodayFile = "today.json"

// PicksRunner runs the screening pipeline
type PicksRunner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// DailyPicksJob runs the pipeline after the close and publishes the result
// ⭐ SSOT: 일일 추천 스케줄은 이 Job에서만
type DailyPicksJob struct {
	runner    PicksRunner
	recorder  contracts.RunRecorder // nil 허용
	outputDir string
	schedule  string
	perBucket int
	logger    *logger.Logger
}

// DailyPicksConfig holds the daily job settings
type DailyPicksConfig struct {
	OutputDir    string
	DecisionTime string // HH:MM (스케줄러 location 기준)
	PerBucket    int
}

// NewDailyPicksJob creates a new daily picks job
func NewDailyPicksJob(runner PicksRunner, recorder contracts.RunRecorder, cfg DailyPicksConfig, log *logger.Logger) (*DailyPicksJob, error) {
	schedule, err := WeekdaySchedule(cfg.DecisionTime)
	if err != nil {
		return nil, err
	}
	return &DailyPicksJob{
		runner:    runner,
		recorder:  recorder,
		outputDir: cfg.OutputDir,
		schedule:  schedule,
		perBucket: cfg.PerBucket,
		logger:    log.WithField("job", "daily_picks"),
	}, nil
}

// WeekdaySchedule converts HH:MM into a Mon-Fri cron expression with seconds
func WeekdaySchedule(hhmm string) (string, error) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid decision time %q: want HH:MM", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("invalid decision hour %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("invalid decision minute %q", hhmm)
	}
	return fmt.Sprintf("0 %d %d * * 1-5", m, h), nil
}

// Name returns the job name
func (j *DailyPicksJob) Name() string {
	return "daily_picks"
}

// Schedule returns the cron schedule (평일 장 마감 후)
func (j *DailyPicksJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline, writes today.json and records the run
func (j *DailyPicksJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled picks run")

	res, err := j.runner.Run(ctx, brain.RunConfig{PerBucket: j.perBucket})
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	if res.Result == nil {
		return fmt.Errorf("run %s produced no result", res.RunID)
	}

	path, err := WriteResult(j.outputDir, res.Result)
	if err != nil {
		return err
	}

	if j.recorder != nil {
		if err := j.recorder.SaveRun(ctx, res.Result); err != nil {
			return fmt.Errorf("record run %s: %w", res.RunID, err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": res.RunID,
		"date":   res.Result.Date,
		"picks":  len(res.Result.Picks),
		"path":   path,
	}).Info("Scheduled picks run completed")

	return nil
}

// WriteResult writes the result atomically to dir/today.json
func WriteResult(dir string, result *contracts.PickResult) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	path := filepath.Join(dir, TodayFile)
	tmp, err := os.CreateTemp(dir, ".today-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close result: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish result: %w", err)
	}
	return path, nil
}
