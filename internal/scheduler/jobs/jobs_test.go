package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twpicks/internal/brain"
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

type stubRunner struct {
	result *brain.RunResult
	err    error
	got    brain.RunConfig
}

func (s *stubRunner) Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	s.got = cfg
	return s.result, s.err
}

type stubRecorder struct {
	saved []*contracts.PickResult
	err   error
}

func (r *stubRecorder) SaveRun(ctx context.Context, result *contracts.PickResult) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, result)
	return nil
}

func (r *stubRecorder) LatestRun(ctx context.Context) (*contracts.PickResult, error) {
	if len(r.saved) == 0 {
		return nil, errors.New("no runs")
	}
	return r.saved[len(r.saved)-1], nil
}

type stubPruner struct{ removed int }

func (p *stubPruner) Prune() int { return p.removed }

func sampleResult() *brain.RunResult {
	return &brain.RunResult{
		RunID:   "run-1",
		Success: true,
		Result: &contracts.PickResult{
			OK:    true,
			RunID: "run-1",
			Date:  "2026-01-09",
			Picks: []contracts.Pick{{Symbol: "2330", PickType: contracts.PickPrimary, Score: 12.5}},
		},
	}
}

func TestWeekdaySchedule(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"15:10", "0 10 15 * * 1-5", false},
		{" 09:05 ", "0 5 9 * * 1-5", false},
		{"24:00", "", true},
		{"15:60", "", true},
		{"1510", "", true},
		{"ab:cd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WeekdaySchedule(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDailyPicksJob_Run(t *testing.T) {
	dir := t.TempDir()
	runner := &stubRunner{result: sampleResult()}
	recorder := &stubRecorder{}

	job, err := NewDailyPicksJob(runner, recorder, DailyPicksConfig{OutputDir: dir, DecisionTime: "15:10", PerBucket: 3}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "daily_picks", job.Name())
	assert.Equal(t, "0 10 15 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 3, runner.got.PerBucket)

	raw, err := os.ReadFile(filepath.Join(dir, TodayFile))
	require.NoError(t, err)
	var written contracts.PickResult
	require.NoError(t, json.Unmarshal(raw, &written))
	assert.Equal(t, "run-1", written.RunID)
	require.Len(t, written.Picks, 1)
	assert.Equal(t, "2330", written.Picks[0].Symbol)

	require.Len(t, recorder.saved, 1)
	assert.Equal(t, "run-1", recorder.saved[0].RunID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not remain")
}

func TestDailyPicksJob_Run_Errors(t *testing.T) {
	t.Run("pipeline error", func(t *testing.T) {
		job, err := NewDailyPicksJob(&stubRunner{err: context.Canceled}, nil, DailyPicksConfig{OutputDir: t.TempDir(), DecisionTime: "15:10"}, logger.Nop())
		require.NoError(t, err)
		assert.ErrorIs(t, job.Run(context.Background()), context.Canceled)
	})

	t.Run("recorder error", func(t *testing.T) {
		dir := t.TempDir()
		job, err := NewDailyPicksJob(&stubRunner{result: sampleResult()}, &stubRecorder{err: errors.New("db down")}, DailyPicksConfig{OutputDir: dir, DecisionTime: "15:10"}, logger.Nop())
		require.NoError(t, err)
		assert.Error(t, job.Run(context.Background()))

		// 파일은 기록 실패와 무관하게 남는다
		_, statErr := os.Stat(filepath.Join(dir, TodayFile))
		assert.NoError(t, statErr)
	})

	t.Run("nil recorder", func(t *testing.T) {
		job, err := NewDailyPicksJob(&stubRunner{result: sampleResult()}, nil, DailyPicksConfig{OutputDir: t.TempDir(), DecisionTime: "15:10"}, logger.Nop())
		require.NoError(t, err)
		assert.NoError(t, job.Run(context.Background()))
	})

	t.Run("bad decision time", func(t *testing.T) {
		_, err := NewDailyPicksJob(&stubRunner{}, nil, DailyPicksConfig{DecisionTime: "3pm"}, logger.Nop())
		assert.Error(t, err)
	})
}

func TestCachePruneJob(t *testing.T) {
	job := NewCachePruneJob(&stubPruner{removed: 4}, logger.Nop())
	assert.Equal(t, "cache_prune", job.Name())
	assert.Equal(t, "0 */10 * * * *", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))
}
