package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/twpicks/internal/scheduler"
	"github.com/wonny/twpicks/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run daily_picks`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- daily_picks: 평일 장 마감 후 (전략 decision_time_local, 기본 15:10 Asia/Taipei)
- cache_prune: 10분마다 (메모리 캐시 사용 시)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	sched.Start()

	PrintSuccess("Scheduler started")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, sched, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	result, err := sched.RunJobNow(ctx, args[0])
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", result.JobName, result.Duration.Round(1e6)))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	widths := []int{14, 18, 20}
	PrintTableHeader([]string{"Job", "Schedule", "Next run"}, widths)
	for _, name := range names {
		st := stats[name]
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.Format("2006-01-02 15:04")
		}
		PrintTableRow([]string{name, st.Schedule, next}, widths)
	}
}

// initScheduler wires the app and registers every job
func initScheduler(ctx context.Context) (*app, *scheduler.Scheduler, error) {
	a, err := newApp(ctx, appOptions{withRecorder: true})
	if err != nil {
		return nil, nil, err
	}

	loc, err := time.LoadLocation(a.strategy.Meta.Timezone)
	if err != nil {
		loc = a.cfg.Location()
	}
	sched := scheduler.New(scheduler.Config{Location: loc}, a.log)

	daily, err := jobs.NewDailyPicksJob(a.orchestrator, a.recorder, jobs.DailyPicksConfig{
		OutputDir:    a.cfg.OutputDir,
		DecisionTime: a.strategy.Meta.DecisionTimeLocal,
		PerBucket:    a.strategy.Selection.PerBucket,
	}, a.log)
	if err != nil {
		a.close()
		return nil, nil, err
	}
	if err := sched.AddJob(daily); err != nil {
		a.close()
		return nil, nil, err
	}

	if a.memory != nil {
		if err := sched.AddJob(jobs.NewCachePruneJob(a.memory, a.log)); err != nil {
			a.close()
			return nil, nil, err
		}
	}

	return a, sched, nil
}
