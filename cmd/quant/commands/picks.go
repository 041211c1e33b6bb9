package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/twpicks/internal/brain"
	"github.com/wonny/twpicks/internal/scheduler/jobs"
)

// picksCmd represents the picks command
var picksCmd = &cobra.Command{
	Use:   "picks",
	Short: "추천 파이프라인",
	Long: `스크리닝 파이프라인을 실행하거나 단일 종목/풀을 진단합니다.

Subcommands:
  run     - 전체 파이프라인 실행 (최대 3종목 추천)
  stock   - 단일 종목 채점 (2차 신호 포함)
  pool    - 유니버스(거래량 상위 풀) 진단

Example:
  go run ./cmd/quant picks run
  go run ./cmd/quant picks run --bucket lt100 --top-k 60 --json
  go run ./cmd/quant picks stock 2330
  go run ./cmd/quant picks pool`,
}

var (
	picksRunCmd = &cobra.Command{
		Use:   "run",
		Short: "전체 파이프라인 실행",
		RunE:  runPicks,
	}

	picksStockCmd = &cobra.Command{
		Use:   "stock [symbol]",
		Short: "단일 종목 채점",
		Args:  cobra.ExactArgs(1),
		RunE:  runPicksStock,
	}

	picksPoolCmd = &cobra.Command{
		Use:   "pool",
		Short: "유니버스 진단",
		RunE:  runPicksPool,
	}

	// Flags
	picksWindow    int
	picksBucket    string
	picksTopK      int
	picksPerBucket int
	picksJSON      bool
	picksSave      bool
)

func init() {
	rootCmd.AddCommand(picksCmd)
	picksCmd.AddCommand(picksRunCmd)
	picksCmd.AddCommand(picksStockCmd)
	picksCmd.AddCommand(picksPoolCmd)

	picksCmd.PersistentFlags().IntVar(&picksWindow, "window", 0, "법인 수급 윈도우 (거래일, 0 ⇒ 전략 기본값)")
	picksCmd.PersistentFlags().BoolVar(&picksJSON, "json", false, "JSON 출력")

	picksRunCmd.Flags().StringVar(&picksBucket, "bucket", "all", "가격대 (all|lt100|100_300|300_600|600_1000|gt1000)")
	picksRunCmd.Flags().IntVar(&picksTopK, "top-k", 0, "2단계 재채점 대상 수 (10~100, 0 ⇒ 전략 기본값)")
	picksRunCmd.Flags().IntVar(&picksPerBucket, "per-bucket", 0, "가격대별 추천 수 (0 ⇒ 생략)")
	picksRunCmd.Flags().BoolVar(&picksSave, "save", false, "OUTPUT_DIR/today.json 저장 및 실행 기록")
}

// signalContext cancels on Ctrl+C / SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPicks(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, appOptions{withRecorder: picksSave})
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.orchestrator.Run(ctx, brain.RunConfig{
		WindowDays: picksWindow,
		TopK:       picksTopK,
		Bucket:     picksBucket,
		PerBucket:  picksPerBucket,
	})
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	if picksSave {
		path, err := jobs.WriteResult(a.cfg.OutputDir, res.Result)
		if err != nil {
			return err
		}
		if a.recorder != nil {
			if err := a.recorder.SaveRun(ctx, res.Result); err != nil {
				return fmt.Errorf("record run: %w", err)
			}
		}
		a.log.WithField("path", path).Info("Result saved")
	}

	if picksJSON {
		return PrintJSON(res.Result)
	}
	PrintRunResult(res)
	return nil
}

func runPicksStock(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	rec, err := a.orchestrator.ScoreSymbol(ctx, args[0], picksWindow)
	if err != nil {
		return fmt.Errorf("score %s: %w", args[0], err)
	}

	if picksJSON {
		return PrintJSON(rec)
	}
	PrintScoreRecord(rec)
	return nil
}

func runPicksPool(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	diag, err := a.orchestrator.Universe().Inspect(ctx)
	if err != nil {
		return err
	}

	if picksJSON {
		return PrintJSON(diag)
	}
	PrintPoolDiagnostics(diag)
	return nil
}
