package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "TW Picks - 대만 상장주 스크리닝/추천 시스템",
	Long: `TW Picks Unified CLI

TWSE 상장주를 거래량 상위 풀에서 골라
기술 지표 + 법인 수급(T86) + FinMind 2차 신호로 채점하고
하루 최대 3종목을 추천합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant picks run
  go run ./cmd/quant picks run --bucket 100_300 --window 5
  go run ./cmd/quant picks stock 2330
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_PATH or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
}
