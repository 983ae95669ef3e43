package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ianF57/robot/internal/api"
	"github.com/ianF57/robot/pkg/types"
	"github.com/spf13/cobra"
)

var (
	analyzeAsset     string
	analyzeTimeframe string
	replayAt         string
)

// analyzeCmd evaluates one asset and prints the analysis
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Evaluate one asset and print the analysis as JSON",
	Long: `Evaluate one asset on the latest window and print the regime, ranked
signals, decision summary and backtest report.

Examples:
  research analyze --asset BTCUSDT
  research analyze --asset EURUSD --timeframe 1d`,
	RunE: runAnalyze,
}

// replayCmd evaluates one asset as of a past timestamp
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Evaluate one asset using only data up to a timestamp",
	Long: `Replay an evaluation as of a past timestamp. Timestamps without a zone are
read as UTC.

Examples:
  research replay --asset BTCUSDT --at 2024-01-15T12:00:00Z
  research replay --asset ES1! --timeframe 1d --at 2024-01-15`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(analyzeCmd, replayCmd)

	for _, c := range []*cobra.Command{analyzeCmd, replayCmd} {
		c.Flags().StringVar(&analyzeAsset, "asset", "", "Asset symbol, e.g. BTCUSDT")
		c.Flags().StringVar(&analyzeTimeframe, "timeframe", "", "Timeframe (1m, 5m, 1h, 1d, 1w); defaults to the configured timeframe")
		c.MarkFlagRequired("asset")
	}
	replayCmd.Flags().StringVar(&replayAt, "at", "", "Cutoff timestamp (ISO 8601)")
	replayCmd.MarkFlagRequired("at")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	analysis, err := a.orch.Evaluate(ctx, analyzeAsset, a.timeframe())
	if err != nil {
		return fmt.Errorf("analyze %s: %w", analyzeAsset, err)
	}
	return printJSON(analysis)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	at, err := api.ParseTimestamp(replayAt)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	replay, err := a.orch.Replay(ctx, analyzeAsset, a.timeframe(), at)
	if err != nil {
		return fmt.Errorf("replay %s at %s: %w", analyzeAsset, at.Format("2006-01-02T15:04:05Z"), err)
	}
	return printJSON(replay)
}

// timeframe returns the --timeframe flag or the configured default
func (a *app) timeframe() types.Timeframe {
	if analyzeTimeframe != "" {
		return types.Timeframe(analyzeTimeframe)
	}
	return a.cfg.Research.DefaultTimeframe
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
