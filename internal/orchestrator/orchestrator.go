// Package orchestrator sequences regime detection, signal generation,
// backtesting, ranking and advice into per-asset analyses.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ianF57/robot/internal/advisor"
	"github.com/ianF57/robot/internal/backtester"
	"github.com/ianF57/robot/internal/data"
	"github.com/ianF57/robot/internal/logstore"
	"github.com/ianF57/robot/internal/ranker"
	"github.com/ianF57/robot/internal/regime"
	"github.com/ianF57/robot/internal/signals"
	"github.com/ianF57/robot/internal/workers"
	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

// ReplayNote is the disclosure attached to every replay analysis
const ReplayNote = "Historical replay is computed using only data available up to the selected timestamp for transparent, auditable decision support."

// Run kinds reported to the recorder
const (
	KindEvaluate  = "evaluate"
	KindDashboard = "dashboard"
	KindReplay    = "replay"
)

// Recorder receives evaluation telemetry
type Recorder interface {
	RecordEvaluation(asset, timeframe string, err error)
	ObserveDuration(kind string, elapsed time.Duration)
	SetSignalConfidence(asset, signal string, confidence float64)
	SetRegimeConfidence(asset string, confidence float64)
}

type noopRecorder struct{}

func (noopRecorder) RecordEvaluation(string, string, error) {}
func (noopRecorder) ObserveDuration(string, time.Duration) {}
func (noopRecorder) SetSignalConfidence(string, string, float64) {}
func (noopRecorder) SetRegimeConfidence(string, float64) {}

// Components are the collaborators of the orchestrator. Recorder is optional.
type Components struct {
	Data      data.Provider
	Detector  *regime.RegimeDetector
	Generator *signals.SignalGenerator
	Engine    *backtester.Engine
	Ranker    *ranker.SignalRanker
	Logs      logstore.Store
	Appender  *logstore.Appender
	Pool      *workers.Pool
	Recorder  Recorder
}

// ResearchOrchestrator produces asset analyses, dashboards and replays
type ResearchOrchestrator struct {
	logger *zap.Logger
	config *types.ResearchConfig

	data      data.Provider
	detector  *regime.RegimeDetector
	generator *signals.SignalGenerator
	engine    *backtester.Engine
	ranker    *ranker.SignalRanker
	logs      logstore.Store
	appender  *logstore.Appender
	pool      *workers.Pool
	recorder  Recorder

	now func() time.Time
}

// DefaultResearchConfig returns the platform defaults
func DefaultResearchConfig() *types.ResearchConfig {
	return &types.ResearchConfig{
		AppName:            "Market Signal Intelligence & Research Platform",
		DefaultAssets:      []string{"BTCUSDT", "EURUSD", "ES1!"},
		DefaultTimeframe:   types.Timeframe1h,
		HistoryLimit:       700,
		ReplayFetchLimit:   1200,
		ReplayWindow:       700,
		DashboardLogLimit:  15,
		DashboardTopN:      3,
		EvaluationDeadline: 60 * time.Second,
	}
}

// NewResearchOrchestrator wires the pipeline
func NewResearchOrchestrator(logger *zap.Logger, config *types.ResearchConfig, c Components) (*ResearchOrchestrator, error) {
	if config == nil {
		config = DefaultResearchConfig()
	}
	switch {
	case c.Data == nil:
		return nil, errors.New("orchestrator requires a market data source")
	case c.Detector == nil || c.Generator == nil || c.Engine == nil || c.Ranker == nil:
		return nil, errors.New("orchestrator requires detector, generator, engine and ranker")
	case c.Logs == nil || c.Appender == nil:
		return nil, errors.New("orchestrator requires a log store and appender")
	case c.Pool == nil:
		return nil, errors.New("orchestrator requires a worker pool")
	}

	recorder := c.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &ResearchOrchestrator{
		logger:    logger.Named("orchestrator"),
		config:    config,
		data:      c.Data,
		detector:  c.Detector,
		generator: c.Generator,
		engine:    c.Engine,
		ranker:    c.Ranker,
		logs:      c.Logs,
		appender:  c.Appender,
		pool:      c.Pool,
		recorder:  recorder,
		now:       time.Now,
	}, nil
}

// WithClock overrides the time source used for generated_at
func (o *ResearchOrchestrator) WithClock(now func() time.Time) *ResearchOrchestrator {
	o.now = now
	return o
}

// Config returns the orchestrator settings
func (o *ResearchOrchestrator) Config() *types.ResearchConfig {
	return o.config
}

// MinBars is the shortest window every stage can evaluate
func (o *ResearchOrchestrator) MinBars() int {
	n := o.detector.MinBars()
	if g := o.generator.MinBars(); g > n {
		n = g
	}
	if e := o.engine.MinBars(); e > n {
		n = e
	}
	return n
}

// Evaluate analyses the latest window of an asset
func (o *ResearchOrchestrator) Evaluate(ctx context.Context, asset string, timeframe types.Timeframe) (*types.AssetAnalysis, error) {
	start := time.Now()
	defer func() { o.recorder.ObserveDuration(KindEvaluate, time.Since(start)) }()

	var analysis *types.AssetAnalysis
	err := o.pool.SubmitWait(ctx, workers.TaskFunc(func(taskCtx context.Context) error {
		var err error
		analysis, err = o.evaluate(taskCtx, asset, timeframe)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

func (o *ResearchOrchestrator) evaluate(ctx context.Context, asset string, timeframe types.Timeframe) (*types.AssetAnalysis, error) {
	bars, err := o.data.GetHistory(ctx, asset, timeframe, o.config.HistoryLimit)
	if err != nil {
		o.recorder.RecordEvaluation(asset, string(timeframe), err)
		return nil, err
	}

	analysis, err := o.evaluateWindow(ctx, asset, timeframe, bars)
	o.recorder.RecordEvaluation(asset, string(timeframe), err)
	return analysis, err
}

// Dashboard evaluates every configured asset in parallel. Results keep the
// configured asset order.
func (o *ResearchOrchestrator) Dashboard(ctx context.Context, timeframe types.Timeframe) (*types.Dashboard, error) {
	start := time.Now()
	defer func() { o.recorder.ObserveDuration(KindDashboard, time.Since(start)) }()

	if timeframe == "" {
		timeframe = o.config.DefaultTimeframe
	}
	if _, err := timeframe.Interval(); err != nil {
		return nil, err
	}
	if o.config.EvaluationDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.EvaluationDeadline)
		defer cancel()
	}

	assets := o.config.DefaultAssets
	results := make([]types.AssetAnalysis, len(assets))
	tasks := make([]workers.TaskFunc, len(assets))
	for i, asset := range assets {
		i, asset := i, asset
		tasks[i] = func(taskCtx context.Context) error {
			analysis, err := o.evaluate(taskCtx, asset, timeframe)
			if err != nil {
				return err
			}
			results[i] = *analysis
			return nil
		}
	}

	for i, err := range o.pool.RunAll(ctx, tasks) {
		if err != nil {
			return nil, fmt.Errorf("dashboard evaluation of %s failed: %w", assets[i], err)
		}
	}

	if err := o.appender.Flush(ctx); err != nil {
		o.logger.Warn("signal log flush did not complete", zap.Error(err))
	}
	logs, err := o.logs.Latest(ctx, o.config.DashboardLogLimit)
	if err != nil {
		o.logger.Warn("failed to read signal logs", zap.Error(err))
		logs = []types.SignalLogEntry{}
	}

	return &types.Dashboard{
		GeneratedAt: o.now().UTC(),
		Assets:      results,
		Logs:        logs,
	}, nil
}

// Replay analyses the asset using only bars at or before the cutoff
func (o *ResearchOrchestrator) Replay(ctx context.Context, asset string, timeframe types.Timeframe, at time.Time) (*types.ReplayAnalysis, error) {
	start := time.Now()
	defer func() { o.recorder.ObserveDuration(KindReplay, time.Since(start)) }()

	var analysis *types.AssetAnalysis
	err := o.pool.SubmitWait(ctx, workers.TaskFunc(func(taskCtx context.Context) error {
		bars, err := o.data.GetHistory(taskCtx, asset, timeframe, o.config.ReplayFetchLimit)
		if err != nil {
			o.recorder.RecordEvaluation(asset, string(timeframe), err)
			return err
		}

		window := ReplayWindow(bars, at, o.config.ReplayWindow)
		analysis, err = o.evaluateWindow(taskCtx, asset, timeframe, window)
		o.recorder.RecordEvaluation(asset, string(timeframe), err)
		return err
	}))
	if err != nil {
		return nil, err
	}

	return &types.ReplayAnalysis{
		AssetAnalysis:   *analysis,
		ReplayTimestamp: at.UTC(),
		ReplayNote:      ReplayNote,
	}, nil
}

// Logs returns the latest signal log entries, newest first
func (o *ResearchOrchestrator) Logs(ctx context.Context, limit int) ([]types.SignalLogEntry, error) {
	if limit <= 0 {
		limit = o.config.DashboardLogLimit
	}
	return o.logs.Latest(ctx, limit)
}

// evaluateWindow runs the pipeline over one window
func (o *ResearchOrchestrator) evaluateWindow(ctx context.Context, asset string, timeframe types.Timeframe, bars []types.OHLCV) (*types.AssetAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if need := o.MinBars(); len(bars) < need {
		return nil, fmt.Errorf("%w: %s %s has %d bars, need %d",
			types.ErrInsufficientHistory, asset, timeframe, len(bars), need)
	}

	runLogger := o.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("asset", asset),
		zap.String("timeframe", string(timeframe)),
	)

	regimeResult, err := o.detector.Detect(bars)
	if err != nil {
		return nil, fmt.Errorf("regime detection failed: %w", err)
	}

	candidates, err := o.generator.Generate(bars)
	if err != nil {
		return nil, fmt.Errorf("signal generation failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, types.ErrNoCandidates
	}

	evaluations := make([]types.Evaluation, 0, len(candidates))
	for _, candidate := range candidates {
		result, err := o.engine.Run(bars, candidate)
		if err != nil {
			return nil, fmt.Errorf("backtest of %s failed: %w", candidate.Definition.Key(), err)
		}
		evaluations = append(evaluations, types.Evaluation{Candidate: candidate, Result: result})
	}

	ranked := o.ranker.Rank(regimeResult.Regime, evaluations)
	top := ranked[0]
	topResult, ok := findResult(evaluations, top)
	if !ok {
		return nil, fmt.Errorf("top signal %s@%s has no backtest", top.Name, top.Version)
	}

	o.appender.Append(types.SignalLogEntry{
		Asset:             asset,
		Timeframe:         string(timeframe),
		SignalName:        top.Name,
		Direction:         string(top.Direction),
		Confidence:        top.ConfidenceScore,
		Justification:     top.Justification,
		ExpectedReturnMin: top.ExpectedReturnMin,
		ExpectedReturnMax: top.ExpectedReturnMax,
		ExpectedDrawdown:  top.ExpectedDrawdown,
	})

	o.recorder.SetRegimeConfidence(asset, regimeResult.Confidence)
	o.recorder.SetSignalConfidence(asset, top.Name, top.ConfidenceScore)

	runLogger.Debug("evaluated window",
		zap.Int("bars", len(bars)),
		zap.String("regime", string(regimeResult.Regime)),
		zap.String("top_signal", top.Name),
		zap.Float64("confidence", top.ConfidenceScore),
	)

	topN := o.config.DashboardTopN
	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}

	return &types.AssetAnalysis{
		Asset:     asset,
		Timeframe: timeframe,
		Regime:    regimeResult,
		Signals:   ranked[:topN],
		Decision:  advisor.BuildDecision(asset, regimeResult, top),
		Metrics: types.Metrics{
			CAGR:         topResult.CAGR,
			Sharpe:       topResult.Sharpe,
			Sortino:      topResult.Sortino,
			Calmar:       topResult.Calmar,
			MaxDrawdown:  topResult.MaxDrawdown,
			ProfitFactor: topResult.ProfitFactor,
			Expectancy:   topResult.Expectancy,
			RiskOfRuin:   topResult.RiskOfRuin,
			WinRate:      topResult.WinRate,
		},
		Curves: types.Curves{
			Equity:        topResult.EquityCurve,
			Drawdown:      topResult.DrawdownCurve,
			RollingSharpe: topResult.RollingSharpe,
		},
		PerformancePerRegime: topResult.RegimePerformance,
	}, nil
}

// findResult locates the backtest of the ranked signal by name and version
func findResult(evaluations []types.Evaluation, signal types.RankedSignal) (types.BacktestResult, bool) {
	for _, ev := range evaluations {
		def := ev.Candidate.Definition
		if def.Name == signal.Name && def.Version == signal.Version {
			return ev.Result, true
		}
	}
	return types.BacktestResult{}, false
}
