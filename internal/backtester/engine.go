// Package backtester provides the vectorised backtest and robustness engine.
package backtester

import (
	"fmt"
	"math/rand"

	"github.com/ianF57/robot/pkg/types"
	"github.com/ianF57/robot/pkg/utils"
	"go.uber.org/zap"
)

// Engine simulates a candidate's return stream over a window and derives
// performance and robustness statistics. Engine holds no per-run state and
// is safe for concurrent use.
type Engine struct {
	logger    *zap.Logger
	config    *types.BacktestConfig
	friction  *FrictionModel
	splitter  *WalkForwardSplit
	metrics   *MetricsCalculator
	bootstrap *BootstrapSampler
}

// DefaultBacktestConfig returns the standard friction and robustness settings
func DefaultBacktestConfig() *types.BacktestConfig {
	return &types.BacktestConfig{
		TransactionCostBps: 2.5,
		SlippageBps:        1.5,
		InSampleRatio:      0.7,
		PeriodsPerYear:     252,
		RollingWindow:      60,
		CurvePoints:        250,
		BootstrapSamples:   100,
	}
}

// NewEngine creates a new backtesting engine
func NewEngine(logger *zap.Logger, config *types.BacktestConfig) *Engine {
	if config == nil {
		config = DefaultBacktestConfig()
	}
	return &Engine{
		logger:    logger.Named("backtester"),
		config:    config,
		friction:  NewFrictionModel(config.TransactionCostBps, config.SlippageBps),
		splitter:  NewWalkForwardSplit(config.InSampleRatio),
		metrics:   NewMetricsCalculator(config.PeriodsPerYear, config.RollingWindow),
		bootstrap: NewBootstrapSampler(config.BootstrapSamples),
	}
}

// MinBars returns the shortest window Run accepts
func (e *Engine) MinBars() int {
	return e.config.RollingWindow
}

// Run backtests the candidate over the window. The bootstrap generator is
// seeded from the candidate and window so repeated runs are identical.
func (e *Engine) Run(bars []types.OHLCV, candidate types.SignalCandidate) (types.BacktestResult, error) {
	seed := DeriveSeed(candidate.Definition, bars, e.config.Seed)
	return e.RunWithRand(bars, candidate, rand.New(rand.NewSource(seed)))
}

// RunWithRand backtests the candidate using the given bootstrap generator
func (e *Engine) RunWithRand(bars []types.OHLCV, candidate types.SignalCandidate, rng *rand.Rand) (types.BacktestResult, error) {
	if len(bars) < e.MinBars() {
		return types.BacktestResult{}, fmt.Errorf("backtest needs %d bars, got %d: %w",
			e.MinBars(), len(bars), types.ErrInsufficientHistory)
	}

	returns := e.strategyReturns(bars, candidate.Direction)
	inSample, outOfSample := e.splitter.Split(returns)

	equity := e.metrics.EquityCurve(returns)
	drawdown := e.metrics.DrawdownCurve(equity)
	rolling := e.metrics.RollingSharpe(returns)
	perf := e.metrics.Calculate(returns, equity, drawdown)

	oosMean := utils.Mean(outOfSample)
	oosStd := utils.StdDev(outOfSample)
	inStd := utils.StdDev(inSample)
	fullStd := utils.StdDev(returns)

	result := types.BacktestResult{
		CAGR:                 perf.cagr,
		Sharpe:               perf.sharpe,
		Sortino:              perf.sortino,
		Calmar:               perf.calmar,
		MaxDrawdown:          perf.maxDrawdown,
		ProfitFactor:         perf.profitFactor,
		Expectancy:           perf.expectancy,
		RiskOfRuin:           perf.riskOfRuin,
		WinRate:              perf.winRate,
		OOSScore:             utils.Clip(oosMean/(oosStd+utils.Epsilon)*40+50, 0, 100),
		StabilityScore:       utils.Clip((oosMean-inStd)*5000+50, 0, 100),
		ParameterSensitivity: e.bootstrap.Sensitivity(returns, rng),
		EquityCurve:          tailCopy(equity, e.config.CurvePoints),
		DrawdownCurve:        tailCopy(drawdown, e.config.CurvePoints),
		RollingSharpe:        tailCopy(rolling, e.config.CurvePoints),
		RegimePerformance: map[types.RegimeType]float64{
			types.RegimeTrending:       utils.Mean(inSample) * 100,
			types.RegimeRanging:        oosMean * 100,
			types.RegimeHighVolatility: fullStd * 100,
			types.RegimeLowVolatility:  (1 - fullStd) * 100,
		},
	}

	e.logger.Debug("backtest complete",
		zap.String("signal", candidate.Definition.Name),
		zap.String("direction", string(candidate.Direction)),
		zap.Int("bars", len(bars)),
		zap.Float64("sharpe", result.Sharpe),
		zap.Float64("max_drawdown", result.MaxDrawdown),
		zap.Float64("sensitivity", result.ParameterSensitivity),
	)

	return result, nil
}

// strategyReturns turns closes into signed, friction-adjusted returns.
// The first period has no prior close and contributes a zero return.
func (e *Engine) strategyReturns(bars []types.OHLCV, dir types.Direction) []float64 {
	sign := dir.Sign()
	raw := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		raw[i] = (bars[i].Close/bars[i-1].Close - 1) * sign
	}
	return e.friction.Apply(raw)
}

// tailCopy returns a copy of the last n values
func tailCopy(values []float64, n int) []float64 {
	tail := utils.Tail(values, n)
	out := make([]float64, len(tail))
	copy(out, tail)
	return out
}
