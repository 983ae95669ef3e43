// Package backtester provides performance metrics calculation.
package backtester

import (
	"math"

	"github.com/ianF57/robot/pkg/utils"
)

// performance holds the headline statistics of a return series
type performance struct {
	cagr         float64
	sharpe       float64
	sortino      float64
	calmar       float64
	maxDrawdown  float64
	profitFactor float64
	winRate      float64
	expectancy   float64
	riskOfRuin   float64
}

// MetricsCalculator calculates performance metrics from per-period returns
type MetricsCalculator struct {
	periodsPerYear float64
	rollingWindow  int
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(periodsPerYear, rollingWindow int) *MetricsCalculator {
	return &MetricsCalculator{
		periodsPerYear: float64(periodsPerYear),
		rollingWindow:  rollingWindow,
	}
}

// EquityCurve compounds returns starting from 1
func (mc *MetricsCalculator) EquityCurve(returns []float64) []float64 {
	equity := make([]float64, len(returns))
	value := 1.0
	for i, r := range returns {
		value *= 1 + r
		equity[i] = value
	}
	return equity
}

// DrawdownCurve returns (equity - running peak) / running peak
func (mc *MetricsCalculator) DrawdownCurve(equity []float64) []float64 {
	dd := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, e := range equity {
		if e > peak {
			peak = e
		}
		dd[i] = (e - peak) / peak
	}
	return dd
}

// RollingSharpe returns the annualized mean/std ratio over a trailing window,
// 0 until the window is full
func (mc *MetricsCalculator) RollingSharpe(returns []float64) []float64 {
	out := make([]float64, len(returns))
	w := mc.rollingWindow
	ann := math.Sqrt(mc.periodsPerYear)
	for i := w - 1; i < len(returns); i++ {
		window := returns[i-w+1 : i+1]
		out[i] = utils.Mean(window) / (utils.StdDev(window) + utils.Epsilon) * ann
	}
	return out
}

// Calculate computes the headline statistics
func (mc *MetricsCalculator) Calculate(returns, equity, drawdown []float64) performance {
	n := len(returns)
	ann := math.Sqrt(mc.periodsPerYear)

	mean := utils.Mean(returns)
	std := utils.StdDev(returns) + utils.Epsilon
	downside := mc.downsideDeviation(returns) + utils.Epsilon

	final := 1.0
	if len(equity) > 0 {
		final = equity[len(equity)-1]
	}
	cagr := math.Pow(final, mc.periodsPerYear/math.Max(float64(n), 1)) - 1
	maxDD := math.Abs(utils.Min(append([]float64{0}, drawdown...)))

	var wins, losses float64
	winCount := 0
	for _, r := range returns {
		switch {
		case r > 0:
			wins += r
			winCount++
		case r < 0:
			losses += r
		}
	}
	winRate := float64(winCount) / math.Max(float64(n), 1)

	return performance{
		cagr:         cagr,
		sharpe:       mean / std * ann,
		sortino:      mean / downside * ann,
		calmar:       cagr / (maxDD + utils.Epsilon),
		maxDrawdown:  maxDD,
		profitFactor: math.Abs(wins / (losses + utils.Epsilon)),
		winRate:      winRate,
		expectancy:   mean,
		riskOfRuin:   utils.Clip(math.Pow(1-winRate, 2)*(1+maxDD), 0, 1),
	}
}

// downsideDeviation is the sample standard deviation of negative returns only
func (mc *MetricsCalculator) downsideDeviation(returns []float64) float64 {
	negative := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	return utils.StdDev(negative)
}
