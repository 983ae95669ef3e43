// Package regime provides market regime classification from a price window.
// Detects: trending, ranging, high/low volatility, momentum breakout, mean reversion
package regime

import (
	"fmt"
	"math"

	"github.com/ianF57/robot/pkg/types"
	"github.com/ianF57/robot/pkg/utils"
	"go.uber.org/zap"
)

// RegimeDetector classifies the current regime of a window. It holds no state
// beyond its configuration and is safe for concurrent use.
type RegimeDetector struct {
	logger *zap.Logger
	config *RegimeConfig
}

// RegimeConfig configures the regime detector
type RegimeConfig struct {
	VolatilityWindow    int     // Returns used for realized volatility
	TrendWindow         int     // Bars spanned by the trend-strength change
	MeanReversionWindow int     // Returns used for the mean-reversion flag
	RSIWindow           int     // Returns used for the RSI oscillator
	PeriodsPerYear      float64 // Annualization factor
	HighVolThreshold    float64 // Volatility above this is high_volatility
	LowVolThreshold     float64 // Volatility below this is low_volatility
	MomentumADX         float64 // ADX proxy above this may be momentum_breakout
	MomentumRSI         float64 // RSI above this may be momentum_breakout
	TrendADX            float64 // ADX proxy above this is trending
	MeanReversionRatio  float64 // |mean| below ratio*std flags mean reversion
	ADXScale            float64 // Trend strength to ADX proxy multiplier
}

// DefaultRegimeConfig returns the standard thresholds
func DefaultRegimeConfig() *RegimeConfig {
	return &RegimeConfig{
		VolatilityWindow:    30,
		TrendWindow:         20,
		MeanReversionWindow: 20,
		RSIWindow:           14,
		PeriodsPerYear:      252,
		HighVolThreshold:    0.45,
		LowVolThreshold:     0.18,
		MomentumADX:         35,
		MomentumRSI:         58,
		TrendADX:            22,
		MeanReversionRatio:  0.15,
		ADXScale:            1500,
	}
}

// indicators is the market-state fingerprint the classification is built on
type indicators struct {
	volatility    float64
	trendStrength float64
	meanReverting bool
	rsi           float64
	adx           float64
}

// NewRegimeDetector creates a new regime detector
func NewRegimeDetector(logger *zap.Logger, config *RegimeConfig) *RegimeDetector {
	if config == nil {
		config = DefaultRegimeConfig()
	}
	return &RegimeDetector{
		logger: logger.Named("regime"),
		config: config,
	}
}

// MinBars returns the shortest window Detect accepts
func (rd *RegimeDetector) MinBars() int {
	longest := rd.config.VolatilityWindow
	for _, w := range []int{rd.config.TrendWindow, rd.config.MeanReversionWindow, rd.config.RSIWindow} {
		if w > longest {
			longest = w
		}
	}
	// one extra bar because every window is measured on returns
	return longest + 1
}

// Detect classifies the regime of the window
func (rd *RegimeDetector) Detect(bars []types.OHLCV) (types.RegimeResult, error) {
	if len(bars) < rd.MinBars() {
		return types.RegimeResult{}, fmt.Errorf("regime detection needs %d bars, got %d: %w",
			rd.MinBars(), len(bars), types.ErrInsufficientHistory)
	}

	ind := rd.computeIndicators(types.Closes(bars))
	regime := rd.classify(ind)
	confidence := utils.Clip(45+ind.adx*0.7+ind.volatility*40, 0, 100)

	result := types.RegimeResult{
		Regime:       regime,
		Confidence:   utils.Round(confidence, 2),
		Volatility:   utils.Round(ind.volatility, 4),
		ADXProxy:     utils.Round(ind.adx, 2),
		RSI:          utils.Round(ind.rsi, 2),
		Distribution: rd.distribution(ind),
	}

	rd.logger.Debug("regime detected",
		zap.String("regime", string(regime)),
		zap.Float64("confidence", result.Confidence),
		zap.Float64("volatility", result.Volatility),
		zap.Float64("adx_proxy", result.ADXProxy),
		zap.Float64("rsi", result.RSI),
	)

	return result, nil
}

// computeIndicators derives volatility, trend, mean-reversion and RSI values
func (rd *RegimeDetector) computeIndicators(closes []float64) indicators {
	returns := utils.PctChange(closes)

	vol := utils.StdDev(utils.Tail(returns, rd.config.VolatilityWindow)) * math.Sqrt(rd.config.PeriodsPerYear)

	last := closes[len(closes)-1]
	ref := closes[len(closes)-1-rd.config.TrendWindow]
	trend := math.Abs(last/ref - 1)

	mrWindow := utils.Tail(returns, rd.config.MeanReversionWindow)
	meanReverting := math.Abs(utils.Mean(mrWindow)) < utils.StdDev(mrWindow)*rd.config.MeanReversionRatio

	return indicators{
		volatility:    vol,
		trendStrength: trend,
		meanReverting: meanReverting,
		rsi:           rsi(utils.Tail(returns, rd.config.RSIWindow)),
		adx:           math.Min(100, trend*rd.config.ADXScale),
	}
}

// rsi maps average gains over average losses into the 0-100 oscillator
func rsi(returns []float64) float64 {
	gains, losses := 0.0, 0.0
	for _, r := range returns {
		if r > 0 {
			gains += r
		} else {
			losses -= r
		}
	}
	n := float64(len(returns))
	avgGain := gains / n
	avgLoss := losses/n + utils.Epsilon
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// classify applies the ordered regime rules; the first match wins
func (rd *RegimeDetector) classify(ind indicators) types.RegimeType {
	cfg := rd.config
	switch {
	case ind.volatility > cfg.HighVolThreshold:
		return types.RegimeHighVolatility
	case ind.volatility < cfg.LowVolThreshold:
		return types.RegimeLowVolatility
	case ind.adx > cfg.MomentumADX && ind.rsi > cfg.MomentumRSI:
		return types.RegimeMomentumBreakout
	case ind.meanReverting && ind.rsi >= 100-cfg.MomentumRSI && ind.rsi <= cfg.MomentumRSI:
		return types.RegimeMeanReversion
	case ind.adx > cfg.TrendADX:
		return types.RegimeTrending
	default:
		return types.RegimeRanging
	}
}

// distribution scores how regime-like the window is for every label.
// Scores are clipped to [0,1] independently and do not sum to 1.
func (rd *RegimeDetector) distribution(ind indicators) map[types.RegimeType]float64 {
	return map[types.RegimeType]float64{
		types.RegimeTrending:         utils.Clip(ind.adx/100, 0, 1),
		types.RegimeRanging:          utils.Clip(1-ind.adx/100, 0, 1),
		types.RegimeHighVolatility:   utils.Clip((ind.volatility-0.25)*2, 0, 1),
		types.RegimeLowVolatility:    utils.Clip((0.25-ind.volatility)*2, 0, 1),
		types.RegimeMomentumBreakout: utils.Clip((ind.rsi-50)/50, 0, 1),
		types.RegimeMeanReversion:    utils.Clip((55-math.Abs(ind.rsi-50))/55, 0, 1),
	}
}
