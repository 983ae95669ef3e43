package strategy

import (
	"github.com/ianF57/robot/pkg/types"
	"github.com/ianF57/robot/pkg/utils"
)

// EMATrendStrategy follows the sign of the fast/slow EMA spread.
type EMATrendStrategy struct {
	fast, slow int
	levels     levels
}

// NewEMATrendStrategy creates the 20/50 EMA trend follower.
func NewEMATrendStrategy() *EMATrendStrategy {
	return &EMATrendStrategy{
		fast: 20,
		slow: 50,
		levels: levels{
			stopLong: 0.985, stopOther: 1.015,
			targetLong: 1.03, targetOther: 0.97,
			riskReward: 2.0,
		},
	}
}

// Definition returns the catalog entry.
func (s *EMATrendStrategy) Definition() types.SignalDefinition {
	return types.SignalDefinition{
		Name:         "EMA Trend Following",
		Version:      "1.0.0",
		StrategyType: types.StrategyTrend,
		Timeframes:   []types.Timeframe{types.Timeframe5m, types.Timeframe1h, types.Timeframe1d},
		Regimes:      []types.RegimeType{types.RegimeTrending, types.RegimeMomentumBreakout},
		Parameters:   map[string]float64{"fast": float64(s.fast), "slow": float64(s.slow)},
	}
}

// MinBars returns the slow span.
func (s *EMATrendStrategy) MinBars() int { return s.slow }

// Evaluate goes Long when the fast EMA is above the slow EMA, Short otherwise.
func (s *EMATrendStrategy) Evaluate(bars []types.OHLCV) (types.SignalCandidate, error) {
	if err := checkWindow(s, bars); err != nil {
		return types.SignalCandidate{}, err
	}

	closes := types.Closes(bars)
	fast := utils.EWMA(closes, s.fast)
	slow := utils.EWMA(closes, s.slow)

	dir := types.DirectionShort
	if fast[len(fast)-1] > slow[len(slow)-1] {
		dir = types.DirectionLong
	}
	return s.levels.candidate(s.Definition(), dir, closes[len(closes)-1]), nil
}

// BollingerReversionStrategy fades closes outside the volatility band.
type BollingerReversionStrategy struct {
	window int
	width  float64
	levels levels
}

// NewBollingerReversionStrategy creates the SMA20 +/- 2 std band strategy.
func NewBollingerReversionStrategy() *BollingerReversionStrategy {
	return &BollingerReversionStrategy{
		window: 20,
		width:  2,
		levels: levels{
			stopLong: 0.99, stopOther: 1.01,
			targetLong: 1.015, targetOther: 0.985,
			riskReward: 1.5,
		},
	}
}

// Definition returns the catalog entry.
func (s *BollingerReversionStrategy) Definition() types.SignalDefinition {
	return types.SignalDefinition{
		Name:         "Bollinger Mean Reversion",
		Version:      "1.0.0",
		StrategyType: types.StrategyMeanReversion,
		Timeframes:   []types.Timeframe{types.Timeframe1m, types.Timeframe5m, types.Timeframe1h},
		Regimes:      []types.RegimeType{types.RegimeRanging, types.RegimeMeanReversion, types.RegimeLowVolatility},
		Parameters:   map[string]float64{"window": float64(s.window), "std": s.width},
	}
}

// MinBars returns the band window.
func (s *BollingerReversionStrategy) MinBars() int { return s.window }

// Evaluate is Short above the upper band, Long below the lower band, Neutral inside.
func (s *BollingerReversionStrategy) Evaluate(bars []types.OHLCV) (types.SignalCandidate, error) {
	if err := checkWindow(s, bars); err != nil {
		return types.SignalCandidate{}, err
	}

	closes := types.Closes(bars)
	latest := closes[len(closes)-1]
	window := utils.Tail(closes, s.window)
	mid := utils.Mean(window)
	sd := utils.StdDev(window)

	dir := types.DirectionNeutral
	switch {
	case latest > mid+s.width*sd:
		dir = types.DirectionShort
	case latest < mid-s.width*sd:
		dir = types.DirectionLong
	}
	return s.levels.candidate(s.Definition(), dir, latest), nil
}

// DonchianBreakoutStrategy trades closes near the edges of the high/low channel.
type DonchianBreakoutStrategy struct {
	window   int
	highEdge float64
	lowEdge  float64
	levels   levels
}

// NewDonchianBreakoutStrategy creates the 30-bar channel breakout strategy.
func NewDonchianBreakoutStrategy() *DonchianBreakoutStrategy {
	return &DonchianBreakoutStrategy{
		window:   30,
		highEdge: 0.995,
		lowEdge:  1.005,
		levels: levels{
			stopLong: 0.98, stopOther: 1.02,
			targetLong: 1.04, targetOther: 0.96,
			riskReward: 2.2,
		},
	}
}

// Definition returns the catalog entry.
func (s *DonchianBreakoutStrategy) Definition() types.SignalDefinition {
	return types.SignalDefinition{
		Name:         "Donchian Breakout",
		Version:      "1.1.0",
		StrategyType: types.StrategyBreakout,
		Timeframes:   []types.Timeframe{types.Timeframe1h, types.Timeframe1d, types.Timeframe1w},
		Regimes:      []types.RegimeType{types.RegimeHighVolatility, types.RegimeMomentumBreakout},
		Parameters:   map[string]float64{"window": float64(s.window)},
	}
}

// MinBars returns the channel window.
func (s *DonchianBreakoutStrategy) MinBars() int { return s.window }

// Evaluate is Long within 0.5% of the channel high, else Short within 0.5%
// of the channel low, else Neutral. The channel includes the latest bar.
func (s *DonchianBreakoutStrategy) Evaluate(bars []types.OHLCV) (types.SignalCandidate, error) {
	if err := checkWindow(s, bars); err != nil {
		return types.SignalCandidate{}, err
	}

	recent := bars[len(bars)-s.window:]
	highs := make([]float64, len(recent))
	lows := make([]float64, len(recent))
	for i, b := range recent {
		highs[i] = b.High
		lows[i] = b.Low
	}
	high, low := utils.Max(highs), utils.Min(lows)
	latest := bars[len(bars)-1].Close

	dir := types.DirectionNeutral
	switch {
	case latest >= high*s.highEdge:
		dir = types.DirectionLong
	case latest <= low*s.lowEdge:
		dir = types.DirectionShort
	}
	return s.levels.candidate(s.Definition(), dir, latest), nil
}
