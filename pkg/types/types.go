// Package types provides shared type definitions for the research pipeline.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe represents a bar interval key
type Timeframe string

const (
	Timeframe1m Timeframe = "1m"
	Timeframe5m Timeframe = "5m"
	Timeframe1h Timeframe = "1h"
	Timeframe1d Timeframe = "1d"
	Timeframe1w Timeframe = "1w"
)

var timeframeIntervals = map[Timeframe]time.Duration{
	Timeframe1m: time.Minute,
	Timeframe5m: 5 * time.Minute,
	Timeframe1h: time.Hour,
	Timeframe1d: 24 * time.Hour,
	Timeframe1w: 7 * 24 * time.Hour,
}

// SupportedTimeframes returns the recognised timeframe keys, shortest first
func SupportedTimeframes() []Timeframe {
	return []Timeframe{Timeframe1m, Timeframe5m, Timeframe1h, Timeframe1d, Timeframe1w}
}

// ParseTimeframe validates a timeframe key
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if _, ok := timeframeIntervals[tf]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTimeframe, s)
	}
	return tf, nil
}

// Interval returns the bar spacing for the timeframe
func (tf Timeframe) Interval() (time.Duration, error) {
	d, ok := timeframeIntervals[tf]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedTimeframe, string(tf))
	}
	return d, nil
}

// Direction is the suggested side of a signal
type Direction string

const (
	DirectionLong    Direction = "Long"
	DirectionShort   Direction = "Short"
	DirectionNeutral Direction = "Neutral"
)

// Sign returns the position multiplier for the direction
func (d Direction) Sign() float64 {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	default:
		return 0
	}
}

// RegimeType labels the current market behaviour
type RegimeType string

const (
	RegimeTrending         RegimeType = "trending"
	RegimeRanging          RegimeType = "ranging"
	RegimeHighVolatility   RegimeType = "high_volatility"
	RegimeLowVolatility    RegimeType = "low_volatility"
	RegimeMomentumBreakout RegimeType = "momentum_breakout"
	RegimeMeanReversion    RegimeType = "mean_reversion"
)

// AllRegimes returns every regime label
func AllRegimes() []RegimeType {
	return []RegimeType{
		RegimeTrending,
		RegimeRanging,
		RegimeHighVolatility,
		RegimeLowVolatility,
		RegimeMomentumBreakout,
		RegimeMeanReversion,
	}
}

// StrategyType is the family tag of a signal definition
type StrategyType string

const (
	StrategyTrend         StrategyType = "trend"
	StrategyMeanReversion StrategyType = "mean_reversion"
	StrategyBreakout      StrategyType = "breakout"
)

// OHLCV represents a single price bar
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Closes extracts the close series of a window
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// SignalDefinition is a static strategy catalog entry
type SignalDefinition struct {
	Name         string             `json:"name"`
	Version      string             `json:"version"`
	StrategyType StrategyType       `json:"strategy_type"`
	Timeframes   []Timeframe        `json:"timeframes"`
	Regimes      []RegimeType       `json:"regimes"`
	Parameters   map[string]float64 `json:"parameters"`
}

// SupportsRegime reports whether the definition lists the regime as compatible
func (d SignalDefinition) SupportsRegime(r RegimeType) bool {
	for _, reg := range d.Regimes {
		if reg == r {
			return true
		}
	}
	return false
}

// Key identifies a definition by name and version
func (d SignalDefinition) Key() string {
	return d.Name + "@" + d.Version
}

// SignalCandidate is one strategy's evaluation against the latest bar
type SignalCandidate struct {
	Definition SignalDefinition `json:"definition"`
	Direction  Direction        `json:"direction"`
	Entry      decimal.Decimal  `json:"entry"`
	StopLoss   decimal.Decimal  `json:"stop_loss"`
	TakeProfit decimal.Decimal  `json:"take_profit"`
	RiskReward float64          `json:"risk_reward"`
}

// RegimeResult is the regime classification for a window
type RegimeResult struct {
	Regime       RegimeType             `json:"regime"`
	Confidence   float64                `json:"confidence"`
	Volatility   float64                `json:"volatility"`
	ADXProxy     float64                `json:"adx_proxy"`
	RSI          float64                `json:"rsi"`
	Distribution map[RegimeType]float64 `json:"distribution"`
}

// BacktestResult holds the statistics of one candidate over a window
type BacktestResult struct {
	CAGR                 float64                `json:"cagr"`
	Sharpe               float64                `json:"sharpe"`
	Sortino              float64                `json:"sortino"`
	Calmar               float64                `json:"calmar"`
	MaxDrawdown          float64                `json:"max_drawdown"`
	ProfitFactor         float64                `json:"profit_factor"`
	Expectancy           float64                `json:"expectancy"`
	RiskOfRuin           float64                `json:"risk_of_ruin"`
	WinRate              float64                `json:"win_rate"`
	OOSScore             float64                `json:"oos_score"`
	StabilityScore       float64                `json:"stability_score"`
	ParameterSensitivity float64                `json:"parameter_sensitivity"`
	EquityCurve          []float64              `json:"equity_curve"`
	DrawdownCurve        []float64              `json:"drawdown_curve"`
	RollingSharpe        []float64              `json:"rolling_sharpe"`
	RegimePerformance    map[RegimeType]float64 `json:"regime_performance"`
}

// Evaluation pairs a candidate with its backtest
type Evaluation struct {
	Candidate SignalCandidate
	Result    BacktestResult
}

// RankedSignal is a scored candidate
type RankedSignal struct {
	Name              string       `json:"name"`
	Version           string       `json:"version"`
	StrategyType      StrategyType `json:"strategy_type"`
	Direction         Direction    `json:"direction"`
	ConfidenceScore   float64      `json:"confidence_score"`
	ExpectedReturnMin float64      `json:"expected_return_min"`
	ExpectedReturnMax float64      `json:"expected_return_max"`
	ExpectedDrawdown  float64      `json:"expected_drawdown"`
	Justification     string       `json:"justification"`
}

// AssetDecision is the finalized recommendation for an asset
type AssetDecision struct {
	Asset              string     `json:"asset"`
	Regime             RegimeType `json:"regime"`
	RegimeConfidence   float64    `json:"regime_confidence"`
	SuggestedDirection Direction  `json:"suggested_direction"`
	Confidence         float64    `json:"confidence"`
	UncertaintyNote    string     `json:"uncertainty_note"`
}

// Metrics is the reported subset of a backtest
type Metrics struct {
	CAGR         float64 `json:"cagr"`
	Sharpe       float64 `json:"sharpe"`
	Sortino      float64 `json:"sortino"`
	Calmar       float64 `json:"calmar"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`
	RiskOfRuin   float64 `json:"risk_of_ruin"`
	WinRate      float64 `json:"win_rate"`
}

// Curves holds the truncated report curves
type Curves struct {
	Equity        []float64 `json:"equity"`
	Drawdown      []float64 `json:"drawdown"`
	RollingSharpe []float64 `json:"rolling_sharpe"`
}

// AssetAnalysis is the full per-asset evaluation
type AssetAnalysis struct {
	Asset                string                 `json:"asset"`
	Timeframe            Timeframe              `json:"timeframe"`
	Regime               RegimeResult           `json:"regime"`
	Signals              []RankedSignal         `json:"signals"`
	Decision             AssetDecision          `json:"decision"`
	Metrics              Metrics                `json:"metrics"`
	Curves               Curves                 `json:"curves"`
	PerformancePerRegime map[RegimeType]float64 `json:"performance_per_regime"`
}

// ReplayAnalysis is an analysis computed as of a cutoff timestamp
type ReplayAnalysis struct {
	AssetAnalysis
	ReplayTimestamp time.Time `json:"replay_timestamp"`
	ReplayNote      string    `json:"replay_note"`
}

// SignalLogEntry is one row of the append-only signal log
type SignalLogEntry struct {
	ID                int64     `json:"id" db:"id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	Asset             string    `json:"asset" db:"asset"`
	Timeframe         string    `json:"timeframe" db:"timeframe"`
	SignalName        string    `json:"signal_name" db:"signal_name"`
	Direction         string    `json:"direction" db:"direction"`
	Confidence        float64   `json:"confidence" db:"confidence"`
	Justification     string    `json:"justification" db:"justification"`
	ExpectedReturnMin float64   `json:"expected_return_min" db:"expected_return_min"`
	ExpectedReturnMax float64   `json:"expected_return_max" db:"expected_return_max"`
	ExpectedDrawdown  float64   `json:"expected_drawdown" db:"expected_drawdown"`
}

// Dashboard is the multi-asset overview
type Dashboard struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Assets      []AssetAnalysis  `json:"assets"`
	Logs        []SignalLogEntry `json:"logs"`
}
