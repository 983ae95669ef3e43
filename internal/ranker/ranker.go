// Package ranker scores backtested candidates and orders them by confidence.
package ranker

import (
	"fmt"
	"math"
	"sort"

	"github.com/ianF57/robot/pkg/types"
	"github.com/ianF57/robot/pkg/utils"
	"go.uber.org/zap"
)

// RankerConfig holds the score weights
type RankerConfig struct {
	OOSWeight          float64
	StabilityWeight    float64
	SharpeWeight       float64
	SharpeOffset       float64
	RegimeBonus        float64
	RegimePenalty      float64
	DrawdownPenalty    float64
	SensitivityAllowed float64
	ReturnScale        float64
	ReturnBandLow      float64
	ReturnBandHigh     float64
}

// DefaultRankerConfig returns the standard weights
func DefaultRankerConfig() *RankerConfig {
	return &RankerConfig{
		OOSWeight:          0.35,
		StabilityWeight:    0.2,
		SharpeWeight:       12,
		SharpeOffset:       2,
		RegimeBonus:        12,
		RegimePenalty:      -18,
		DrawdownPenalty:    90,
		SensitivityAllowed: 18,
		ReturnScale:        200,
		ReturnBandLow:      0.75,
		ReturnBandHigh:     1.25,
	}
}

// SignalRanker fuses backtest quality, regime fit and overfitting risk into
// a single confidence score
type SignalRanker struct {
	logger *zap.Logger
	config *RankerConfig
}

// NewSignalRanker creates a new ranker
func NewSignalRanker(logger *zap.Logger, config *RankerConfig) *SignalRanker {
	if config == nil {
		config = DefaultRankerConfig()
	}
	return &SignalRanker{
		logger: logger.Named("ranker"),
		config: config,
	}
}

// Rank scores every evaluation and returns them ordered by descending
// confidence. Equal scores keep their input order.
func (r *SignalRanker) Rank(regime types.RegimeType, evaluations []types.Evaluation) []types.RankedSignal {
	ranked := make([]types.RankedSignal, 0, len(evaluations))
	for _, ev := range evaluations {
		ranked = append(ranked, r.score(regime, ev))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ConfidenceScore > ranked[j].ConfidenceScore
	})

	if len(ranked) > 0 {
		r.logger.Debug("signals ranked",
			zap.String("regime", string(regime)),
			zap.String("top", ranked[0].Name),
			zap.Float64("top_score", ranked[0].ConfidenceScore),
		)
	}
	return ranked
}

// score computes one candidate's ranked view
func (r *SignalRanker) score(regime types.RegimeType, ev types.Evaluation) types.RankedSignal {
	cfg := r.config
	def := ev.Candidate.Definition
	res := ev.Result

	aligned := def.SupportsRegime(regime)
	bonus := cfg.RegimePenalty
	alignment := "no"
	if aligned {
		bonus = cfg.RegimeBonus
		alignment = "yes"
	}

	score := res.OOSScore*cfg.OOSWeight +
		res.StabilityScore*cfg.StabilityWeight +
		(res.Sharpe+cfg.SharpeOffset)*cfg.SharpeWeight +
		bonus -
		res.MaxDrawdown*cfg.DrawdownPenalty -
		math.Max(res.ParameterSensitivity-cfg.SensitivityAllowed, 0)

	return types.RankedSignal{
		Name:              def.Name,
		Version:           def.Version,
		StrategyType:      def.StrategyType,
		Direction:         ev.Candidate.Direction,
		ConfidenceScore:   utils.Round(utils.Clip(score, 0, 100), 2),
		ExpectedReturnMin: utils.Round(res.Expectancy*cfg.ReturnScale*cfg.ReturnBandLow, 3),
		ExpectedReturnMax: utils.Round(res.Expectancy*cfg.ReturnScale*cfg.ReturnBandHigh, 3),
		ExpectedDrawdown:  utils.Round(res.MaxDrawdown*100, 2),
		Justification: fmt.Sprintf("OOS=%.1f, stability=%.1f, regime alignment=%s, sensitivity=%.2f",
			res.OOSScore, res.StabilityScore, alignment, res.ParameterSensitivity),
	}
}
