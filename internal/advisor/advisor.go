// Package advisor turns the top-ranked signal into an asset decision.
package advisor

import "github.com/ianF57/robot/pkg/types"

// Advisory notes, by conviction.
const (
	NoteHighConviction     = "Higher-conviction research signal, still subject to model risk and non-stationarity."
	NoteModerateConviction = "Moderate-conviction setup; discretionary confirmation is recommended."
	NoteLowConviction      = "Low-conviction environment. Stand aside or reduce risk until clearer structure emerges."
)

// BuildUncertaintyNote maps confidence (0-100) and expected drawdown (percent)
// to a fixed caution note.
func BuildUncertaintyNote(confidence, drawdown float64) string {
	if confidence >= 75 && drawdown < 10 {
		return NoteHighConviction
	}
	if confidence >= 55 {
		return NoteModerateConviction
	}
	return NoteLowConviction
}

// BuildDecision assembles the decision for an asset from its regime and
// top-ranked signal.
func BuildDecision(asset string, regime types.RegimeResult, top types.RankedSignal) types.AssetDecision {
	return types.AssetDecision{
		Asset:              asset,
		Regime:             regime.Regime,
		RegimeConfidence:   regime.Confidence,
		SuggestedDirection: top.Direction,
		Confidence:         top.ConfidenceScore,
		UncertaintyNote:    BuildUncertaintyNote(top.ConfidenceScore, top.ExpectedDrawdown),
	}
}
