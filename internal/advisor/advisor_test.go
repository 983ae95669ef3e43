package advisor_test

import (
	"testing"

	"github.com/ianF57/robot/internal/advisor"
	"github.com/ianF57/robot/pkg/types"
)

func TestBuildUncertaintyNote(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		drawdown   float64
		want       string
	}{
		{"high conviction", 80, 5, advisor.NoteHighConviction},
		{"high confidence but deep drawdown", 80, 10, advisor.NoteModerateConviction},
		{"boundary 75", 75, 9.99, advisor.NoteHighConviction},
		{"moderate", 55, 30, advisor.NoteModerateConviction},
		{"low", 54.99, 1, advisor.NoteLowConviction},
		{"zero", 0, 0, advisor.NoteLowConviction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := advisor.BuildUncertaintyNote(tt.confidence, tt.drawdown); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuildDecision(t *testing.T) {
	regime := types.RegimeResult{Regime: types.RegimeTrending, Confidence: 71.5}
	top := types.RankedSignal{
		Name:             "EMA Trend Following",
		Direction:        types.DirectionLong,
		ConfidenceScore:  62.4,
		ExpectedDrawdown: 4.2,
	}

	d := advisor.BuildDecision("BTCUSDT", regime, top)
	if d.Asset != "BTCUSDT" || d.Regime != types.RegimeTrending || d.RegimeConfidence != 71.5 {
		t.Errorf("unexpected decision header: %+v", d)
	}
	if d.SuggestedDirection != types.DirectionLong || d.Confidence != 62.4 {
		t.Errorf("decision should mirror the top signal: %+v", d)
	}
	if d.UncertaintyNote != advisor.NoteModerateConviction {
		t.Errorf("unexpected note %q", d.UncertaintyNote)
	}
}
