package backtester_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ianF57/robot/internal/backtester"
	"github.com/ianF57/robot/internal/strategy"
)

func TestFrictionModel(t *testing.T) {
	f := backtester.NewFrictionModel(2.5, 1.5)
	if math.Abs(f.Rate()-0.0004) > 1e-15 {
		t.Fatalf("expected rate 0.0004, got %g", f.Rate())
	}

	in := []float64{0.01, -0.02, 0}
	out := f.Apply(in)
	want := []float64{0.01 - 0.01*0.0004, -0.02 - 0.02*0.0004, 0}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-15 {
			t.Errorf("return %d: expected %g, got %g", i, want[i], out[i])
		}
	}
	if in[0] != 0.01 {
		t.Error("Apply modified its input")
	}
}

func TestWalkForwardSplit(t *testing.T) {
	returns := make([]float64, 10)
	in, out := backtester.NewWalkForwardSplit(0.7).Split(returns)
	if len(in) != 7 || len(out) != 3 {
		t.Errorf("expected 7/3 split, got %d/%d", len(in), len(out))
	}

	in, out = backtester.NewWalkForwardSplit(0.7).Split(make([]float64, 61))
	if len(in) != 42 || len(out) != 19 {
		t.Errorf("expected 42/19 split, got %d/%d", len(in), len(out))
	}
}

func TestBootstrapConstantSeries(t *testing.T) {
	returns := []float64{0.002, 0.002, 0.002, 0.002}
	got := backtester.NewBootstrapSampler(100).Sensitivity(returns, rand.New(rand.NewSource(1)))
	if got > 1e-9 {
		t.Errorf("expected zero sensitivity for a constant series, got %g", got)
	}
}

func TestBootstrapSensitivityFixedSeed(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.015, 0.003, -0.007, 0.012, -0.004, 0.006}
	sampler := backtester.NewBootstrapSampler(100)

	got := sampler.Sensitivity(returns, rand.New(rand.NewSource(99)))
	if math.Abs(got-36.145735830800305) > 1e-9 {
		t.Errorf("expected sensitivity 36.145735830800305 for seed 99, got %.15f", got)
	}

	again := sampler.Sensitivity(returns, rand.New(rand.NewSource(99)))
	if again != got {
		t.Errorf("same seed gave %v then %v", got, again)
	}
}

func TestDeriveSeed(t *testing.T) {
	bars := barsFromCloses(risingCloses(80))
	ema := strategy.NewEMATrendStrategy().Definition()
	donchian := strategy.NewDonchianBreakoutStrategy().Definition()

	if backtester.DeriveSeed(ema, bars, 0) != backtester.DeriveSeed(ema, bars, 0) {
		t.Error("seed derivation is not stable")
	}
	if backtester.DeriveSeed(ema, bars, 0) == backtester.DeriveSeed(donchian, bars, 0) {
		t.Error("different candidates should derive different seeds")
	}
	if backtester.DeriveSeed(ema, bars, 0) == backtester.DeriveSeed(ema, bars[:79], 0) {
		t.Error("different windows should derive different seeds")
	}
	if backtester.DeriveSeed(ema, bars, 5)^5 != backtester.DeriveSeed(ema, bars, 0) {
		t.Error("base seed should be XORed into the derived seed")
	}
}
