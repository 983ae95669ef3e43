package strategy_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ianF57/robot/internal/strategy"
	"github.com/ianF57/robot/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func barsFromCloses(closes []float64) []types.OHLCV {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = types.OHLCV{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c * 1.002,
			Low:       c * 0.998,
			Close:     c,
			Volume:    500,
		}
	}
	return bars
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestRegistryCatalogOrder(t *testing.T) {
	registry := strategy.NewStrategyRegistry(zap.NewNop())

	defs := registry.Definitions()
	want := []string{"EMA Trend Following", "Bollinger Mean Reversion", "Donchian Breakout"}
	if len(defs) != len(want) {
		t.Fatalf("expected %d definitions, got %d", len(want), len(defs))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, defs[i].Name)
		}
	}

	if _, ok := registry.Get("Donchian Breakout", "1.1.0"); !ok {
		t.Error("expected Donchian Breakout 1.1.0 to be registered")
	}
	if _, ok := registry.Get("Donchian Breakout", "1.0.0"); ok {
		t.Error("unexpected match for an unregistered version")
	}
	if registry.MinBars() != 50 {
		t.Errorf("expected catalog lookback 50, got %d", registry.MinBars())
	}

	// re-registering keeps the position
	registry.Register(strategy.NewEMATrendStrategy())
	if got := registry.Definitions(); len(got) != 3 || got[0].Name != "EMA Trend Following" {
		t.Errorf("re-registration changed the catalog: %v", got)
	}
}

func TestEMATrendRisingWindowIsLong(t *testing.T) {
	bars := barsFromCloses(linear(120, 100, 0.5))
	c, err := strategy.NewEMATrendStrategy().Evaluate(bars)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if c.Direction != types.DirectionLong {
		t.Fatalf("expected Long, got %s", c.Direction)
	}

	latest := decimal.NewFromFloat(bars[len(bars)-1].Close)
	if !c.Entry.Equal(latest) {
		t.Errorf("entry should be the latest close, got %s", c.Entry)
	}
	if !c.StopLoss.Equal(latest.Mul(decimal.NewFromFloat(0.985))) {
		t.Errorf("unexpected stop %s", c.StopLoss)
	}
	if !c.TakeProfit.Equal(latest.Mul(decimal.NewFromFloat(1.03))) {
		t.Errorf("unexpected target %s", c.TakeProfit)
	}
	if c.RiskReward != 2.0 {
		t.Errorf("expected risk/reward 2.0, got %f", c.RiskReward)
	}
}

func TestEMATrendFallingWindowIsShort(t *testing.T) {
	bars := barsFromCloses(linear(120, 200, -0.5))
	c, err := strategy.NewEMATrendStrategy().Evaluate(bars)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if c.Direction != types.DirectionShort {
		t.Fatalf("expected Short, got %s", c.Direction)
	}
	latest := decimal.NewFromFloat(bars[len(bars)-1].Close)
	if !c.StopLoss.Equal(latest.Mul(decimal.NewFromFloat(1.015))) {
		t.Errorf("unexpected stop %s", c.StopLoss)
	}
}

func TestBollingerBands(t *testing.T) {
	base := make([]float64, 59)
	for i := range base {
		base[i] = 100
		if i%2 == 1 {
			base[i] = 101
		}
	}

	tests := []struct {
		name   string
		latest float64
		want   types.Direction
	}{
		{"above upper band", 110, types.DirectionShort},
		{"below lower band", 90, types.DirectionLong},
		{"inside band", 100.5, types.DirectionNeutral},
	}

	s := strategy.NewBollingerReversionStrategy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closes := append(append([]float64{}, base...), tt.latest)
			c, err := s.Evaluate(barsFromCloses(closes))
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if c.Direction != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.Direction)
			}
			if c.RiskReward != 1.5 {
				t.Errorf("expected risk/reward 1.5, got %f", c.RiskReward)
			}
		})
	}
}

func TestDonchianBreakout(t *testing.T) {
	s := strategy.NewDonchianBreakoutStrategy()

	up, err := s.Evaluate(barsFromCloses(linear(60, 100, 1)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if up.Direction != types.DirectionLong {
		t.Errorf("expected Long at the channel high, got %s", up.Direction)
	}

	down, err := s.Evaluate(barsFromCloses(linear(60, 200, -1)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if down.Direction != types.DirectionShort {
		t.Errorf("expected Short at the channel low, got %s", down.Direction)
	}
	latest := decimal.NewFromFloat(141)
	if !down.TakeProfit.Equal(latest.Mul(decimal.NewFromFloat(0.96))) {
		t.Errorf("unexpected target %s", down.TakeProfit)
	}

	// rally, full retrace, then drift back to the middle of the channel
	var closes []float64
	closes = append(closes, linear(30, 100, 0)...)
	closes = append(closes, linear(10, 100, 3)...)
	closes = append(closes, linear(10, 127, -3)...)
	closes = append(closes, linear(10, 101, 1)...)
	mid, err := s.Evaluate(barsFromCloses(closes))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if mid.Direction != types.DirectionNeutral {
		t.Errorf("expected Neutral mid-channel, got %s", mid.Direction)
	}
}

func TestStrategiesRejectShortWindows(t *testing.T) {
	bars := barsFromCloses(linear(10, 100, 1))
	registry := strategy.NewStrategyRegistry(zap.NewNop())
	for _, s := range registry.List() {
		if _, err := s.Evaluate(bars); !errors.Is(err, types.ErrInsufficientHistory) {
			t.Errorf("%s: expected ErrInsufficientHistory, got %v", s.Definition().Name, err)
		}
	}
}
