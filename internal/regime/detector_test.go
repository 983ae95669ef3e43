package regime_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ianF57/robot/internal/regime"
	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

// alternatingBars builds n bars whose returns alternate between +up and -down
func alternatingBars(n int, up, down float64) []types.OHLCV {
	bars := make([]types.OHLCV, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%2 == 1 {
				price *= 1 + up
			} else {
				price *= 1 - down
			}
		}
		bars[i] = types.OHLCV{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price * 1.001,
			Low:       price * 0.999,
			Close:     price,
			Volume:    1000,
		}
	}
	return bars
}

func newDetector() *regime.RegimeDetector {
	return regime.NewRegimeDetector(zap.NewNop(), nil)
}

func TestDetectRegimes(t *testing.T) {
	tests := []struct {
		name string
		bars []types.OHLCV
		want types.RegimeType
	}{
		{"high volatility wins over momentum", alternatingBars(61, 0.06, 0.03), types.RegimeHighVolatility},
		{"low volatility on smooth growth", alternatingBars(61, 0.0005, -0.0005), types.RegimeLowVolatility},
		{"momentum breakout", alternatingBars(61, 0.02, 0.01), types.RegimeMomentumBreakout},
		{"mean reversion", alternatingBars(61, 0.015, 0.012), types.RegimeMeanReversion},
		{"trending", alternatingBars(61, 0.022, 0.016), types.RegimeTrending},
	}

	detector := newDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := detector.Detect(tt.bars)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if result.Regime != tt.want {
				t.Errorf("expected %s, got %s (vol=%.4f adx=%.2f rsi=%.2f)",
					tt.want, result.Regime, result.Volatility, result.ADXProxy, result.RSI)
			}
		})
	}
}

func TestDetectBounds(t *testing.T) {
	detector := newDetector()
	windows := [][]types.OHLCV{
		alternatingBars(31, 0.3, 0.2),
		alternatingBars(100, 0.001, 0.0005),
		alternatingBars(250, 0.01, 0.012),
	}

	for i, bars := range windows {
		result, err := detector.Detect(bars)
		if err != nil {
			t.Fatalf("window %d: %v", i, err)
		}
		if result.Confidence < 0 || result.Confidence > 100 {
			t.Errorf("window %d: confidence out of range: %f", i, result.Confidence)
		}
		if len(result.Distribution) != len(types.AllRegimes()) {
			t.Errorf("window %d: expected %d distribution entries, got %d",
				i, len(types.AllRegimes()), len(result.Distribution))
		}
		for label, p := range result.Distribution {
			if p < 0 || p > 1 {
				t.Errorf("window %d: distribution[%s] out of range: %f", i, label, p)
			}
		}
		valid := false
		for _, r := range types.AllRegimes() {
			if r == result.Regime {
				valid = true
			}
		}
		if !valid {
			t.Errorf("window %d: unknown regime %q", i, result.Regime)
		}
	}
}

func TestDetectLowVolatilityDistribution(t *testing.T) {
	result, err := newDetector().Detect(alternatingBars(61, 0.0005, -0.0005))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got := result.Distribution[types.RegimeLowVolatility]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected low_volatility score 0.5 for a flat-variance window, got %f", got)
	}
	if got := result.Distribution[types.RegimeHighVolatility]; got != 0 {
		t.Errorf("expected high_volatility score 0, got %f", got)
	}
}

func TestDetectInsufficientHistory(t *testing.T) {
	detector := newDetector()
	if detector.MinBars() != 31 {
		t.Fatalf("expected 31 minimum bars, got %d", detector.MinBars())
	}

	_, err := detector.Detect(alternatingBars(30, 0.01, 0.01))
	if !errors.Is(err, types.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}
