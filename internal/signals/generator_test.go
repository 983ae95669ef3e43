package signals_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ianF57/robot/internal/signals"
	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

func risingBars(n int) []types.OHLCV {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, n)
	for i := range bars {
		c := 50 + float64(i)*0.25
		bars[i] = types.OHLCV{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c,
			High:      c + 0.1,
			Low:       c - 0.1,
			Close:     c,
			Volume:    100,
		}
	}
	return bars
}

func TestGenerateCatalogOrder(t *testing.T) {
	gen := signals.NewSignalGenerator(zap.NewNop(), nil)

	candidates, err := gen.Generate(risingBars(200))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}

	defs := gen.Definitions()
	for i, c := range candidates {
		if c.Definition.Key() != defs[i].Key() {
			t.Errorf("position %d: expected %s, got %s", i, defs[i].Key(), c.Definition.Key())
		}
		if !c.Entry.Equal(candidates[0].Entry) {
			t.Errorf("position %d: every entry should be the latest close", i)
		}
	}
	if candidates[0].Direction != types.DirectionLong {
		t.Errorf("expected a Long trend signal on a rising window, got %s", candidates[0].Direction)
	}
}

func TestGenerateInsufficientHistory(t *testing.T) {
	gen := signals.NewSignalGenerator(zap.NewNop(), nil)
	_, err := gen.Generate(risingBars(gen.MinBars() - 1))
	if !errors.Is(err, types.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}
