// Package strategy provides the static catalog of research strategies.
package strategy

import (
	"fmt"
	"sync"

	"github.com/ianF57/robot/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Strategy is the interface all catalog strategies must implement.
type Strategy interface {
	Definition() types.SignalDefinition
	MinBars() int
	Evaluate(bars []types.OHLCV) (types.SignalCandidate, error)
}

// StrategyRegistry holds strategies in registration order. The order is the
// catalog order used for candidate generation.
type StrategyRegistry struct {
	logger     *zap.Logger
	strategies []Strategy
	byKey      map[string]Strategy
	mu         sync.RWMutex
}

// NewStrategyRegistry creates a registry pre-loaded with the built-in catalog.
func NewStrategyRegistry(logger *zap.Logger) *StrategyRegistry {
	r := NewEmptyRegistry(logger)

	r.Register(NewEMATrendStrategy())
	r.Register(NewBollingerReversionStrategy())
	r.Register(NewDonchianBreakoutStrategy())

	return r
}

// NewEmptyRegistry creates a registry with no strategies.
func NewEmptyRegistry(logger *zap.Logger) *StrategyRegistry {
	return &StrategyRegistry{
		logger: logger,
		byKey:  make(map[string]Strategy),
	}
}

// Register appends a strategy to the catalog. Registering the same
// name and version twice replaces the earlier entry in place.
func (r *StrategyRegistry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := s.Definition().Key()
	if _, exists := r.byKey[key]; exists {
		for i, existing := range r.strategies {
			if existing.Definition().Key() == key {
				r.strategies[i] = s
			}
		}
	} else {
		r.strategies = append(r.strategies, s)
	}
	r.byKey[key] = s

	r.logger.Debug("strategy registered", zap.String("key", key))
}

// Get returns a strategy by name and version.
func (r *StrategyRegistry) Get(name, version string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byKey[types.SignalDefinition{Name: name, Version: version}.Key()]
	return s, ok
}

// List returns all strategies in catalog order.
func (r *StrategyRegistry) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// Definitions returns the catalog definitions in order.
func (r *StrategyRegistry) Definitions() []types.SignalDefinition {
	strategies := r.List()
	defs := make([]types.SignalDefinition, len(strategies))
	for i, s := range strategies {
		defs[i] = s.Definition()
	}
	return defs
}

// MinBars returns the longest lookback across the catalog.
func (r *StrategyRegistry) MinBars() int {
	longest := 0
	for _, s := range r.List() {
		if n := s.MinBars(); n > longest {
			longest = n
		}
	}
	return longest
}

// checkWindow guards a strategy against windows shorter than its lookback.
func checkWindow(s Strategy, bars []types.OHLCV) error {
	if len(bars) < s.MinBars() {
		return fmt.Errorf("%s needs %d bars, got %d: %w",
			s.Definition().Name, s.MinBars(), len(bars), types.ErrInsufficientHistory)
	}
	return nil
}

// levels are the stop and target multipliers of a strategy. Long uses the
// long pair; Short and Neutral use the other pair.
type levels struct {
	stopLong, stopOther     float64
	targetLong, targetOther float64
	riskReward              float64
}

// candidate builds a candidate whose entry is the latest close.
func (l levels) candidate(def types.SignalDefinition, dir types.Direction, latest float64) types.SignalCandidate {
	entry := decimal.NewFromFloat(latest)
	stop, target := l.stopOther, l.targetOther
	if dir == types.DirectionLong {
		stop, target = l.stopLong, l.targetLong
	}
	return types.SignalCandidate{
		Definition: def,
		Direction:  dir,
		Entry:      entry,
		StopLoss:   entry.Mul(decimal.NewFromFloat(stop)),
		TakeProfit: entry.Mul(decimal.NewFromFloat(target)),
		RiskReward: l.riskReward,
	}
}
