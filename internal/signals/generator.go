// Package signals provides candidate generation from the strategy catalog.
package signals

import (
	"fmt"

	"github.com/ianF57/robot/internal/strategy"
	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

// SignalGenerator evaluates every catalog strategy against a window.
type SignalGenerator struct {
	logger   *zap.Logger
	registry *strategy.StrategyRegistry
}

// NewSignalGenerator creates a generator over the given registry.
// A nil registry falls back to the built-in catalog.
func NewSignalGenerator(logger *zap.Logger, registry *strategy.StrategyRegistry) *SignalGenerator {
	if registry == nil {
		registry = strategy.NewStrategyRegistry(logger)
	}
	return &SignalGenerator{
		logger:   logger.Named("signals"),
		registry: registry,
	}
}

// MinBars returns the longest lookback of the catalog.
func (g *SignalGenerator) MinBars() int {
	return g.registry.MinBars()
}

// Definitions returns the catalog in generation order.
func (g *SignalGenerator) Definitions() []types.SignalDefinition {
	return g.registry.Definitions()
}

// Generate returns one candidate per catalog entry, in catalog order.
func (g *SignalGenerator) Generate(bars []types.OHLCV) ([]types.SignalCandidate, error) {
	strategies := g.registry.List()
	candidates := make([]types.SignalCandidate, 0, len(strategies))

	for _, s := range strategies {
		c, err := s.Evaluate(bars)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", s.Definition().Name, err)
		}
		candidates = append(candidates, c)

		g.logger.Debug("candidate generated",
			zap.String("signal", c.Definition.Name),
			zap.String("direction", string(c.Direction)),
			zap.String("entry", c.Entry.String()),
		)
	}

	return candidates, nil
}
