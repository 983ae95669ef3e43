// Package data provides market data sources for the research pipeline.
package data

import (
	"context"
	"fmt"

	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

// DefaultHistoryLimit is the number of bars requested when no limit is given
const DefaultHistoryLimit = 700

// Provider returns price history ordered ascending by timestamp with at most
// limit bars.
type Provider interface {
	GetHistory(ctx context.Context, asset string, timeframe types.Timeframe, limit int) ([]types.OHLCV, error)
}

// MarketDataService validates requests and windows around a Provider
type MarketDataService struct {
	logger    *zap.Logger
	provider  Provider
	validator *WindowValidator
}

// NewMarketDataService creates a new market data service
func NewMarketDataService(logger *zap.Logger, provider Provider) *MarketDataService {
	return &MarketDataService{
		logger:    logger.Named("data"),
		provider:  provider,
		validator: NewWindowValidator(logger),
	}
}

// GetHistory fetches a window for the asset. Unknown timeframes fail with
// types.ErrUnsupportedTimeframe and out-of-order windows with
// types.ErrUnorderedWindow.
func (s *MarketDataService) GetHistory(ctx context.Context, asset string, timeframe types.Timeframe, limit int) ([]types.OHLCV, error) {
	if _, err := timeframe.Interval(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	bars, err := s.provider.GetHistory(ctx, asset, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s %s: %w", asset, timeframe, err)
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	report := s.validator.Validate(bars, asset)
	if !report.IsUsable {
		return nil, fmt.Errorf("history for %s %s rejected: %w", asset, timeframe, report.Err())
	}
	if len(report.Issues) > 0 {
		s.logger.Warn("history has quality issues",
			zap.String("asset", asset),
			zap.String("timeframe", string(timeframe)),
			zap.Int("issues", len(report.Issues)),
			zap.String("first", report.Issues[0].Message),
		)
	}

	return bars, nil
}
