package data

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

// SyntheticConfig configures the synthetic market generator
type SyntheticConfig struct {
	DriftPerBar   float64 // Mean log return per bar
	VolPerBar     float64 // Standard deviation of log returns per bar
	BasePriceMin  float64 // Lower bound of the starting price
	BasePriceSpan float64 // Width of the starting price range
	WickMin       float64 // Minimum high/low distance from close
	WickMax       float64 // Maximum high/low distance from close
	VolumeMin     int     // Inclusive lower volume bound
	VolumeMax     int     // Exclusive upper volume bound
}

// DefaultSyntheticConfig returns the generator defaults
func DefaultSyntheticConfig() *SyntheticConfig {
	return &SyntheticConfig{
		DriftPerBar:   0.0004,
		VolPerBar:     0.015,
		BasePriceMin:  100,
		BasePriceSpan: 100,
		WickMin:       0.0005,
		WickMax:       0.01,
		VolumeMin:     1000,
		VolumeMax:     20000,
	}
}

// SyntheticProvider generates deterministic offline market history. Each
// (asset, timeframe) pair has its own seed, and timestamps end at the current
// time truncated to the bar interval, so calls within one interval agree.
type SyntheticProvider struct {
	logger *zap.Logger
	config *SyntheticConfig
	now    func() time.Time
}

// NewSyntheticProvider creates a new synthetic provider
func NewSyntheticProvider(logger *zap.Logger, config *SyntheticConfig) *SyntheticProvider {
	if config == nil {
		config = DefaultSyntheticConfig()
	}
	return &SyntheticProvider{
		logger: logger.Named("synthetic"),
		config: config,
		now:    time.Now,
	}
}

// WithClock overrides the time source
func (p *SyntheticProvider) WithClock(now func() time.Time) *SyntheticProvider {
	p.now = now
	return p
}

// GetHistory generates limit bars for the asset and timeframe
func (p *SyntheticProvider) GetHistory(ctx context.Context, asset string, timeframe types.Timeframe, limit int) ([]types.OHLCV, error) {
	interval, err := timeframe.Interval()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []types.OHLCV{}, nil
	}

	cfg := p.config
	rng := rand.New(rand.NewSource(seedFor(asset, timeframe)))
	anchor := p.now().UTC().Truncate(interval)

	price := cfg.BasePriceMin + rng.Float64()*cfg.BasePriceSpan
	bars := make([]types.OHLCV, limit)
	prevClose := 0.0
	for i := 0; i < limit; i++ {
		price *= math.Exp(cfg.DriftPerBar + rng.NormFloat64()*cfg.VolPerBar)
		open := prevClose
		if i == 0 {
			open = price
		}
		bars[i] = types.OHLCV{
			Timestamp: anchor.Add(-time.Duration(limit-i) * interval),
			Open:      open,
			High:      price * (1 + p.wick(rng)),
			Low:       price * (1 - p.wick(rng)),
			Close:     price,
			Volume:    float64(cfg.VolumeMin + rng.Intn(cfg.VolumeMax-cfg.VolumeMin)),
		}
		prevClose = price
	}

	p.logger.Debug("generated synthetic history",
		zap.String("asset", asset),
		zap.String("timeframe", string(timeframe)),
		zap.Int("bars", limit),
	)
	return bars, nil
}

// wick draws a high/low distance from the close
func (p *SyntheticProvider) wick(rng *rand.Rand) float64 {
	return p.config.WickMin + rng.Float64()*(p.config.WickMax-p.config.WickMin)
}

// seedFor hashes the asset and timeframe into a generator seed
func seedFor(asset string, timeframe types.Timeframe) int64 {
	h := fnv.New64a()
	h.Write([]byte(asset))
	h.Write([]byte{0})
	h.Write([]byte(timeframe))
	return int64(h.Sum64() & math.MaxInt64)
}
