package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ianF57/robot/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// minCacheTTL bounds the cache lifetime for the shortest timeframes
const minCacheTTL = time.Minute

// CachedProvider keeps fetched windows in Redis for one bar interval.
// Redis failures are logged and fall through to the wrapped provider.
type CachedProvider struct {
	logger *zap.Logger
	client redis.Cmdable
	next   Provider
}

// NewRedisClient opens a Redis client and verifies the connection
func NewRedisClient(ctx context.Context, cfg types.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewCachedProvider wraps next with a Redis cache
func NewCachedProvider(logger *zap.Logger, client redis.Cmdable, next Provider) *CachedProvider {
	return &CachedProvider{
		logger: logger.Named("cache"),
		client: client,
		next:   next,
	}
}

// HistoryKey is the cache key of a window request
func HistoryKey(asset string, timeframe types.Timeframe, limit int) string {
	return fmt.Sprintf("history:%s:%s:%d", asset, timeframe, limit)
}

// CacheTTL is how long a window for the timeframe stays cached
func CacheTTL(timeframe types.Timeframe) time.Duration {
	interval, err := timeframe.Interval()
	if err != nil || interval < minCacheTTL {
		return minCacheTTL
	}
	return interval
}

// GetHistory serves the window from Redis when present, otherwise from the
// wrapped provider, storing the result
func (c *CachedProvider) GetHistory(ctx context.Context, asset string, timeframe types.Timeframe, limit int) ([]types.OHLCV, error) {
	key := HistoryKey(asset, timeframe, limit)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bars []types.OHLCV
		jsonErr := json.Unmarshal(raw, &bars)
		if jsonErr == nil {
			return bars, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	bars, err := c.next.GetHistory(ctx, asset, timeframe, limit)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(bars)
	if err != nil {
		c.logger.Warn("failed to encode history for cache", zap.Error(err))
		return bars, nil
	}
	if err := c.client.Set(ctx, key, payload, CacheTTL(timeframe)).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}

	return bars, nil
}
