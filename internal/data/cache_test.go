package data_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/ianF57/robot/internal/data"
	"github.com/ianF57/robot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func syntheticBars(t *testing.T, n int) []types.OHLCV {
	t.Helper()
	bars, err := newSynthetic().GetHistory(context.Background(), "BTCUSDT", types.Timeframe1h, n)
	require.NoError(t, err)
	return bars
}

func TestCachedProviderHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	bars := syntheticBars(t, 10)
	payload, err := json.Marshal(bars)
	require.NoError(t, err)

	key := data.HistoryKey("BTCUSDT", types.Timeframe1h, 10)
	mock.ExpectGet(key).SetVal(string(payload))

	next := providerFunc(func(ctx context.Context, asset string, tf types.Timeframe, limit int) ([]types.OHLCV, error) {
		t.Fatal("wrapped provider should not be called on a cache hit")
		return nil, nil
	})

	got, err := data.NewCachedProvider(zap.NewNop(), db, next).GetHistory(context.Background(), "BTCUSDT", types.Timeframe1h, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.True(t, got[9].Timestamp.Equal(bars[9].Timestamp))
	assert.Equal(t, bars[9].Close, got[9].Close)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedProviderMissStores(t *testing.T) {
	db, mock := redismock.NewClientMock()
	bars := syntheticBars(t, 10)
	payload, err := json.Marshal(bars)
	require.NoError(t, err)

	key := data.HistoryKey("BTCUSDT", types.Timeframe1h, 10)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, payload, time.Hour).SetVal("OK")

	calls := 0
	next := providerFunc(func(ctx context.Context, asset string, tf types.Timeframe, limit int) ([]types.OHLCV, error) {
		calls++
		return bars, nil
	})

	got, err := data.NewCachedProvider(zap.NewNop(), db, next).GetHistory(context.Background(), "BTCUSDT", types.Timeframe1h, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, got, 10)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedProviderReadFailureFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	bars := syntheticBars(t, 5)
	payload, err := json.Marshal(bars)
	require.NoError(t, err)

	key := data.HistoryKey("BTCUSDT", types.Timeframe1h, 5)
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, payload, time.Hour).SetErr(errors.New("connection refused"))

	next := providerFunc(func(ctx context.Context, asset string, tf types.Timeframe, limit int) ([]types.OHLCV, error) {
		return bars, nil
	})

	got, err := data.NewCachedProvider(zap.NewNop(), db, next).GetHistory(context.Background(), "BTCUSDT", types.Timeframe1h, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheTTL(t *testing.T) {
	assert.Equal(t, time.Minute, data.CacheTTL(types.Timeframe1m))
	assert.Equal(t, 5*time.Minute, data.CacheTTL(types.Timeframe5m))
	assert.Equal(t, 24*time.Hour, data.CacheTTL(types.Timeframe1d))
	assert.Equal(t, time.Minute, data.CacheTTL(types.Timeframe("bogus")))
}
