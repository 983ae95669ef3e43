// Package data_test provides tests for the market data sources.
package data_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ianF57/robot/internal/data"
	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 7, 15, 13, 47, 12, 0, time.UTC)

func newSynthetic() *data.SyntheticProvider {
	return data.NewSyntheticProvider(zap.NewNop(), nil).WithClock(func() time.Time { return fixedNow })
}

// providerFunc adapts a function to data.Provider
type providerFunc func(ctx context.Context, asset string, tf types.Timeframe, limit int) ([]types.OHLCV, error)

func (f providerFunc) GetHistory(ctx context.Context, asset string, tf types.Timeframe, limit int) ([]types.OHLCV, error) {
	return f(ctx, asset, tf, limit)
}

func TestSyntheticProviderDeterministic(t *testing.T) {
	p := newSynthetic()
	ctx := context.Background()

	a, err := p.GetHistory(ctx, "BTCUSDT", types.Timeframe1h, 700)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	b, err := p.GetHistory(ctx, "BTCUSDT", types.Timeframe1h, 700)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(a) != 700 {
		t.Fatalf("expected 700 bars, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("bar %d differs between calls", i)
		}
	}

	other, err := p.GetHistory(ctx, "EURUSD", types.Timeframe1h, 700)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if other[0].Close == a[0].Close {
		t.Error("different assets should produce different series")
	}
}

func TestSyntheticProviderTimestamps(t *testing.T) {
	bars, err := newSynthetic().GetHistory(context.Background(), "ES1!", types.Timeframe1d, 50)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}

	anchor := fixedNow.Truncate(24 * time.Hour)
	if !bars[len(bars)-1].Timestamp.Equal(anchor.Add(-24 * time.Hour)) {
		t.Errorf("unexpected last timestamp %s", bars[len(bars)-1].Timestamp)
	}
	for i := 1; i < len(bars); i++ {
		if gap := bars[i].Timestamp.Sub(bars[i-1].Timestamp); gap != 24*time.Hour {
			t.Fatalf("bar %d: expected 24h spacing, got %s", i, gap)
		}
		if bars[i].Open != bars[i-1].Close {
			t.Fatalf("bar %d: open should equal the previous close", i)
		}
		if bars[i].High < bars[i].Close || bars[i].Low > bars[i].Close {
			t.Fatalf("bar %d: close outside high/low", i)
		}
		if bars[i].Volume < 1000 || bars[i].Volume >= 20000 {
			t.Fatalf("bar %d: volume out of range %f", i, bars[i].Volume)
		}
	}
}

func TestMarketDataServiceTimeframes(t *testing.T) {
	svc := data.NewMarketDataService(zap.NewNop(), newSynthetic())
	ctx := context.Background()

	_, err := svc.GetHistory(ctx, "BTCUSDT", types.Timeframe("4h"), 100)
	if !errors.Is(err, types.ErrUnsupportedTimeframe) {
		t.Fatalf("expected ErrUnsupportedTimeframe, got %v", err)
	}

	for _, tf := range types.SupportedTimeframes() {
		bars, err := svc.GetHistory(ctx, "BTCUSDT", tf, 0)
		if err != nil {
			t.Fatalf("%s: %v", tf, err)
		}
		if len(bars) != data.DefaultHistoryLimit {
			t.Errorf("%s: expected default limit %d, got %d", tf, data.DefaultHistoryLimit, len(bars))
		}
	}
}

func TestMarketDataServiceRejectsUnorderedWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := providerFunc(func(ctx context.Context, asset string, tf types.Timeframe, limit int) ([]types.OHLCV, error) {
		return []types.OHLCV{
			{Timestamp: start.Add(2 * time.Hour), Open: 1, High: 1, Low: 1, Close: 1},
			{Timestamp: start.Add(1 * time.Hour), Open: 1, High: 1, Low: 1, Close: 1},
		}, nil
	})

	svc := data.NewMarketDataService(zap.NewNop(), provider)
	_, err := svc.GetHistory(context.Background(), "X", types.Timeframe1h, 10)
	if !errors.Is(err, types.ErrUnorderedWindow) {
		t.Fatalf("expected ErrUnorderedWindow, got %v", err)
	}
}

func TestMarketDataServiceTrimsToLimit(t *testing.T) {
	full, err := newSynthetic().GetHistory(context.Background(), "BTCUSDT", types.Timeframe5m, 100)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	provider := providerFunc(func(ctx context.Context, asset string, tf types.Timeframe, limit int) ([]types.OHLCV, error) {
		return full, nil
	})

	bars, err := data.NewMarketDataService(zap.NewNop(), provider).GetHistory(context.Background(), "BTCUSDT", types.Timeframe5m, 40)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(bars) != 40 || !bars[39].Timestamp.Equal(full[99].Timestamp) {
		t.Errorf("expected the trailing 40 bars, got %d ending %s", len(bars), bars[len(bars)-1].Timestamp)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := data.NewStore(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	bars, err := newSynthetic().GetHistory(context.Background(), "EURUSD", types.Timeframe1h, 120)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if err := store.SaveOHLCV("EURUSD", types.Timeframe1h, bars); err != nil {
		t.Fatalf("SaveOHLCV failed: %v", err)
	}

	reopened, err := data.NewStore(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	got, err := reopened.GetHistory(context.Background(), "EURUSD", types.Timeframe1h, 100)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("expected 100 bars, got %d", len(got))
	}
	if !got[99].Timestamp.Equal(bars[119].Timestamp) || got[99].Close != bars[119].Close {
		t.Error("reloaded window does not end at the saved last bar")
	}

	_, err = reopened.GetHistory(context.Background(), "MISSING", types.Timeframe1h, 10)
	if !errors.Is(err, data.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestStoreRejectsPathsOutsideDataDir(t *testing.T) {
	root := t.TempDir()
	outside := []types.OHLCV{{Timestamp: fixedNow, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}}
	raw, err := json.Marshal(outside)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "secret_1h.json"), raw, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store, err := data.NewStore(zap.NewNop(), filepath.Join(root, "data"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	for _, asset := range []string{"../secret", "..", "a/b", `a\b`, ""} {
		bars, err := store.GetHistory(context.Background(), asset, types.Timeframe1h, 10)
		if !errors.Is(err, data.ErrInvalidAsset) {
			t.Errorf("asset %q: expected ErrInvalidAsset, got %d bars and %v", asset, len(bars), err)
		}
	}

	if err := store.SaveOHLCV("../secret", types.Timeframe1h, outside); !errors.Is(err, data.ErrInvalidAsset) {
		t.Errorf("expected SaveOHLCV to reject the asset, got %v", err)
	}
}

func TestValidAsset(t *testing.T) {
	tests := []struct {
		asset string
		want  bool
	}{
		{"BTCUSDT", true},
		{"ES1!", true},
		{"BRK.B", true},
		{"EUR-USD", true},
		{"eth_usd", true},
		{"", false},
		{"../etc", false},
		{"a..b", false},
		{"a/b", false},
		{"BTC USDT", false},
		{"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456", false},
	}

	for _, tt := range tests {
		if got := data.ValidAsset(tt.asset); got != tt.want {
			t.Errorf("ValidAsset(%q) = %v, want %v", tt.asset, got, tt.want)
		}
	}
}

func TestStorePutSorts(t *testing.T) {
	store, err := data.NewStore(zap.NewNop(), "")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	store.Put("A", types.Timeframe1m, []types.OHLCV{
		{Timestamp: start.Add(2 * time.Minute), Close: 3},
		{Timestamp: start, Close: 1},
		{Timestamp: start.Add(time.Minute), Close: 2},
	})

	bars, err := store.GetHistory(context.Background(), "A", types.Timeframe1m, 0)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	for i, want := range []float64{1, 2, 3} {
		if bars[i].Close != want {
			t.Errorf("bar %d: expected close %f, got %f", i, want, bars[i].Close)
		}
	}
}

func TestWindowValidator(t *testing.T) {
	v := data.NewWindowValidator(zap.NewNop())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	warn := v.Validate([]types.OHLCV{
		{Timestamp: start, Open: 10, High: 9, Low: 8, Close: 9},
		{Timestamp: start, Open: 9, High: 10, Low: 8, Close: 9.5},
	}, "W")
	if !warn.IsUsable {
		t.Error("OHLC and duplicate warnings should not make a window unusable")
	}
	if len(warn.Issues) != 2 {
		t.Errorf("expected 2 issues, got %d", len(warn.Issues))
	}
	if warn.Err() != nil {
		t.Errorf("expected no error, got %v", warn.Err())
	}

	bad := v.Validate([]types.OHLCV{
		{Timestamp: start, Open: 1, High: 1, Low: 1, Close: 1},
		{Timestamp: start.Add(time.Hour), Open: 1, High: 1, Low: 0, Close: 0},
	}, "B")
	if bad.IsUsable {
		t.Error("a zero close should make the window unusable")
	}
	if !errors.Is(bad.Err(), data.ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", bad.Err())
	}
}
