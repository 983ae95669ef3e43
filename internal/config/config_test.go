package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ianF57/robot/internal/config"
	"github.com/ianF57/robot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAppName, cfg.Research.AppName)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
	assert.Equal(t, []string{"BTCUSDT", "EURUSD", "ES1!"}, cfg.Research.DefaultAssets)
	assert.Equal(t, types.Timeframe1h, cfg.Research.DefaultTimeframe)
	assert.Equal(t, 700, cfg.Research.HistoryLimit)
	assert.Equal(t, 1200, cfg.Research.ReplayFetchLimit)
	assert.Equal(t, 15, cfg.Research.DashboardLogLimit)
	assert.Equal(t, 2.5, cfg.Backtest.TransactionCostBps)
	assert.Equal(t, 1.5, cfg.Backtest.SlippageBps)
	assert.Equal(t, 100, cfg.Backtest.BootstrapSamples)
	assert.Equal(t, "memory", cfg.LogStore.Driver)
	assert.Equal(t, 5*time.Second, cfg.LogStore.QueryTimeout)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("RESEARCH_SERVER_PORT", "9100")
	t.Setenv("RESEARCH_RESEARCH_DEFAULT_TIMEFRAME", "1d")
	t.Setenv("RESEARCH_BACKTEST_SLIPPAGE_BPS", "3")

	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, types.Timeframe1d, cfg.Research.DefaultTimeframe)
	assert.Equal(t, 3.0, cfg.Backtest.SlippageBps)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.yaml")
	content := []byte(`
server:
  port: 8100
research:
  default_assets: [ETHUSDT]
  default_timeframe: 5m
logstore:
  driver: postgres
  dsn: postgres://localhost/research?sslmode=disable
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := config.Load(config.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 8100, cfg.Server.Port)
	assert.Equal(t, []string{"ETHUSDT"}, cfg.Research.DefaultAssets)
	assert.Equal(t, types.Timeframe5m, cfg.Research.DefaultTimeframe)
	assert.Equal(t, "postgres", cfg.LogStore.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unsupported timeframe", "RESEARCH_RESEARCH_DEFAULT_TIMEFRAME", "4h"},
		{"port out of range", "RESEARCH_SERVER_PORT", "70000"},
		{"postgres without dsn", "RESEARCH_LOGSTORE_DRIVER", "postgres"},
		{"unknown log level", "RESEARCH_LOG_LEVEL", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := config.Load(config.New(), "")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
