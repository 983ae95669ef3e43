// Package config loads the research platform configuration from defaults,
// an optional YAML file, a .env file and RESEARCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ianF57/robot/pkg/types"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RESEARCH_SERVER_PORT
const EnvPrefix = "RESEARCH"

// DefaultAppName is the platform title
const DefaultAppName = "Market Signal Intelligence & Research Platform"

// Config is the complete process configuration
type Config struct {
	Server   types.ServerConfig   `mapstructure:"server"`
	Research types.ResearchConfig `mapstructure:"research"`
	Backtest types.BacktestConfig `mapstructure:"backtest"`
	LogStore types.LogStoreConfig `mapstructure:"logstore"`
	Cache    types.CacheConfig    `mapstructure:"cache"`
	Log      LogConfig            `mapstructure:"log"`
	// DataDir, when set, serves history from JSON files instead of the synthetic generator
	DataDir string `mapstructure:"data_dir"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

// New returns a viper instance with defaults and environment binding applied
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.websocket_path", "/ws")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_burst", 10)

	v.SetDefault("research.app_name", DefaultAppName)
	v.SetDefault("research.default_assets", []string{"BTCUSDT", "EURUSD", "ES1!"})
	v.SetDefault("research.default_timeframe", string(types.Timeframe1h))
	v.SetDefault("research.history_limit", 700)
	v.SetDefault("research.replay_fetch_limit", 1200)
	v.SetDefault("research.replay_window", 700)
	v.SetDefault("research.dashboard_log_limit", 15)
	v.SetDefault("research.dashboard_top_n", 3)
	v.SetDefault("research.evaluation_workers", 0)
	v.SetDefault("research.evaluation_deadline", 60*time.Second)

	v.SetDefault("backtest.transaction_cost_bps", 2.5)
	v.SetDefault("backtest.slippage_bps", 1.5)
	v.SetDefault("backtest.in_sample_ratio", 0.7)
	v.SetDefault("backtest.periods_per_year", 252)
	v.SetDefault("backtest.rolling_window", 60)
	v.SetDefault("backtest.curve_points", 250)
	v.SetDefault("backtest.bootstrap_samples", 100)
	v.SetDefault("backtest.seed", 0)

	v.SetDefault("logstore.driver", "memory")
	v.SetDefault("logstore.dsn", "")
	v.SetDefault("logstore.queue_size", 256)
	v.SetDefault("logstore.max_open_conns", 10)
	v.SetDefault("logstore.query_timeout", 5*time.Second)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("data_dir", "")
}

// Load reads the configuration. path names an optional YAML file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the decoded configuration
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Addr returns the host:port listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
