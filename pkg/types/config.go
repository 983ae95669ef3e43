// Package types provides configuration types for the research pipeline.
package types

import "time"

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host          string        `json:"host" mapstructure:"host" validate:"required"`
	Port          int           `json:"port" mapstructure:"port" validate:"min=1,max=65535"`
	WebSocketPath string        `json:"websocketPath" mapstructure:"websocket_path" validate:"required,startswith=/"`
	ReadTimeout   time.Duration `json:"readTimeout" mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `json:"writeTimeout" mapstructure:"write_timeout"`
	RateLimit     float64       `json:"rateLimit" mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst     int           `json:"rateBurst" mapstructure:"rate_burst" validate:"gte=0"`
}

// BacktestConfig represents the friction and robustness settings of the backtest engine
type BacktestConfig struct {
	TransactionCostBps float64 `json:"transactionCostBps" mapstructure:"transaction_cost_bps" validate:"gte=0"`
	SlippageBps        float64 `json:"slippageBps" mapstructure:"slippage_bps" validate:"gte=0"`
	InSampleRatio      float64 `json:"inSampleRatio" mapstructure:"in_sample_ratio" validate:"gt=0,lt=1"`
	PeriodsPerYear     int     `json:"periodsPerYear" mapstructure:"periods_per_year" validate:"gt=0"`
	RollingWindow      int     `json:"rollingWindow" mapstructure:"rolling_window" validate:"gt=1"`
	CurvePoints        int     `json:"curvePoints" mapstructure:"curve_points" validate:"gt=0"`
	BootstrapSamples   int     `json:"bootstrapSamples" mapstructure:"bootstrap_samples" validate:"gt=1"`
	// Seed is XORed into the per-window bootstrap seed; 0 keeps the derived seed.
	Seed int64 `json:"seed" mapstructure:"seed"`
}

// ResearchConfig represents orchestration settings
type ResearchConfig struct {
	AppName            string        `json:"appName" mapstructure:"app_name"`
	DefaultAssets      []string      `json:"defaultAssets" mapstructure:"default_assets" validate:"min=1,dive,required"`
	DefaultTimeframe   Timeframe     `json:"defaultTimeframe" mapstructure:"default_timeframe" validate:"oneof=1m 5m 1h 1d 1w"`
	HistoryLimit       int           `json:"historyLimit" mapstructure:"history_limit" validate:"gt=0"`
	ReplayFetchLimit   int           `json:"replayFetchLimit" mapstructure:"replay_fetch_limit" validate:"gtefield=ReplayWindow"`
	ReplayWindow       int           `json:"replayWindow" mapstructure:"replay_window" validate:"gt=0"`
	DashboardLogLimit  int           `json:"dashboardLogLimit" mapstructure:"dashboard_log_limit" validate:"gt=0"`
	DashboardTopN      int           `json:"dashboardTopN" mapstructure:"dashboard_top_n" validate:"gt=0"`
	EvaluationWorkers  int           `json:"evaluationWorkers" mapstructure:"evaluation_workers" validate:"gte=0"`
	EvaluationDeadline time.Duration `json:"evaluationDeadline" mapstructure:"evaluation_deadline"`
}

// LogStoreConfig selects and configures the signal log backend
type LogStoreConfig struct {
	Driver       string        `json:"driver" mapstructure:"driver" validate:"oneof=memory postgres"`
	DSN          string        `json:"dsn" mapstructure:"dsn" validate:"required_if=Driver postgres"`
	QueueSize    int           `json:"queueSize" mapstructure:"queue_size" validate:"gt=0"`
	MaxOpenConns int           `json:"maxOpenConns" mapstructure:"max_open_conns" validate:"gte=0"`
	QueryTimeout time.Duration `json:"queryTimeout" mapstructure:"query_timeout"`
}

// CacheConfig configures the optional Redis history cache
type CacheConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Addr     string `json:"addr" mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `json:"-" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db" validate:"gte=0"`
}
