package main

import (
	"context"
	"fmt"

	"github.com/ianF57/robot/internal/backtester"
	"github.com/ianF57/robot/internal/config"
	"github.com/ianF57/robot/internal/data"
	"github.com/ianF57/robot/internal/logstore"
	"github.com/ianF57/robot/internal/metrics"
	"github.com/ianF57/robot/internal/orchestrator"
	"github.com/ianF57/robot/internal/ranker"
	"github.com/ianF57/robot/internal/regime"
	"github.com/ianF57/robot/internal/signals"
	"github.com/ianF57/robot/internal/workers"
	"go.uber.org/zap"
)

// app holds the wired research pipeline
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder
	appender *logstore.Appender
	pool     *workers.Pool
	orch     *orchestrator.ResearchOrchestrator
	closers  []func() error
}

// newApp loads the configuration and wires every pipeline component
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := setupLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, recorder: metrics.New()}

	provider, err := a.provider(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.logStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.appender = logstore.NewAppender(logger, store, cfg.LogStore.QueueSize, a.recorder)

	poolCfg := workers.DefaultPoolConfig("evaluations")
	if cfg.Research.EvaluationWorkers > 0 {
		poolCfg.NumWorkers = cfg.Research.EvaluationWorkers
	}
	if cfg.Research.EvaluationDeadline > 0 {
		poolCfg.TaskTimeout = cfg.Research.EvaluationDeadline
	}
	a.pool = workers.NewPool(logger, poolCfg)
	a.pool.Start()

	a.orch, err = orchestrator.NewResearchOrchestrator(logger, &cfg.Research, orchestrator.Components{
		Data:      data.NewMarketDataService(logger, provider),
		Detector:  regime.NewRegimeDetector(logger, nil),
		Generator: signals.NewSignalGenerator(logger, nil),
		Engine:    backtester.NewEngine(logger, &cfg.Backtest),
		Ranker:    ranker.NewSignalRanker(logger, nil),
		Logs:      store,
		Appender:  a.appender,
		Pool:      a.pool,
		Recorder:  a.recorder,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// provider selects the history source and wraps it in the Redis cache when enabled
func (a *app) provider(ctx context.Context) (data.Provider, error) {
	var provider data.Provider
	if a.cfg.DataDir != "" {
		store, err := data.NewStore(a.logger, a.cfg.DataDir)
		if err != nil {
			return nil, err
		}
		provider = store
		a.logger.Info("Serving history from files", zap.String("dataDir", a.cfg.DataDir))
	} else {
		provider = data.NewSyntheticProvider(a.logger, nil)
		a.logger.Info("Serving synthetic history")
	}

	if !a.cfg.Cache.Enabled {
		return provider, nil
	}

	client, err := data.NewRedisClient(ctx, a.cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.logger.Info("History cache enabled", zap.String("addr", a.cfg.Cache.Addr))
	return data.NewCachedProvider(a.logger, client, provider), nil
}

// logStore opens the configured signal log backend
func (a *app) logStore(ctx context.Context) (logstore.Store, error) {
	switch a.cfg.LogStore.Driver {
	case "postgres":
		store, err := logstore.OpenPostgres(ctx, a.logger, a.cfg.LogStore)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return logstore.NewMemoryStore(), nil
	}
}

// Close drains the log queue and releases every resource in reverse order
func (a *app) Close() {
	if a.appender != nil {
		a.appender.Close()
	}
	if a.pool != nil {
		if err := a.pool.Stop(); err != nil {
			a.logger.Warn("Worker pool did not stop cleanly", zap.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Error releasing resource", zap.Error(err))
		}
	}
	a.logger.Sync()
}
