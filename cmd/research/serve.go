package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ianF57/robot/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd runs the HTTP and WebSocket server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research API and signal feed",
	Long: `Serve the dashboard, analyze, replay and logs endpoints, the Prometheus
metrics endpoint and the WebSocket signal feed.

Examples:
  research serve
  research serve --port 9000
  RESEARCH_LOGSTORE_DRIVER=postgres RESEARCH_LOGSTORE_DSN=postgres://... research serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "127.0.0.1", "Server host")
	serveCmd.Flags().Int("port", 8000, "Server port")
	if err := v.BindPFlag("server.host", serveCmd.Flags().Lookup("host")); err != nil {
		panic(err)
	}
	if err := v.BindPFlag("server.port", serveCmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	hub := api.NewHub(logger)
	go hub.Run()
	defer hub.Stop()
	unsubscribe := a.appender.Subscribe(hub.PublishSignal)
	defer unsubscribe()

	server := api.NewServer(logger, &a.cfg.Server, &a.cfg.Research, a.orch, hub, a.recorder)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("Research platform started",
		zap.String("http", fmt.Sprintf("http://%s", a.cfg.Addr())),
		zap.String("ws", fmt.Sprintf("ws://%s%s", a.cfg.Addr(), a.cfg.Server.WebSocketPath)),
		zap.Strings("assets", a.cfg.Research.DefaultAssets),
		zap.String("logstore", a.cfg.LogStore.Driver),
	)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	written, dropped, failures := a.appender.Stats()
	logger.Info("Server stopped",
		zap.Int64("logsWritten", written),
		zap.Int64("logsDropped", dropped),
		zap.Int64("logFailures", failures),
	)
	return nil
}
