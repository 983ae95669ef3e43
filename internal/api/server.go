// Package api provides the HTTP and WebSocket server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/ianF57/robot/internal/metrics"
	"github.com/ianF57/robot/pkg/types"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Research is the analysis service behind the API
type Research interface {
	Evaluate(ctx context.Context, asset string, timeframe types.Timeframe) (*types.AssetAnalysis, error)
	Dashboard(ctx context.Context, timeframe types.Timeframe) (*types.Dashboard, error)
	Replay(ctx context.Context, asset string, timeframe types.Timeframe, at time.Time) (*types.ReplayAnalysis, error)
	Logs(ctx context.Context, limit int) ([]types.SignalLogEntry, error)
}

// Server is the HTTP/WebSocket API server
type Server struct {
	logger     *zap.Logger
	config     *types.ServerConfig
	info       *types.ResearchConfig
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	upgrader   websocket.Upgrader
	research   Research
	hub        *Hub
	recorder   *metrics.Recorder
	limiter    *ipLimiter
}

// NewServer creates a new API server. info supplies the application name
// and default timeframe.
func NewServer(logger *zap.Logger, config *types.ServerConfig, info *types.ResearchConfig, research Research, hub *Hub, recorder *metrics.Recorder) *Server {
	if recorder == nil {
		recorder = metrics.New()
	}

	server := &Server{
		logger:   logger.Named("api"),
		config:   config,
		info:     info,
		router:   mux.NewRouter(),
		research: research,
		hub:      hub,
		recorder: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // same policy as the CORS wrapper
			},
		},
	}
	if config.RateLimit > 0 {
		server.limiter = newIPLimiter(config.RateLimit, config.RateBurst)
	}

	server.setupRoutes()
	server.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(server.router)

	return server
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestID, s.accessLog)

	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", s.recorder.Handler()).Methods("GET")
	s.router.HandleFunc(s.config.WebSocketPath, s.handleWebSocket)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimit)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")
	api.HandleFunc("/analyze", s.handleAnalyze).Methods("GET")
	api.HandleFunc("/replay", s.handleReplay).Methods("GET")
	api.HandleFunc("/logs", s.handleLogs).Methods("GET")
}

// Handler returns the complete HTTP handler including CORS
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting API server", zap.String("addr", addr))

	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.hub.CloseAll()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleWebSocket upgrades the connection and attaches it to the hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := s.hub.Attach(conn)
	go client.WritePump()
	go client.ReadPump()
}
