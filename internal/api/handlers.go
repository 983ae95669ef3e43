package api

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/ianF57/robot/internal/data"
	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>Research-only decision support. Signals are statistical estimates, not trade instructions.</p>
<ul>
<li><a href="/api/dashboard?timeframe={{.Timeframe}}">Dashboard</a></li>
<li><a href="/api/logs">Signal log</a></li>
<li><a href="/api/health">Health</a></li>
</ul>
</body>
</html>
`))

// errorResponse is the body of every failed request
type errorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

// handleIndex serves the landing page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, map[string]string{
		"Title":     s.info.AppName,
		"Timeframe": string(s.info.DefaultTimeframe),
	})
	if err != nil {
		s.logger.Error("failed to render index", zap.Error(err))
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"time":    time.Now().UTC().Unix(),
		"clients": s.hub.ClientCount(),
	})
}

// handleDashboard evaluates all configured assets
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	req := DashboardRequest{Timeframe: r.URL.Query().Get("timeframe")}
	if !s.bind(w, r, &req) {
		return
	}

	dashboard, err := s.research.Dashboard(r.Context(), types.Timeframe(req.Timeframe))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// handleAnalyze evaluates a single asset
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := AnalyzeRequest{Asset: q.Get("asset"), Timeframe: q.Get("timeframe")}
	if !s.bind(w, r, &req) {
		return
	}

	analysis, err := s.research.Evaluate(r.Context(), req.Asset, types.Timeframe(req.Timeframe))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// handleReplay evaluates an asset as of a past timestamp
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ReplayRequest{Asset: q.Get("asset"), Timeframe: q.Get("timeframe"), At: q.Get("at")}
	if !s.bind(w, r, &req) {
		return
	}

	at, err := ParseTimestamp(req.At)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Details: []ValidationError{{
				Code:    "ERR_DATETIME",
				Field:   "at",
				Message: "at must be an ISO 8601 timestamp",
			}},
		})
		return
	}

	replay, err := s.research.Replay(r.Context(), req.Asset, types.Timeframe(req.Timeframe), at)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replay)
}

// handleLogs returns the latest signal log entries
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	req := LogsRequest{Limit: s.info.DashboardLogLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if err := parseInt(raw, &req.Limit); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "invalid limit",
				Details: []ValidationError{{
					Code:    "ERR_INT",
					Field:   "limit",
					Message: "limit must be an integer",
				}},
			})
			return
		}
	}
	if !s.bind(w, r, &req) {
		return
	}

	logs, err := s.research.Logs(r.Context(), req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

// bind applies defaults and validates req, writing a 400 on failure
func (s *Server) bind(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if tf, ok := req.(timeframeDefaulter); ok {
		tf.defaultTimeframe(string(s.info.DefaultTimeframe))
	}
	if details := ReadAndValidate(r.Context(), req); details != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid request",
			Details: details,
		})
		return false
	}
	return true
}

// writeError maps pipeline errors to HTTP statuses
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// StatusFor returns the HTTP status for a pipeline error
func StatusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrUnsupportedTimeframe),
		errors.Is(err, data.ErrInvalidAsset):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrInsufficientHistory),
		errors.Is(err, types.ErrUnorderedWindow),
		errors.Is(err, data.ErrInvalidPrice):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
