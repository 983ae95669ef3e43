package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEvaluationOutcomes(t *testing.T) {
	r := New()

	r.RecordEvaluation("BTCUSDT", "1h", nil)
	r.RecordEvaluation("BTCUSDT", "1h", nil)
	r.RecordEvaluation("BTCUSDT", "1h", errors.New("insufficient history"))

	if got := testutil.ToFloat64(r.evaluations.WithLabelValues("BTCUSDT", "1h", OutcomeSuccess)); got != 2 {
		t.Errorf("expected 2 successes, got %f", got)
	}
	if got := testutil.ToFloat64(r.evaluations.WithLabelValues("BTCUSDT", "1h", OutcomeError)); got != 1 {
		t.Errorf("expected 1 error, got %f", got)
	}
}

func TestGaugesAndCounters(t *testing.T) {
	r := New()

	r.SetSignalConfidence("EURUSD", "ema_trend", 61.5)
	r.SetRegimeConfidence("EURUSD", 0.72)
	r.LogAppendFailed()
	r.LogDropped()
	r.LogDropped()

	if got := testutil.ToFloat64(r.signalConfidence.WithLabelValues("EURUSD", "ema_trend")); got != 61.5 {
		t.Errorf("unexpected signal confidence %f", got)
	}
	if got := testutil.ToFloat64(r.regimeConfidence.WithLabelValues("EURUSD")); got != 0.72 {
		t.Errorf("unexpected regime confidence %f", got)
	}
	if got := testutil.ToFloat64(r.logAppendFailures); got != 1 {
		t.Errorf("expected 1 append failure, got %f", got)
	}
	if got := testutil.ToFloat64(r.logDropped); got != 2 {
		t.Errorf("expected 2 dropped entries, got %f", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.ObserveDuration("dashboard", 150*time.Millisecond)
	r.RecordRequest("/api/dashboard", http.MethodGet, "200", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{
		"research_evaluation_duration_seconds_count",
		"research_http_requests_total",
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in exposition", name)
		}
	}
}
