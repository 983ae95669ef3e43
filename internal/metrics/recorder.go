// Package metrics exposes research pipeline metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder holds the process metrics on a dedicated registry
type Recorder struct {
	registry *prometheus.Registry

	evaluations       *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	signalConfidence  *prometheus.GaugeVec
	regimeConfidence  *prometheus.GaugeVec
	logAppendFailures prometheus.Counter
	logDropped        prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates a recorder with its own registry, including the Go and
// process collectors
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "research_evaluations_total",
				Help: "Total number of asset evaluations",
			},
			[]string{"asset", "timeframe", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "research_evaluation_duration_seconds",
				Help:    "Duration of evaluate, dashboard and replay runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		signalConfidence: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "research_signal_confidence",
				Help: "Confidence score of the latest top-ranked signal per asset",
			},
			[]string{"asset", "signal"},
		),
		regimeConfidence: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "research_regime_confidence",
				Help: "Confidence of the latest regime classification per asset",
			},
			[]string{"asset"},
		),
		logAppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "research_log_append_failures_total",
			Help: "Signal log entries the store failed to persist",
		}),
		logDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "research_log_dropped_total",
			Help: "Signal log entries dropped because the append queue was full",
		}),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "research_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "research_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

// Registry returns the recorder's registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordEvaluation counts one evaluation of asset on timeframe
func (r *Recorder) RecordEvaluation(asset, timeframe string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.evaluations.WithLabelValues(asset, timeframe, outcome).Inc()
}

// ObserveDuration records how long a run of the given kind took
func (r *Recorder) ObserveDuration(kind string, elapsed time.Duration) {
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SetSignalConfidence records the top signal's confidence for an asset
func (r *Recorder) SetSignalConfidence(asset, signal string, confidence float64) {
	r.signalConfidence.WithLabelValues(asset, signal).Set(confidence)
}

// SetRegimeConfidence records the regime confidence for an asset
func (r *Recorder) SetRegimeConfidence(asset string, confidence float64) {
	r.regimeConfidence.WithLabelValues(asset).Set(confidence)
}

// LogAppendFailed counts a failed signal log write
func (r *Recorder) LogAppendFailed() {
	r.logAppendFailures.Inc()
}

// LogDropped counts a signal log entry dropped before it was written
func (r *Recorder) LogDropped() {
	r.logDropped.Inc()
}

// RecordRequest records one served HTTP request
func (r *Recorder) RecordRequest(route, method, status string, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(route, method, status).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
