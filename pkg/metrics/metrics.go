// Package metrics exposes Prometheus counters for the pipeline and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// Registry owns the collectors. It satisfies agent.Observer.
type Registry struct {
	reg *prometheus.Registry

	StageCount       *prometheus.CounterVec
	ProviderCalls    *prometheus.CounterVec
	RequestCount     *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	PipelineDuration prometheus.Histogram
}

// New creates a registry with the Go and process collectors installed
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		StageCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greenie_stage_total",
				Help: "Pipeline stage completions by outcome",
			},
			[]string{"stage", "outcome"},
		),
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greenie_provider_calls_total",
				Help: "Outbound provider calls by outcome",
			},
			[]string{"provider", "op", "outcome"},
		),
		RequestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greenie_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "greenie_http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
			},
			[]string{"method", "endpoint"},
		),
		PipelineDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "greenie_pipeline_duration_seconds",
				Help:    "End-to-end pipeline latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
			},
		),
	}
}

// StageCompleted counts a finished stage
func (r *Registry) StageCompleted(stage string, degraded bool) {
	outcome := OutcomeOK
	if degraded {
		outcome = OutcomeDegraded
	}
	r.StageCount.WithLabelValues(stage, outcome).Inc()
}

// ProviderCalled counts an outbound call
func (r *Registry) ProviderCalled(provider, op string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.ProviderCalls.WithLabelValues(provider, op, outcome).Inc()
}

// PipelineCompleted records end-to-end latency
func (r *Registry) PipelineCompleted(elapsed time.Duration) {
	r.PipelineDuration.Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request
func (r *Registry) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	r.RequestCount.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
