package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	approvalsTotal       *prometheus.CounterVec
	underflowRejections  prometheus.Counter
	continuityViolations prometheus.Counter
	stateDrifts          prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grainledger_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grainledger_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grainledger_approvals_total",
		Help: "Approval decisions by outcome.",
	}, []string{"outcome"})
	underflows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grainledger_stock_underflow_rejections_total",
		Help: "Approvals rejected because the source location lacked stock.",
	})
	continuity := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grainledger_continuity_violations_total",
		Help: "Day-boundary continuity breaks found by verification runs.",
	})
	drifts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grainledger_state_drifts_total",
		Help: "Cached location states that diverged from replay.",
	})
	registry.MustRegister(requests, duration, approvals, underflows, continuity, drifts)
	return &Metrics{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:        requests,
		requestDuration:      duration,
		approvalsTotal:       approvals,
		underflowRejections:  underflows,
		continuityViolations: continuity,
		stateDrifts:          drifts,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// CountApproval records one approval decision outcome.
func (m *Metrics) CountApproval(outcome string) {
	if m == nil {
		return
	}
	m.approvalsTotal.WithLabelValues(outcome).Inc()
}

// CountUnderflowRejection records an approval refused for lack of stock.
func (m *Metrics) CountUnderflowRejection() {
	if m == nil {
		return
	}
	m.underflowRejections.Inc()
}

// CountContinuityViolations adds verification findings.
func (m *Metrics) CountContinuityViolations(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.continuityViolations.Add(float64(n))
}

// CountStateDrifts adds reconciliation findings.
func (m *Metrics) CountStateDrifts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.stateDrifts.Add(float64(n))
}

// Registerer exposes the registry for registering custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
