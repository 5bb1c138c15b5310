package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	calculationsTotal *prometheus.CounterVec
	submissionsTotal  *prometheus.CounterVec
	orphanedLocks     prometheus.Gauge
	unlockedInPeriod  prometheus.Gauge
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscus_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiscus_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscus_vat_calculations_total",
		Help: "Return calculations by accounting scheme.",
	}, []string{"scheme"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscus_vat_submissions_total",
		Help: "Return submissions by outcome.",
	}, []string{"outcome"})
	orphaned := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fiscus_vat_orphaned_locks",
		Help: "Locked ledger entries whose return record is missing or not submitted.",
	})
	unlocked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fiscus_vat_unlocked_in_submitted_period",
		Help: "Ledger entries dated inside a submitted period but carrying no lock.",
	})
	registry.MustRegister(requests, duration, calculations, submissions, orphaned, unlocked)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		calculationsTotal: calculations,
		submissionsTotal:  submissions,
		orphanedLocks:     orphaned,
		unlockedInPeriod:  unlocked,
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

// ObserveCalculation counts a completed return calculation.
func (m *Metrics) ObserveCalculation(scheme string) {
	if m == nil {
		return
	}
	m.calculationsTotal.WithLabelValues(scheme).Inc()
}

// ObserveSubmission counts a submission attempt by outcome.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

// SetLockIntegrity publishes the latest lock integrity scan results.
func (m *Metrics) SetLockIntegrity(orphanedLocks, unlockedInPeriod int64) {
	if m == nil {
		return
	}
	m.orphanedLocks.Set(float64(orphanedLocks))
	m.unlockedInPeriod.Set(float64(unlockedInPeriod))
}

// Registerer exposes the registry for custom metric registration.
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
