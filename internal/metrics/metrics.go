// Package metrics exposes Prometheus metrics for the workout engine and
// its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "drillz"

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	commands    *prometheus.CounterVec
	completions *prometheus.CounterVec
	ratio       prometheus.Histogram
	saves       *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// New registers the collectors with reg, which also backs Handler.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workout_commands_total",
			Help:      "Workout commands by name and result",
		}, []string{"command", "result"}),
		completions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workout_completions_total",
			Help:      "Completed workout attempts, natural or early",
		}, []string{"kind"}),
		ratio: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workout_ratio_percent",
			Help:      "Final ratio of completed attempts",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		saves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workout_saves_total",
			Help:      "Workout persistence attempts by result",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests received",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests",
		}),
	}
}

func (m *Metrics) Command(name, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name, result).Inc()
}

func (m *Metrics) Completed(early bool, ratio int) {
	if m == nil {
		return
	}
	kind := "natural"
	if early {
		kind = "early"
	}
	m.completions.WithLabelValues(kind).Inc()
	m.ratio.Observe(float64(ratio))
}

func (m *Metrics) Save(result string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request metrics labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := strconv.Itoa(rec.status)
		m.httpRequests.WithLabelValues(r.Method, route, status).Inc()
		m.httpLatency.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}
