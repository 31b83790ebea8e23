// Package metrics exposes prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered for one server
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	ItemsCreated  *prometheus.CounterVec
	ItemsDeleted  prometheus.Counter
	SharesAdded   prometheus.Counter
	SharesRemoved prometheus.Counter
	GroupJoins    prometheus.Counter
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thinglibrary_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "thinglibrary_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ItemsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thinglibrary_items_created_total",
			Help: "Items created by type.",
		}, []string{"type"}),
		ItemsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thinglibrary_items_deleted_total",
			Help: "Items deleted.",
		}),
		SharesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thinglibrary_shares_added_total",
			Help: "Item to group share rows inserted.",
		}),
		SharesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thinglibrary_shares_removed_total",
			Help: "Item to group share rows deleted.",
		}),
		GroupJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thinglibrary_group_joins_total",
			Help: "New memberships created through invite tokens.",
		}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.requests, m.latency,
		m.ItemsCreated, m.ItemsDeleted,
		m.SharesAdded, m.SharesRemoved,
		m.GroupJoins,
	)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument records request counts and latency keyed by chi route pattern
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
