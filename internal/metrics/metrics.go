// Package metrics exposes Prometheus collectors for consults and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fuo-consult-server/internal/service"
)

const namespace = "fuo_consult"

// Collector holds the consult and HTTP metrics. It implements service.ConsultObserver.
type Collector struct {
	registry *prometheus.Registry

	consultsTotal      *prometheus.CounterVec
	consultDuration    prometheus.Histogram
	candidatesPerCase  prometheus.Histogram
	planTestsPerCase   prometheus.Histogram
	httpRequestsTotal  *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

// NewCollector creates the collectors on a private registry, along with the Go and process
// collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		consultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "consults_total",
				Help:      "Total number of consults processed, by outcome",
			},
			[]string{"outcome"},
		),
		consultDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "consult_duration_seconds",
				Help:      "Consult pipeline duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		candidatesPerCase: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "consult_candidates",
				Help:      "Number of ranked candidates per consult",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		planTestsPerCase: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "consult_plan_tests",
				Help:      "Number of planned tests per consult",
				Buckets:   []float64{0, 5, 10, 15, 20, 30, 40},
			},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		c.consultsTotal,
		c.consultDuration,
		c.candidatesPerCase,
		c.planTestsPerCase,
		c.httpRequestsTotal,
		c.httpRequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveConsult records one pipeline run.
func (c *Collector) ObserveConsult(outcome string, candidates, planTests int, elapsed time.Duration) {
	c.consultsTotal.WithLabelValues(outcome).Inc()
	c.consultDuration.Observe(elapsed.Seconds())
	if outcome == service.OutcomeMatched || outcome == service.OutcomeNoPattern {
		c.candidatesPerCase.Observe(float64(candidates))
		c.planTestsPerCase.Observe(float64(planTests))
	}
}

// ObserveHTTP records one HTTP request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
