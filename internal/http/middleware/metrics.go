// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation. HTTP traffic is measured
// with bounded label cardinality (method, registered route path, status);
// the adoption domain additionally gets an outcome counter so dashboards
// can watch acceptance/conflict rates without parsing logs.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges concurrent in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of in-flight HTTP requests.",
		},
	)

	// adoptionOutcomes counts lifecycle outcomes: submitted, accepted,
	// rejected, cancelled, conflict (lost availability race).
	adoptionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adoption_requests_total",
			Help: "Adoption request lifecycle outcomes.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, adoptionOutcomes)
}

// ObserveAdoptionOutcome increments the domain outcome counter. Handlers
// call it after the engine returns; outcome values are free-form but kept
// to a small fixed set by the callers.
func ObserveAdoptionOutcome(outcome string) {
	adoptionOutcomes.WithLabelValues(outcome).Inc()
}

// Metrics instruments each request with the HTTP collectors above.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()

		c.Next()

		httpInflight.Dec()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
