// Package metrics provides Prometheus instrumentation for the
// credit-reporting backend.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path pattern,
	// and status bucket.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentcredit",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// BatchActionsTotal counts pipeline actions by action and outcome.
	BatchActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentcredit",
			Name:      "batch_actions_total",
			Help:      "Total batch pipeline actions by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	// ValidationIssuesTotal counts validation findings by issue type.
	ValidationIssuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentcredit",
			Name:      "validation_issues_total",
			Help:      "Total validation issues recorded, by issue type.",
		},
		[]string{"issue_type"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		BatchActionsTotal,
		ValidationIssuesTotal,
	)
}

// Middleware records request counts per route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // route pattern, not raw path
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus scrape handler for /metrics.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func statusBucket(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
