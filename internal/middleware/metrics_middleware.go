package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "code"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	quotaRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Contact creations refused because the plan limit was reached",
		},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "Stripe webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	extractionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_requests_total",
			Help: "Contact extraction requests by outcome",
		},
		[]string{"outcome"},
	)
)

// IncQuotaRejection records a save refused by the plan limit.
func IncQuotaRejection() {
	quotaRejections.Inc()
}

// IncWebhookEvent records one processed webhook delivery. outcome is one of
// "ok", "bad_signature", "failed".
func IncWebhookEvent(outcome string) {
	webhookEvents.WithLabelValues(outcome).Inc()
}

// IncExtractionRequest records one extraction attempt by outcome.
func IncExtractionRequest(outcome string) {
	extractionRequests.WithLabelValues(outcome).Inc()
}

// shouldCollectMetrics excludes infrastructure endpoints so probe traffic
// does not drown out business traffic.
func shouldCollectMetrics(path string) bool {
	for _, skipPath := range []string{"/health", "/metrics"} {
		if strings.HasPrefix(path, skipPath) {
			return false
		}
	}
	return true
}

// PrometheusMiddleware records request counts and latency per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if !shouldCollectMetrics(path) {
			c.Next()
			return
		}

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(method, path, statusCode).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(method, path, statusCode).Inc()
	}
}
