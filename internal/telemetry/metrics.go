package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// HTTPMetrics collects per-route request counts and latencies.
type HTTPMetrics struct{}

// NewHTTPMetrics registers the HTTP metrics and returns a collector.
func NewHTTPMetrics() *HTTPMetrics {
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestDuration)
	return &HTTPMetrics{}
}

// Middleware records request metrics for every handled route. The path
// label uses the route template, not the raw URL, to bound cardinality.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Errors have not reached the error handler yet, so the
			// response status still reads as the default.
			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			requestCounter.WithLabelValues(method, path, statusStr).Inc()
			requestDuration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler returns the HTTP handler exposing the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
