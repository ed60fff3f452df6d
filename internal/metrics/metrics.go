// Package metrics registers the process-wide Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trailerhub_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trailerhub_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// SourceFailures counts soft failures where a view fell back to the catalog.
	SourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailerhub_source_failures_total",
			Help: "Backend or upcoming fetches that failed and were treated as empty",
		},
		[]string{"source", "view"},
	)

	ComposedMovies = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trailerhub_composed_movies",
			Help:    "Number of movies in a composed category or search result",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"view"},
	)

	RemoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailerhub_remote_requests_total",
			Help: "Outbound requests by client and outcome",
		},
		[]string{"client", "outcome"},
	)

	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailerhub_retry_attempts_total",
			Help: "Retries scheduled by retry policies and fetchers",
		},
		[]string{"operation"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trailerhub_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	IngestedMovies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailerhub_ingested_movies_total",
			Help: "Movies written by the ingest pipeline",
		},
		[]string{"source"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trailerhub_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trailerhub_websocket_clients",
			Help: "Connected activity websocket clients",
		},
	)
)

func RecordSourceFailure(source, view string) {
	SourceFailures.WithLabelValues(source, view).Inc()
}

func RecordComposed(view string, n int) {
	ComposedMovies.WithLabelValues(view).Observe(float64(n))
}

func RecordRemote(client string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RemoteRequests.WithLabelValues(client, outcome).Inc()
}

// GinMiddleware records request latency keyed by the matched route, not the raw path.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
