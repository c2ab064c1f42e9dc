// ABOUTME: Prometheus metrics for outgoing API requests and session events
// ABOUTME: Exposed by long-running commands through promhttp

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP client and session provider report into
type Recorder interface {
	RecordRequest(method string, status int, duration time.Duration)
	RecordNetworkFailure(method string)
	RecordSessionInvalidated()
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	networkFailures *prometheus.CounterVec
	invalidations   prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subme_client_requests_total",
			Help: "API responses received, by method and status code",
		}, []string{"method", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "subme_client_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		networkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subme_client_network_failures_total",
			Help: "API requests that received no response",
		}, []string{"method"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subme_session_invalidations_total",
			Help: "Sessions cleared after the backend answered 401",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.networkFailures,
		c.invalidations,
	)

	return c
}

// RecordRequest records a completed request
func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordNetworkFailure records a request that never got a response
func (c *Collector) RecordNetworkFailure(method string) {
	c.networkFailures.WithLabelValues(method).Inc()
}

// RecordSessionInvalidated records a 401-triggered session clear
func (c *Collector) RecordSessionInvalidated() {
	c.invalidations.Inc()
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordRequest(string, int, time.Duration) {}
func (Nop) RecordNetworkFailure(string)              {}
func (Nop) RecordSessionInvalidated()                {}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
