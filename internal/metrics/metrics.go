// Package metrics provides Prometheus metrics for the calculator server.
// HTTP metrics are recorded by the Metrics middleware; domain counters are
// incremented by the handlers.
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	Calculations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "calculations_total",
			Help: "Cost breakdowns computed",
		},
	)

	Summaries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "summaries_total",
			Help: "Plain-text cost summaries produced",
		},
	)

	QRRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_renders_total",
			Help: "QR codes served, by format",
		},
		[]string{"format"},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of rate limiter buckets currently tracked",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(Calculations)
	prometheus.MustRegister(Summaries)
	prometheus.MustRegister(QRRenders)
	prometheus.MustRegister(RateLimiterBucketsTotal)
}
