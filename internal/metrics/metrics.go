// Package metrics exposes Prometheus collectors for the grid crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchesTotal               *prometheus.CounterVec
	fetchDurationSeconds       prometheus.Histogram
	fetchBytesTotal            prometheus.Counter
	transportFailuresTotal     prometheus.Counter
	recordsTotal               *prometheus.CounterVec
	discoveriesTotal           prometheus.Counter
	indeterminateTotal         *prometheus.CounterVec
	frontierLength             prometheus.Gauge
	frontierPosition           prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridcrawl_fetches_total",
				Help: "Total number of structured fetch responses, labeled by status class.",
			},
			[]string{"status_class"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridcrawl_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		fetchBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gridcrawl_fetch_bytes_total",
				Help: "Total number of response body bytes fetched.",
			},
		)

		transportFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gridcrawl_transport_failures_total",
				Help: "Total number of fetches that ended without an HTTP response.",
			},
		)

		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridcrawl_records_total",
				Help: "Total number of records appended to the record log, labeled by state.",
			},
			[]string{"state"},
		)

		discoveriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gridcrawl_discoveries_total",
				Help: "Total number of new grid cells discovered through neighbor links.",
			},
		)

		indeterminateTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridcrawl_indeterminate_responses_total",
				Help: "Responses left Queued for a future run, labeled by status code.",
			},
			[]string{"code"},
		)

		frontierLength = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gridcrawl_frontier_length",
				Help: "Current frontier length, including consumed entries.",
			},
		)

		frontierPosition = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gridcrawl_frontier_position",
				Help: "Current crawl cursor within the frontier.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// StatusClass groups HTTP status codes for metric labels.
func StatusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "other"
	}
}

// ObserveFetch records a structured fetch response.
func ObserveFetch(code int, bytesFetched int, duration time.Duration) {
	Init()
	fetchesTotal.WithLabelValues(StatusClass(code)).Inc()
	fetchDurationSeconds.Observe(duration.Seconds())
	if bytesFetched > 0 {
		fetchBytesTotal.Add(float64(bytesFetched))
	}
}

// ObserveTransportFailure records a fetch with no HTTP response.
func ObserveTransportFailure() {
	Init()
	transportFailuresTotal.Inc()
}

// ObserveRecord records one appended record.
func ObserveRecord(state string) {
	Init()
	recordsTotal.WithLabelValues(state).Inc()
}

// ObserveDiscovery records one newly queued neighbor.
func ObserveDiscovery() {
	Init()
	discoveriesTotal.Inc()
}

// ObserveIndeterminate records a response that produced no state.
func ObserveIndeterminate(code int) {
	Init()
	indeterminateTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// SetFrontier publishes the cursor and frontier length.
func SetFrontier(position, length int) {
	Init()
	frontierPosition.Set(float64(position))
	frontierLength.Set(float64(length))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
