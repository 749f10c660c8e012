// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerPagesTotal          *prometheus.CounterVec
	crawlerFetchErrorsTotal    *prometheus.CounterVec
	crawlerRecordsTotal        prometheus.Counter
	crawlerFollowUpsTotal      prometheus.Counter
	crawlerDuplicatesTotal     prometheus.Counter
	crawlerPartialRowsTotal    prometheus.Counter
	crawlerFrontierDepth       prometheus.Gauge
	crawlerActiveWorkers       prometheus.Gauge
	crawlerRateLimitDelaysSecs prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Total number of pages fetched, labeled by status class.",
			},
			[]string{"status"},
		)

		crawlerFetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_fetch_errors_total",
				Help: "Total number of failed fetch cycles, labeled by reason.",
			},
			[]string{"reason"},
		)

		crawlerRecordsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_records_total",
				Help: "Total number of output records written to the sink.",
			},
		)

		crawlerFollowUpsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_follow_ups_total",
				Help: "Total number of follow-up URLs pushed to the frontier.",
			},
		)

		crawlerDuplicatesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_duplicates_total",
				Help: "Total number of URLs skipped by the duplicate detector.",
			},
		)

		crawlerPartialRowsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_partial_rows_total",
				Help: "Total number of output rows padded because a multi-valued placeholder ran short.",
			},
		)

		crawlerFrontierDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_frontier_depth",
				Help: "Number of URLs currently queued in the frontier.",
			},
		)

		crawlerActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_active_workers",
				Help: "Number of workers currently processing an item.",
			},
		)

		crawlerRateLimitDelaysSecs = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawler_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch increments the page counter for the given status class
// ("2xx", "4xx", ...).
func ObserveFetch(statusClass string) {
	if crawlerPagesTotal != nil {
		crawlerPagesTotal.WithLabelValues(statusClass).Inc()
	}
}

// ObserveFetchError increments the fetch error counter for the given reason.
func ObserveFetchError(reason string) {
	if crawlerFetchErrorsTotal != nil {
		crawlerFetchErrorsTotal.WithLabelValues(reason).Inc()
	}
}

// AddRecords increments the output record counter.
func AddRecords(n int) {
	if crawlerRecordsTotal != nil && n > 0 {
		crawlerRecordsTotal.Add(float64(n))
	}
}

// AddFollowUps increments the follow-up counter.
func AddFollowUps(n int) {
	if crawlerFollowUpsTotal != nil && n > 0 {
		crawlerFollowUpsTotal.Add(float64(n))
	}
}

// IncDuplicates increments the duplicate-skip counter.
func IncDuplicates() {
	if crawlerDuplicatesTotal != nil {
		crawlerDuplicatesTotal.Inc()
	}
}

// AddPartialRows increments the padded-row counter.
func AddPartialRows(n int) {
	if crawlerPartialRowsTotal != nil && n > 0 {
		crawlerPartialRowsTotal.Add(float64(n))
	}
}

// SetFrontierDepth records the current frontier queue length.
func SetFrontierDepth(n int) {
	if crawlerFrontierDepth != nil {
		crawlerFrontierDepth.Set(float64(n))
	}
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	if crawlerActiveWorkers != nil {
		crawlerActiveWorkers.Inc()
	}
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	if crawlerActiveWorkers != nil {
		crawlerActiveWorkers.Dec()
	}
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(duration time.Duration) {
	if crawlerRateLimitDelaysSecs != nil {
		crawlerRateLimitDelaysSecs.Observe(duration.Seconds())
	}
}
