// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cycle metrics
	CyclesTotal    prometheus.Counter
	CycleDuration  prometheus.Histogram
	CycleSleep     prometheus.Gauge
	EmergencySkips prometheus.Counter

	// Search metrics
	SearchesTotal    *prometheus.CounterVec
	SearchErrors     *prometheus.CounterVec
	SearchLatency    *prometheus.HistogramVec
	ListingsFound    *prometheus.CounterVec
	ListingsRejected *prometheus.CounterVec

	// Delivery metrics
	ListingsDelivered prometheus.Counter
	DeliveryFailures  prometheus.Counter

	// Keyword metrics
	DeadKeywords    prometheus.Gauge
	HotKeywords     prometheus.Gauge
	KeywordRevivals prometheus.Counter

	// Tier metrics
	BrandsPerTier *prometheus.GaugeVec
	Rebalances    prometheus.Counter

	// State metrics
	SeenSetSize  prometheus.Gauge
	ExchangeRate prometheus.Gauge
	LowVolume    prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "auction_sniper"
	}

	return &Metrics{
		// Cycle metrics
		CyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Total number of scan cycles completed",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Scan cycle duration in seconds",
			Buckets:   []float64{10, 30, 60, 120, 180, 300, 600},
		}),
		CycleSleep: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "sleep_seconds",
			Help:      "Adaptive sleep applied after the last cycle",
		}),
		EmergencySkips: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "emergency_skips_total",
			Help:      "Total number of cycles skipped in emergency mode",
		}),

		// Search metrics
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total number of keyword searches by tier",
		}, []string{"tier"}),
		SearchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "errors_total",
			Help:      "Total number of search errors by tier",
		}, []string{"tier"}),
		SearchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "latency_seconds",
			Help:      "Keyword search latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tier"}),
		ListingsFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "listings_found_total",
			Help:      "Total number of accepted listings by brand",
		}, []string{"brand"}),
		ListingsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "listings_rejected_total",
			Help:      "Total number of rejected rows by gate",
		}, []string{"gate"}),

		// Delivery metrics
		ListingsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "listings_total",
			Help:      "Total number of listings delivered downstream",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "failures_total",
			Help:      "Total number of failed delivery attempts",
		}),

		// Keyword metrics
		DeadKeywords: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "keywords",
			Name:      "dead",
			Help:      "Current number of dead keywords",
		}),
		HotKeywords: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "keywords",
			Name:      "hot",
			Help:      "Current number of hot keywords",
		}),
		KeywordRevivals: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keywords",
			Name:      "revivals_total",
			Help:      "Total number of dead keywords revived",
		}),

		// Tier metrics
		BrandsPerTier: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tiers",
			Name:      "brands",
			Help:      "Number of brands assigned to each tier",
		}, []string{"tier"}),
		Rebalances: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tiers",
			Name:      "rebalances_total",
			Help:      "Total number of tier rebalances applied",
		}),

		// State metrics
		SeenSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "seen_set_size",
			Help:      "Current number of auction IDs in the seen set",
		}),
		ExchangeRate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "exchange_rate_jpy_usd",
			Help:      "Cached JPY per USD exchange rate",
		}),
		LowVolume: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "low_volume",
			Help:      "1 when low-volume mode is active, 0 otherwise",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSearch records one keyword search and its latency.
func RecordSearch(tier string, seconds float64, failed bool) {
	DefaultMetrics.SearchesTotal.WithLabelValues(tier).Inc()
	DefaultMetrics.SearchLatency.WithLabelValues(tier).Observe(seconds)
	if failed {
		DefaultMetrics.SearchErrors.WithLabelValues(tier).Inc()
	}
}

// RecordFound increments the accepted-listings counter for a brand.
func RecordFound(brand string) {
	DefaultMetrics.ListingsFound.WithLabelValues(brand).Inc()
}

// RecordRejected increments the rejection counter for a gate.
func RecordRejected(gate string) {
	DefaultMetrics.ListingsRejected.WithLabelValues(gate).Inc()
}

// RecordDelivery records one delivery attempt.
func RecordDelivery(ok bool) {
	if ok {
		DefaultMetrics.ListingsDelivered.Inc()
		return
	}
	DefaultMetrics.DeliveryFailures.Inc()
}

// RecordCycle records a completed cycle and its duration.
func RecordCycle(durationSeconds, sleepSeconds float64) {
	DefaultMetrics.CyclesTotal.Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
	DefaultMetrics.CycleSleep.Set(sleepSeconds)
}

// UpdateKeywordGauges updates the dead and hot keyword gauges.
func UpdateKeywordGauges(dead, hot int) {
	DefaultMetrics.DeadKeywords.Set(float64(dead))
	DefaultMetrics.HotKeywords.Set(float64(hot))
}

// UpdateTierGauges updates the brands-per-tier gauges.
func UpdateTierGauges(counts map[string]int) {
	for tier, count := range counts {
		DefaultMetrics.BrandsPerTier.WithLabelValues(tier).Set(float64(count))
	}
}

// UpdateStateGauges updates the seen-set, exchange-rate and low-volume gauges.
func UpdateStateGauges(seenSetSize int, exchangeRate float64, lowVolume bool) {
	DefaultMetrics.SeenSetSize.Set(float64(seenSetSize))
	DefaultMetrics.ExchangeRate.Set(exchangeRate)
	if lowVolume {
		DefaultMetrics.LowVolume.Set(1)
	} else {
		DefaultMetrics.LowVolume.Set(0)
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
