package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	scanOutcomes     *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	providerRetries  *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	labelsReturned   prometheus.Histogram
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process metrics, or nil when metrics are disabled.
func Current() *Metrics {
	return instance
}

// Init registers the process-wide metrics once. It returns nil when disabled.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds a Metrics on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoscan_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecoscan_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoscan_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		scanOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoscan_scan_outcomes_total",
			Help: "Scan responses by provider and outcome.",
		}, []string{"provider", "outcome"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoscan_provider_requests_total",
			Help: "Outbound provider calls by provider and result kind (ok or error kind).",
		}, []string{"provider", "result"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecoscan_provider_request_duration_seconds",
			Help:    "Outbound provider call latency in seconds, retries included.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		}, []string{"provider", "result"}),
		providerRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoscan_provider_retries_total",
			Help: "Outbound provider retries.",
		}, []string{"provider"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoscan_cache_lookups_total",
			Help: "Scan result cache lookups by result (hit/miss).",
		}, []string{"result"}),
		labelsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecoscan_scan_labels_returned",
			Help:    "Environmental labels returned per successful provider scan.",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
		}),
	}

	reg.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.scanOutcomes,
		m.providerRequests,
		m.providerLatency,
		m.providerRetries,
		m.cacheLookups,
		m.labelsReturned,
	)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncScanOutcome(provider, outcome string) {
	if m == nil {
		return
	}
	m.scanOutcomes.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveProviderRequest(provider, result string, dur time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "ok"
	}
	m.providerRequests.WithLabelValues(provider, result).Inc()
	m.providerLatency.WithLabelValues(provider, result).Observe(dur.Seconds())
}

func (m *Metrics) IncProviderRetry(provider string) {
	if m == nil {
		return
	}
	m.providerRetries.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveLabelsReturned(n int) {
	if m == nil {
		return
	}
	m.labelsReturned.Observe(float64(n))
}
