package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the inference core.
type Metrics struct {
	QueryTotal        *prometheus.CounterVec
	ProviderCallTotal *prometheus.CounterVec
	ProviderLatencyMs *prometheus.HistogramVec
	FallbackTotal     *prometheus.CounterVec
	CacheEventTotal   *prometheus.CounterVec
	TokensTotal       *prometheus.CounterVec
	RetrievalMatches  prometheus.Histogram
	EmergencyTotal    prometheus.Counter
}

// NewMetrics creates and registers all metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		QueryTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "halcyon_query_total",
			Help: "Total agent turns processed.",
		}, []string{"domain", "outcome"}),

		ProviderCallTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "halcyon_provider_call_total",
			Help: "Total completion provider calls.",
		}, []string{"provider", "outcome"}),

		ProviderLatencyMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "halcyon_provider_latency_ms",
			Help:    "Provider call latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"provider"}),

		FallbackTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "halcyon_fallback_total",
			Help: "Local-to-cloud fallbacks by trigger.",
		}, []string{"reason"}),

		CacheEventTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "halcyon_cache_event_total",
			Help: "Response cache hits, misses, stores, and evictions.",
		}, []string{"event"}),

		TokensTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "halcyon_tokens_total",
			Help: "Estimated tokens processed per provider.",
		}, []string{"provider"}),

		RetrievalMatches: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "halcyon_retrieval_matches",
			Help:    "Documents retrieved per agent turn.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}),

		EmergencyTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "halcyon_emergency_total",
			Help: "Turns flagged by emergency detection.",
		}),
	}
}

// All recorders are nil-safe so wiring can omit metrics in tests.

func (m *Metrics) RecordQuery(domain, outcome string) {
	if m == nil {
		return
	}
	m.QueryTotal.WithLabelValues(domain, outcome).Inc()
}

func (m *Metrics) RecordProviderCall(provider, outcome string, latencyMs float64, tokens int) {
	if m == nil {
		return
	}
	m.ProviderCallTotal.WithLabelValues(provider, outcome).Inc()
	m.ProviderLatencyMs.WithLabelValues(provider).Observe(latencyMs)
	if tokens > 0 {
		m.TokensTotal.WithLabelValues(provider).Add(float64(tokens))
	}
}

func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.FallbackTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordCacheEvent(event string) {
	if m == nil {
		return
	}
	m.CacheEventTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordRetrievalMatches(n int) {
	if m == nil {
		return
	}
	m.RetrievalMatches.Observe(float64(n))
}

func (m *Metrics) RecordEmergency() {
	if m == nil {
		return
	}
	m.EmergencyTotal.Inc()
}
