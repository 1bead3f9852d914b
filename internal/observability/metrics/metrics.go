package metrics

import "github.com/prometheus/client_golang/prometheus"

// AdapterMetrics exposes counters/histograms for webhook and upstream flows.
type AdapterMetrics struct {
	webhookTotal    *prometheus.CounterVec
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	tokenRefreshes  prometheus.Counter
}

func NewAdapterMetrics(reg prometheus.Registerer) *AdapterMetrics {
	m := &AdapterMetrics{
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accuro_adapter",
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Total Retell webhook requests",
		}, []string{"operation", "outcome"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accuro_adapter",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total calls against the Accuro API",
		}, []string{"operation", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "accuro_adapter",
			Subsystem: "upstream",
			Name:      "call_latency_seconds",
			Help:      "Latency of Accuro API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		tokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accuro_adapter",
			Subsystem: "upstream",
			Name:      "token_refreshes_total",
			Help:      "Total OAuth token exchanges performed",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookTotal, m.upstreamTotal, m.upstreamLatency, m.tokenRefreshes)
	return m
}

func (m *AdapterMetrics) ObserveWebhook(operation, outcome string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *AdapterMetrics) ObserveUpstream(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(operation, outcome).Inc()
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *AdapterMetrics) ObserveTokenRefresh() {
	if m == nil {
		return
	}
	m.tokenRefreshes.Inc()
}
