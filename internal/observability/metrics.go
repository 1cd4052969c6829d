// Package observability provides Prometheus metrics for the gateway.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so callers never need to branch on whether metrics
// are enabled.
type Metrics struct {
	requests       *prometheus.CounterVec
	cacheHits      prometheus.Counter
	fallbacks      prometheus.Counter
	providerErrors *prometheus.CounterVec
}

// New registers the gateway collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatgate_requests_total",
			Help: "Chat requests handled, by provider and delivery mode.",
		}, []string{"provider", "mode"}),
		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatgate_cache_hits_total",
			Help: "Single-shot requests served from the response cache.",
		}),
		fallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatgate_fallbacks_total",
			Help: "Local provider failures recovered via the remote provider.",
		}),
		providerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatgate_provider_errors_total",
			Help: "Provider calls that surfaced an error, by provider.",
		}, []string{"provider"}),
	}
}

// Request records one handled request.
func (m *Metrics) Request(provider, mode string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(provider, mode).Inc()
}

// CacheHit records a response served from cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// Fallback records a local-to-remote failover.
func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// ProviderError records a surfaced provider failure.
func (m *Metrics) ProviderError(provider string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(provider).Inc()
}
