// Package metrics provides internal Prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the routing and model-call metric families. A nil
// *Collector is valid and records nothing, so callers never need to guard.
type Collector struct {
	handoffDecisions *prometheus.CounterVec
	routeDuration    prometheus.Histogram

	cacheHits   *prometheus.CounterVec
	cacheMisses prometheus.Counter

	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	parseStrategies  *prometheus.CounterVec
}

// NewCollector registers the metric families with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry to
// avoid duplicate registration.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		handoffDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handoff_decisions_total",
				Help:      "Routing decisions by outcome reason",
			},
			[]string{"reason"},
		),
		routeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "route_duration_seconds",
				Help:      "Time spent deciding a handoff",
				Buckets:   prometheus.DefBuckets,
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Response cache hits by tier",
			},
			[]string{"tier"},
		),
		cacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Response cache misses across all tiers",
			},
		),
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Provider call outcomes",
			},
			[]string{"provider", "outcome"},
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Provider call latency including retries",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"provider"},
		),
		parseStrategies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_strategy_total",
				Help:      "Which parsing strategy produced the response",
			},
			[]string{"strategy"},
		),
	}
}

// RecordDecision counts a routing decision by its reason code.
func (c *Collector) RecordDecision(reason string, dur time.Duration) {
	if c == nil {
		return
	}
	c.handoffDecisions.WithLabelValues(reason).Inc()
	c.routeDuration.Observe(dur.Seconds())
}

// RecordCacheHit counts a hit on the given tier.
func (c *Collector) RecordCacheHit(tier string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss counts a full-stack cache miss.
func (c *Collector) RecordCacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Inc()
}

// RecordProviderCall counts one provider call and its latency. outcome is
// "success", "transient_error" or "fatal_error".
func (c *Collector) RecordProviderCall(provider, outcome string, dur time.Duration) {
	if c == nil {
		return
	}
	c.providerRequests.WithLabelValues(provider, outcome).Inc()
	c.providerDuration.WithLabelValues(provider).Observe(dur.Seconds())
}

// RecordParseStrategy counts which cascade strategy succeeded.
func (c *Collector) RecordParseStrategy(strategy string) {
	if c == nil {
		return
	}
	c.parseStrategies.WithLabelValues(strategy).Inc()
}
