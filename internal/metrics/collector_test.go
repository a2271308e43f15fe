package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("agentroute", reg)

	c.RecordDecision("transfer", 2*time.Millisecond)
	c.RecordDecision("transfer", time.Millisecond)
	c.RecordDecision("stay_cooldown", time.Millisecond)
	c.RecordCacheHit("l1")
	c.RecordCacheMiss()
	c.RecordProviderCall("claude", "success", 120*time.Millisecond)
	c.RecordParseStrategy("json")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.handoffDecisions.WithLabelValues("transfer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.handoffDecisions.WithLabelValues("stay_cooldown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheHits.WithLabelValues("l1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.providerRequests.WithLabelValues("claude", "success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordDecision("transfer", time.Millisecond)
		c.RecordCacheHit("l2")
		c.RecordCacheMiss()
		c.RecordProviderCall("gpt4", "fatal_error", time.Second)
		c.RecordParseStrategy("fallback")
	})
}
