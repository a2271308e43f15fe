package routing

import (
	"time"

	"github.com/BaSui01/agentroute/config"
	"github.com/BaSui01/agentroute/types"
)

// ThresholdPolicy computes the confidence bar a transfer must clear. With
// adaptation disabled it is the configured constant. With adaptation
// enabled the bar rises for contacts that have been bouncing between the
// same two agents, damping ping-pong without blocking transfers outright.
type ThresholdPolicy struct {
	base     float64
	adaptive config.AdaptiveConfig
}

func NewThresholdPolicy(cfg config.RoutingConfig) *ThresholdPolicy {
	return &ThresholdPolicy{base: cfg.ConfidenceThreshold, adaptive: cfg.Adaptive}
}

// Threshold returns the effective bar given the contact's recent history,
// oldest first.
func (p *ThresholdPolicy) Threshold(now time.Time, history []types.HandoffRecord) float64 {
	if !p.adaptive.Enabled {
		return p.base
	}

	cutoff := now.Add(-p.adaptive.ReversalWindow)
	reversals := 0
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(cutoff) {
			continue
		}
		prev, cur := history[i-1], history[i]
		if cur.SourceAgent == prev.TargetAgent && cur.TargetAgent == prev.SourceAgent {
			reversals++
		}
	}

	threshold := p.base + float64(reversals)*p.adaptive.Step
	if threshold > p.adaptive.MaxThreshold {
		threshold = p.adaptive.MaxThreshold
	}
	return threshold
}
