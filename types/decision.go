package types

import "time"

// DecisionReason is the first-class reason code attached to every routing
// decision. Stay reasons are policy outcomes, not errors; callers and
// telemetry use them to distinguish "nothing to do" from a malfunction.
type DecisionReason string

const (
	ReasonTransfer      DecisionReason = "transfer"
	ReasonSameAgent     DecisionReason = "stay_same_agent"
	ReasonLowConfidence DecisionReason = "stay_low_confidence"
	ReasonCooldown      DecisionReason = "stay_cooldown"
	ReasonRateLimited   DecisionReason = "stay_rate_limited"
)

// HandoffDecision is the router's answer for one task.
type HandoffDecision struct {
	// Transfer is true when ownership moves to TargetAgent.
	Transfer bool `json:"transfer"`

	// TargetAgent is the agent that owns the task after this decision.
	// On a stay decision it equals the task's current agent.
	TargetAgent AgentType `json:"target_agent"`

	// Reason explains the decision.
	Reason DecisionReason `json:"reason"`

	// Confidence is the classifier score the decision was based on.
	Confidence float64 `json:"confidence"`

	// DecidedAt is the evaluation time of the decision.
	DecidedAt time.Time `json:"decided_at"`
}

// Stay builds a stay decision with the given reason.
func Stay(current AgentType, reason DecisionReason, confidence float64) HandoffDecision {
	return HandoffDecision{
		Transfer:    false,
		TargetAgent: current,
		Reason:      reason,
		Confidence:  confidence,
		DecidedAt:   time.Now(),
	}
}

// Transfer builds a transfer decision to the target agent.
func Transfer(target AgentType, confidence float64) HandoffDecision {
	return HandoffDecision{
		Transfer:    true,
		TargetAgent: target,
		Reason:      ReasonTransfer,
		Confidence:  confidence,
		DecidedAt:   time.Now(),
	}
}
