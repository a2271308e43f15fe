package types

import (
	"strings"
	"time"
)

// Task is one unit of conversational work. It is constructed by the caller
// per inbound message, is immutable once built, and is consumed exactly once
// by the router.
type Task struct {
	// ContactID identifies the end user. It is the unit of isolation for all
	// cooldown and rate-limit bookkeeping.
	ContactID string `json:"contact_id"`

	// Content is the free-text input to be classified and answered.
	Content string `json:"content"`

	// CurrentAgent owns the task at the time of routing.
	CurrentAgent AgentType `json:"current_agent"`

	// Confidence in [0,1] is the pre-computed belief that CurrentAgent is
	// NOT the best owner. Produced by an external classifier and treated as
	// an opaque score here. The supplied value is authoritative, an explicit
	// zero included, unless InferConfidence is set.
	Confidence float64 `json:"confidence"`

	// InferConfidence asks the router to discard Confidence and use the
	// injected classifier's own score instead. Callers that pre-compute
	// confidence leave this unset.
	InferConfidence bool `json:"infer_confidence,omitempty"`
}

// Validate checks the boundary constraints on the task. It returns a
// *Error with code VALIDATION on the first violation found.
func (t Task) Validate() error {
	if strings.TrimSpace(t.ContactID) == "" {
		return NewError(ErrValidation, "contact id must not be empty")
	}
	if !t.CurrentAgent.Valid() {
		return NewError(ErrValidation, "unknown agent tag: "+string(t.CurrentAgent))
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return NewError(ErrValidation, "confidence must be in [0,1]")
	}
	return nil
}

// HandoffRecord is one transfer event. Records are written only for
// transfers that actually occur, never for stay decisions, and are pruned
// once older than the longest lookback window.
type HandoffRecord struct {
	ID          string    `json:"id"`
	ContactID   string    `json:"contact_id"`
	SourceAgent AgentType `json:"source_agent"`
	TargetAgent AgentType `json:"target_agent"`
	Timestamp   time.Time `json:"timestamp"`
}

// CooldownKey is the directed (contact, source, target) triple guarding
// same-direction thrashing. The reverse direction has a distinct key.
type CooldownKey struct {
	ContactID   string    `json:"contact_id"`
	SourceAgent AgentType `json:"source_agent"`
	TargetAgent AgentType `json:"target_agent"`
}

// Key returns a stable string form usable as a store key.
func (k CooldownKey) Key() string {
	return k.ContactID + "|" + string(k.SourceAgent) + "->" + string(k.TargetAgent)
}

// Reverse returns the opposite direction key for the same contact.
func (k CooldownKey) Reverse() CooldownKey {
	return CooldownKey{ContactID: k.ContactID, SourceAgent: k.TargetAgent, TargetAgent: k.SourceAgent}
}
