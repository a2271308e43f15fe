package types

import "fmt"

// AgentType identifies a specialized agent that can own a conversational task.
type AgentType string

const (
	AgentLead    AgentType = "lead"
	AgentBuyer   AgentType = "buyer"
	AgentSeller  AgentType = "seller"
	AgentSupport AgentType = "support"
)

// KnownAgents lists every agent tag the router accepts.
func KnownAgents() []AgentType {
	return []AgentType{AgentLead, AgentBuyer, AgentSeller, AgentSupport}
}

// Valid reports whether the tag is one of the known agents.
func (a AgentType) Valid() bool {
	switch a {
	case AgentLead, AgentBuyer, AgentSeller, AgentSupport:
		return true
	}
	return false
}

func (a AgentType) String() string { return string(a) }

// ParseAgentType converts a raw tag into an AgentType, rejecting unknown values.
func ParseAgentType(s string) (AgentType, error) {
	a := AgentType(s)
	if !a.Valid() {
		return "", NewError(ErrValidation, fmt.Sprintf("unknown agent tag: %q", s))
	}
	return a, nil
}
