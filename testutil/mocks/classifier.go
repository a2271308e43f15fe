package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/agentroute/types"
)

// MockClassifier returns a fixed proposal and records what it was asked.
type MockClassifier struct {
	Target     types.AgentType
	Confidence float64
	Err        error

	mu       sync.Mutex
	contents []string
}

func (m *MockClassifier) Classify(_ context.Context, content string) (types.AgentType, float64, error) {
	m.mu.Lock()
	m.contents = append(m.contents, content)
	m.mu.Unlock()
	return m.Target, m.Confidence, m.Err
}

// Contents returns the classified inputs in order.
func (m *MockClassifier) Contents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.contents))
	copy(out, m.contents)
	return out
}
