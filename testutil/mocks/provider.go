// Package mocks provides mock implementations for tests: a scriptable model
// provider and a fixed-answer classifier.
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/agentroute/types"
)

// MockProvider is a scriptable model provider. Responses and errors are
// consumed in order; the last script entry repeats once the script runs out.
type MockProvider struct {
	ProviderName string

	mu     sync.Mutex
	script []Result
	calls  []string
}

// Result is one scripted provider outcome.
type Result struct {
	Response string
	Err      error
}

// NewMockProvider scripts the provider with the given outcomes.
func NewMockProvider(name string, script ...Result) *MockProvider {
	return &MockProvider{ProviderName: name, script: script}
}

func (m *MockProvider) Name() string { return m.ProviderName }

// Complete records the prompt and plays the next scripted outcome.
func (m *MockProvider) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, prompt)
	if len(m.script) == 0 {
		return "", types.NewTransientProviderError(types.ErrUpstreamError, m.ProviderName, "no scripted response")
	}
	idx := len(m.calls) - 1
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	entry := m.script[idx]
	return entry.Response, entry.Err
}

// Calls returns the prompts seen so far.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Complete ran.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
