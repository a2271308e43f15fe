package llm

import (
	"context"
	"fmt"
	"sync"
)

// Provider is a single model backend. Implementations live under
// llm/providers and translate transport failures into *types.Error so the
// retryer and the fallback chain can tell transient from fatal.
type Provider interface {
	// Name identifies the provider in logs, metrics and metadata.
	Name() string

	// Complete sends the prompt and returns the raw model text. The ctx
	// deadline bounds a single attempt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a function into a Provider, mostly for tests.
type ProviderFunc struct {
	ProviderName string
	Fn           func(ctx context.Context, prompt string) (string, error)
}

func (p ProviderFunc) Name() string { return p.ProviderName }

func (p ProviderFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return p.Fn(ctx, prompt)
}

// Registry maps provider names to instances. Registration is typically done
// once at startup; lookups happen on every request.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces a provider under its own name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the named provider.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Resolve checks that every name in order is registered, returning the
// providers in chain order.
func (r *Registry) Resolve(order []string) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := make([]Provider, 0, len(order))
	for _, name := range order {
		p, ok := r.providers[name]
		if !ok {
			return nil, fmt.Errorf("provider %q not registered", name)
		}
		chain = append(chain, p)
	}
	return chain, nil
}
