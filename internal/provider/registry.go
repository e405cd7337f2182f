package provider

import (
	"fmt"
	"sync"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

// Registry maps provider types to their client implementations.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.ProviderType]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[domain.ProviderType]Provider)}
}

// Register binds a provider implementation to a provider type. Later
// registrations replace earlier ones.
func (r *Registry) Register(providerType domain.ProviderType, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[providerType] = p
}

// Get resolves the client for an integration's provider type.
func (r *Registry) Get(providerType domain.ProviderType) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[providerType]
	if !ok {
		return nil, fmt.Errorf("no provider registered for type %q", providerType)
	}
	return p, nil
}
