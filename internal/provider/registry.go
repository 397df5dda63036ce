package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chatcore-ai/chatcore/internal/logging"
	"github.com/chatcore-ai/chatcore/pkg/types"
)

// Registry holds all configured providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get returns a provider by ID.
func (r *Registry) Get(providerID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	return p, nil
}

// List returns all providers sorted by ID.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// InitializeProviders builds a registry from configuration. A
// provider that fails to initialize is logged and skipped so one bad
// credential does not take the whole server down.
func InitializeProviders(ctx context.Context, cfg *types.Config) (*Registry, error) {
	registry := NewRegistry()

	if pc, ok := cfg.Provider["anthropic"]; ok && !pc.Disabled {
		p, err := NewAnthropicProvider(ctx, &AnthropicConfig{
			APIKey:    pc.APIKey,
			BaseURL:   pc.BaseURL,
			Model:     pc.Model,
			MaxTokens: pc.MaxTokens,
		})
		if err != nil {
			logging.Warn().Err(err).Str("provider", "anthropic").Msg("provider init failed")
		} else {
			registry.Register(p)
		}
	}

	if pc, ok := cfg.Provider["openai"]; ok && !pc.Disabled {
		p, err := NewOpenAIProvider(ctx, &OpenAIConfig{
			APIKey:    pc.APIKey,
			BaseURL:   pc.BaseURL,
			Model:     pc.Model,
			MaxTokens: pc.MaxTokens,
		})
		if err != nil {
			logging.Warn().Err(err).Str("provider", "openai").Msg("provider init failed")
		} else {
			registry.Register(p)
		}
	}

	return registry, nil
}
