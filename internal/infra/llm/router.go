// Provider router. Selects a StreamProvider at request time so additional
// backends (a local runtime, a paid tier) can be registered without touching
// the chat pipeline. Current routing rule: pass-through to the default.
package llm

import (
	"context"
	"fmt"
)

// Router selects a StreamProvider for each request.
type Router struct {
	providers       map[string]StreamProvider
	defaultProvider string
}

// NewRouter creates a Router with an initial set of providers and a default key.
func NewRouter(providers map[string]StreamProvider, defaultProvider string) *Router {
	// defensive copy so the caller cannot mutate the internal map
	ps := make(map[string]StreamProvider, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{providers: ps, defaultProvider: defaultProvider}
}

// Register adds (or replaces) a provider under the given key.
func (r *Router) Register(key string, p StreamProvider) {
	r.providers[key] = p
}

// Route returns the provider for the current request. Always the default
// provider for now; returns an error if it is not registered.
func (r *Router) Route(_ context.Context) (StreamProvider, error) {
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return nil, fmt.Errorf("llm router: provider %q not registered (available: %v)", r.defaultProvider, r.keys())
	}
	return p, nil
}

func (r *Router) keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	return out
}
