// Package template implements template storage, variable discovery, and
// substitution through a registry of variable providers.
package template

import (
	"context"
	"sync"
	"time"

	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/store"
)

// RenderContext carries everything a variable provider may read. It is
// assembled once per render by the orchestrator.
type RenderContext struct {
	Ctx context.Context

	Business     *models.Business
	User         *models.User
	Conversation *models.Conversation
	CurrentStage *models.Stage
	Stages       []models.Stage

	// Messages holds the recent history, oldest first.
	Messages []models.Message

	// UserMessage is the message currently being processed.
	UserMessage string

	// Fields lists the field names an extraction prompt wants extracted.
	Fields []string

	AgentType string

	// Extra maps extracted field names to values for response generation.
	// Extra entries shadow registered providers.
	Extra map[string]string

	Store *store.Store

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (rc *RenderContext) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}

// Provider computes a variable's value from the render context.
type Provider func(rc *RenderContext) (string, error)

// Registry is the process-wide table of variable providers. It is seeded
// with the built-ins at startup and read-mostly afterwards.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry seeded with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	registerBuiltins(r)
	return r
}

// Register adds a provider. A duplicate name replaces the prior
// registration.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Lookup returns the provider for a name.
func (r *Registry) Lookup(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered variable names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
