package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lomeet/relay/internal/core"
	"github.com/lomeet/relay/internal/domain"
)

// Registry maps live connection ids to their signaling transport.
// The adapter owns the connection resources; the registry only routes.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]core.SignalConnection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]core.SignalConnection)}
}

func (r *Registry) Bind(id domain.ConnID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = conn
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("bound connection")
}

func (r *Registry) Unbind(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbound connection")
}

func (r *Registry) Get(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
