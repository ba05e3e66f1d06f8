package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live connections by an opaque id. Safe for
// concurrent use; Snapshot hands back a stable slice so a broadcast
// can iterate while registers and unregisters keep arriving.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*client
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*client)}
}

// Register adds c and returns its connection id. An id assigned
// before registration (HandleWS sets one ahead of the reader pump) is
// kept; otherwise a fresh one is generated.
func (r *Registry) Register(c *client) string {
	r.mu.Lock()
	if c.id == "" {
		c.id = uuid.NewString()
	}
	r.conns[c.id] = c
	r.mu.Unlock()
	return c.id
}

// Contains reports whether the connection is still registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

// Unregister removes the connection and returns it, or nil if the id
// was already absent. Removing an absent id is a no-op.
func (r *Registry) Unregister(id string) *client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return nil
	}
	delete(r.conns, id)
	return c
}

// Snapshot returns the current connections as a fresh slice.
func (r *Registry) Snapshot() []*client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*client, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
