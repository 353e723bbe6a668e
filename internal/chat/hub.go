package chat

import (
	"context"
	"sync"
)

// Hub serves many identities from one process. Each identity gets its own
// activated Controller, created on first use.
type Hub struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	factory     func() *Controller
}

func NewHub(factory func() *Controller) *Hub {
	return &Hub{
		controllers: make(map[string]*Controller),
		factory:     factory,
	}
}

// For returns the controller bound to identity, loading its registry if this
// is the first request for it. A failed load is returned and nothing is
// cached.
func (h *Hub) For(ctx context.Context, identity string) (*Controller, error) {
	if identity == "" {
		return nil, ErrNoIdentity
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.controllers[identity]; ok {
		return c, nil
	}
	c := h.factory()
	if err := c.Activate(ctx, identity); err != nil {
		// not cached: the next request retries the load
		return nil, err
	}
	h.controllers[identity] = c
	return c, nil
}

// SignOut drops the in-memory registry of identity. Persisted sessions stay.
func (h *Hub) SignOut(identity string) {
	h.mu.Lock()
	c, ok := h.controllers[identity]
	delete(h.controllers, identity)
	h.mu.Unlock()

	if ok {
		c.SignOut()
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.controllers)
}
