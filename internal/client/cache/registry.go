package cache

import (
	"context"
	"sync"
)

// Registry tracks the single active generation.
type Registry struct {
	mu     sync.RWMutex
	active string
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Active returns the active generation name, or "" before the first
// activation.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registry) SetActive(generation string) {
	r.mu.Lock()
	r.active = generation
	r.mu.Unlock()
}

// Cache reads and writes the active generation of a Storage.
type Cache struct {
	storage  Storage
	registry *Registry
}

func New(storage Storage, registry *Registry) *Cache {
	return &Cache{storage: storage, registry: registry}
}

func (c *Cache) Put(ctx context.Context, e *Entry) error {
	gen := c.registry.Active()
	if gen == "" {
		return ErrNoActiveGeneration
	}
	return c.storage.Put(ctx, gen, e)
}

func (c *Cache) Match(ctx context.Context, requestKey string) (*Entry, error) {
	gen := c.registry.Active()
	if gen == "" {
		return nil, ErrNotFound
	}
	return c.storage.Match(ctx, gen, requestKey)
}
