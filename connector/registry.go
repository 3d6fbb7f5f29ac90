package connector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/relq-dev/relq/database"
)

// DefaultPoolName is the logical name looked up when a table does not pin a
// pool of its own.
const DefaultPoolName = "default"

// ErrNoPool is the configuration error for a lookup against a name that was
// never registered.
var ErrNoPool = errors.New("no pool registered")

// Registry maps logical pool names to pool handles. It is owned by the
// hosting application: build one at startup, Register the pools it should
// route to, pass it by reference to query.New, and Close it on shutdown.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]database.Pool
}

func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]database.Pool)}
}

// Register binds name to pool, replacing any previous binding.
func (r *Registry) Register(name string, pool database.Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[name] = pool
}

// SetDefault registers pool under DefaultPoolName.
func (r *Registry) SetDefault(pool database.Pool) {
	r.Register(DefaultPoolName, pool)
}

// Lookup resolves a logical pool name.
func (r *Registry) Lookup(name string) (database.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.pools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoPool, name)
	}
	return pool, nil
}

// Default resolves the default pool.
func (r *Registry) Default() (database.Pool, error) {
	pool, err := r.Lookup(DefaultPoolName)
	if err != nil {
		return nil, fmt.Errorf("%w (call SetDefault first)", ErrNoPool)
	}
	return pool, nil
}

// Close closes every registered pool and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, pool := range r.pools {
		pool.Close()
		delete(r.pools, name)
	}
}
