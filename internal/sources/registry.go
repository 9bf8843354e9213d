// Package sources tracks which pool contracts the indexer consumes events from.
package sources

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ammindexer/internal/domain"
	"ammindexer/internal/stores"
)

const keyPrefix = "source:"

// Registry is the set of registered pools. Registrations are persisted so a
// restart resumes routing the same pools.
type Registry struct {
	kv stores.KV

	mu    sync.RWMutex
	known map[string]struct{}
}

func New(kv stores.KV) *Registry {
	return &Registry{
		kv:    kv,
		known: make(map[string]struct{}),
	}
}

// Load restores every persisted registration.
func (r *Registry) Load(ctx context.Context) (int, error) {
	loaded := make(map[string]struct{})
	err := r.kv.Scan(ctx, keyPrefix, func(key string, _ []byte) error {
		loaded[strings.TrimPrefix(key, keyPrefix)] = struct{}{}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load sources: %w", err)
	}

	r.mu.Lock()
	for addr := range loaded {
		r.known[addr] = struct{}{}
	}
	n := len(r.known)
	r.mu.Unlock()

	return n, nil
}

// Register is idempotent.
func (r *Registry) Register(ctx context.Context, address string) error {
	addr := domain.NormalizeAddress(address)
	if r.Has(addr) {
		return nil
	}

	if err := r.kv.Put(ctx, keyPrefix+addr, []byte{1}); err != nil {
		return fmt.Errorf("register source %s: %w", addr, err)
	}

	r.mu.Lock()
	r.known[addr] = struct{}{}
	r.mu.Unlock()

	return nil
}

func (r *Registry) Has(address string) bool {
	r.mu.RLock()
	_, ok := r.known[strings.ToLower(address)]
	r.mu.RUnlock()
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.known)
}
