// Package kv backs the entity store with github.com/luxfi/database.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ammindexer/internal/config"
	"ammindexer/internal/stores"

	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/database/prefixdb"
)

var _ stores.KV = (*Store)(nil)

type Store struct {
	db database.Database

	mu     sync.RWMutex
	closed bool
}

// New opens the backend named by cfg: "memory" or "badger".
func New(cfg *config.EntityStoreConfig) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("entity store config is required")
	}

	var db database.Database
	switch cfg.Backend {
	case "memory":
		db = memdb.New()
	case "badger":
		var err error
		db, err = badgerdb.New(cfg.Path, nil, "", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open badgerdb: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported kv backend %q", cfg.Backend)
	}

	if cfg.Prefix != "" {
		db = prefixdb.New([]byte(cfg.Prefix), db)
	}

	return &Store{db: db}, nil
}

// NewMemory creates an in-memory store (for testing)
func NewMemory() *Store {
	return &Store{db: memdb.New()}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, stores.ErrClosed
	}

	v, err := s.db.Get([]byte(key))
	if errors.Is(err, database.ErrNotFound) {
		return nil, stores.ErrNotFound
	}
	return v, err
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return stores.ErrClosed
	}
	return s.db.Put([]byte(key), value)
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return stores.ErrClosed
	}
	return s.db.Delete([]byte(key))
}

func (s *Store) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return stores.ErrClosed
	}

	it := s.db.NewIteratorWithPrefix([]byte(prefix))
	defer it.Release()

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := string(it.Key())
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		// iterator buffers may be reused after Next
		value := append([]byte(nil), it.Value()...)
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *Store) Health(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return stores.ErrClosed
	}
	_, err := s.db.HealthCheck(ctx)
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
