// Package stores defines the key-value contract the entity store runs on.
package stores

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrClosed   = errors.New("store closed")
)

// KV is a flat byte store. Writes are visible to the next read once Put returns.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error) // ErrNotFound when absent
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Scan visits every key with the given prefix.
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error
	Health(ctx context.Context) error
	Close() error
}
