package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ammindexer/internal/stores"

	goredis "github.com/redis/go-redis/v9"
)

var _ stores.KV = (*KV)(nil)

// KV keeps entities as plain string values under a shared prefix.
type KV struct {
	rdb    *Client
	prefix string
}

// NewKV wraps rdb; prefix example "ammindexer:"
func NewKV(rdb *Client, prefix string) (*KV, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required to the kv store")
	}
	return &KV{rdb: rdb, prefix: prefix}, nil
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := k.rdb.Get(ctx, k.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, stores.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return v, nil
}

func (k *KV) Put(ctx context.Context, key string, value []byte) error {
	if err := k.rdb.Set(ctx, k.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.rdb.Del(ctx, k.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", key, err)
	}
	return nil
}

func (k *KV) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	iter := k.rdb.Scan(ctx, 0, k.prefix+prefix+"*", 512).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		v, err := k.rdb.Get(ctx, full).Bytes()
		if errors.Is(err, goredis.Nil) {
			continue // deleted between SCAN and GET
		}
		if err != nil {
			return fmt.Errorf("redis GET %s: %w", full, err)
		}
		if err = fn(strings.TrimPrefix(full, k.prefix), v); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (k *KV) Health(ctx context.Context) error {
	return k.rdb.Health(ctx)
}

// Close is a no-op: the client is shared with dedupe and closed by wiring.
func (k *KV) Close() error {
	return nil
}
