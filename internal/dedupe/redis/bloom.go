package redis

import (
	"context"
	"errors"
	"fmt"

	"ammindexer/internal/config"
	rdb "ammindexer/internal/stores/redis"
)

// Bloom is a RedisBloom filter of event ids kept next to the SETNX marks.
// A filter hit is only probable and outlives the mark's TTL, so Duplicate
// confirms it against the mark key. Needs the BF.* commands.
type Bloom struct {
	rdb      *rdb.Client
	Key      string
	Capacity int64
	ErrRate  float64
}

func NewBloom(cfg *config.BloomConfig, rdb *rdb.Client) (*Bloom, error) {
	if cfg == nil {
		return nil, errors.New("bloom config is required to the bloom")
	}
	if rdb == nil {
		return nil, errors.New("redis client is required to the bloom")
	}

	b := &Bloom{
		rdb:      rdb,
		Key:      cfg.Key,
		Capacity: cfg.Capacity,
		ErrRate:  cfg.ErrRate,
	}
	if b.Key == "" {
		b.Key = "ammindexer:dedupe:bf"
	}
	if b.Capacity <= 0 {
		b.Capacity = 1_000_000
	}
	if b.ErrRate <= 0 {
		b.ErrRate = 0.001
	}

	return b, nil
}

// Ensure reserves the filter unless its key already exists.
func (b *Bloom) Ensure(ctx context.Context) error {
	n, err := b.rdb.Exists(ctx, b.Key).Result()
	if err != nil {
		return fmt.Errorf("bloom key %s exists: %w", b.Key, err)
	}
	if n > 0 {
		return nil
	}

	if err = b.rdb.Do(ctx, "BF.RESERVE", b.Key, b.ErrRate, b.Capacity).Err(); err != nil {
		return fmt.Errorf("BF.RESERVE %s: %w", b.Key, err)
	}
	return nil
}

// Duplicate reports whether id is a confirmed duplicate: the filter probably
// holds it and markKey is still set. A miss costs one round trip and no write.
func (b *Bloom) Duplicate(ctx context.Context, id, markKey string) (bool, error) {
	hit, err := b.cmdBool(ctx, "BF.EXISTS", id)
	if err != nil || !hit {
		return false, err
	}

	n, err := b.rdb.Exists(ctx, markKey).Result()
	if err != nil {
		return false, fmt.Errorf("confirm mark %s: %w", markKey, err)
	}
	return n > 0, nil
}

// Remember adds id once its mark is written.
func (b *Bloom) Remember(ctx context.Context, id string) error {
	_, err := b.cmdBool(ctx, "BF.ADD", id)
	return err
}

func (b *Bloom) cmdBool(ctx context.Context, cmd, id string) (bool, error) {
	v, err := b.rdb.Do(ctx, cmd, b.Key, id).Int()
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", cmd, b.Key, err)
	}
	return v == 1, nil
}
