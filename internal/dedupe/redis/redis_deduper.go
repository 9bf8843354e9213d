package redis

import (
	"context"
	"fmt"
	"time"

	"ammindexer/internal/config"
	"ammindexer/internal/dedupe"
	rdb "ammindexer/internal/stores/redis"

	"gitlab.com/nevasik7/alerting/logger"
)

var _ dedupe.Deduper = (*RedisDedupe)(nil)

type RedisDedupe struct {
	log    logger.Logger
	rdb    *rdb.Client
	ttl    time.Duration
	prefix string
	bloom  *Bloom // optional
}

// NewRedisDeduper shares marks across instances with SETNX + TTL.
// prefix example "ammindexer:dedupe:"
func NewRedisDeduper(log logger.Logger, cfg *config.DedupeConfig, rdb *rdb.Client, bloom *Bloom) (*RedisDedupe, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required to the redis deduper")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required to the redis deduper")
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "dedupe:"
	}

	return &RedisDedupe{
		log:    log,
		rdb:    rdb,
		ttl:    cfg.TTL,
		prefix: prefix,
		bloom:  bloom,
	}, nil
}

func (d *RedisDedupe) Seen(ctx context.Context, id string) (bool, error) {
	key := d.prefix + id

	if d.bloom != nil {
		dup, err := d.bloom.Duplicate(ctx, id, key)
		if err != nil {
			d.log.Debugf("Bloom prefilter skipped for %s: %v", id, err)
		} else if dup {
			return true, nil
		}
	}

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.log.Errorf("Redis SetNX error=%v", err)
		return false, fmt.Errorf("redis SetNX: %w", err)
	}

	seen := !ok
	if !seen && d.bloom != nil {
		if err = d.bloom.Remember(ctx, id); err != nil {
			d.log.Warnf("Failed to add bloom id %s, err=%v", id, err)
		}
	}

	return seen, nil
}

func (d *RedisDedupe) Health(ctx context.Context) error {
	return d.rdb.Health(ctx)
}
