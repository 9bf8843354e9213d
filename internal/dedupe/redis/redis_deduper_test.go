package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"ammindexer/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventID = "250:0xabc:7"

func newTestDeduper(t *testing.T, withBloom bool) (*RedisDedupe, func(time.Duration)) {
	t.Helper()

	mr, client := setupTestRedis(t)

	var bloom *Bloom
	if withBloom {
		registerBloomModule(t, mr)
		var err error
		bloom, err = NewBloom(&config.BloomConfig{Key: "test:bf"}, client)
		require.NoError(t, err)
	}

	d, err := NewRedisDeduper(newTestLogger(), &config.DedupeConfig{Prefix: "test:dedupe:", TTL: time.Hour}, client, bloom)
	require.NoError(t, err)

	return d, mr.FastForward
}

// ========== Constructor Tests ==========

func TestNewRedisDeduper(t *testing.T) {
	_, client := setupTestRedis(t)

	d, err := NewRedisDeduper(newTestLogger(), &config.DedupeConfig{TTL: time.Minute}, client, nil)
	require.NoError(t, err)
	assert.Equal(t, "dedupe:", d.prefix)
	assert.Equal(t, time.Minute, d.ttl)

	_, err = NewRedisDeduper(newTestLogger(), nil, client, nil)
	assert.Error(t, err)

	_, err = NewRedisDeduper(newTestLogger(), &config.DedupeConfig{}, nil, nil)
	assert.Error(t, err)
}

// ========== Seen Tests ==========

func TestRedisDedupe_Seen(t *testing.T) {
	for _, withBloom := range []bool{false, true} {
		d, _ := newTestDeduper(t, withBloom)
		ctx := context.Background()

		seen, err := d.Seen(ctx, eventID)
		require.NoError(t, err)
		assert.False(t, seen, "bloom=%v", withBloom)

		seen, err = d.Seen(ctx, eventID)
		require.NoError(t, err)
		assert.True(t, seen, "bloom=%v", withBloom)

		val, err := d.rdb.Get(ctx, "test:dedupe:"+eventID).Result()
		require.NoError(t, err)
		assert.Equal(t, "1", val)
	}
}

func TestRedisDedupe_BloomHitNeedsLiveMark(t *testing.T) {
	d, fastForward := newTestDeduper(t, true)
	ctx := context.Background()

	seen, err := d.Seen(ctx, eventID)
	require.NoError(t, err)
	require.False(t, seen)

	dup, err := d.bloom.Duplicate(ctx, eventID, "test:dedupe:"+eventID)
	require.NoError(t, err)
	assert.True(t, dup)

	// the filter still holds the id after the mark expires
	fastForward(time.Hour + time.Second)

	seen, err = d.Seen(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisDedupe_BloomUnavailable(t *testing.T) {
	_, client := setupTestRedis(t)
	bloom, err := NewBloom(&config.BloomConfig{Key: "test:bf"}, client)
	require.NoError(t, err)

	d, err := NewRedisDeduper(newTestLogger(), &config.DedupeConfig{TTL: time.Hour}, client, bloom)
	require.NoError(t, err)

	ctx := context.Background()

	seen, err := d.Seen(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestRedisDedupe_TTL(t *testing.T) {
	d, fastForward := newTestDeduper(t, false)
	ctx := context.Background()

	_, err := d.Seen(ctx, eventID)
	require.NoError(t, err)

	fastForward(time.Hour + time.Second)

	seen, err := d.Seen(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisDedupe_ConcurrentSameID(t *testing.T) {
	d, _ := newTestDeduper(t, false)
	ctx := context.Background()

	const workers = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			seen, err := d.Seen(ctx, eventID)
			assert.NoError(t, err)
			if !seen {
				mu.Lock()
				first++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, first)
}

// ========== Failure Tests ==========

func TestRedisDedupe_RedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	d, err := NewRedisDeduper(newTestLogger(), &config.DedupeConfig{TTL: time.Hour}, client, nil)
	require.NoError(t, err)

	mr.Close()

	seen, err := d.Seen(context.Background(), eventID)
	assert.ErrorContains(t, err, "redis SetNX")
	assert.False(t, seen)
	assert.Error(t, d.Health(context.Background()))
}

func TestRedisDedupe_CancelledContext(t *testing.T) {
	d, _ := newTestDeduper(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Seen(ctx, eventID)
	assert.Error(t, err)
}
