package sources

import (
	"context"
	"errors"
	"testing"

	"ammindexer/internal/stores"
	"ammindexer/internal/stores/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pool = "0x2b4c76d0dc16be1c31d4c1dc53bf9b45987fc75c"

type failingKV struct {
	stores.KV
}

func (failingKV) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

// ========== Register Tests ==========

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()
	r := New(kv.NewMemory())

	assert.False(t, r.Has(pool))
	require.NoError(t, r.Register(ctx, "0x2B4C76D0dc16Be1C31D4C1DC53bF9B45987Fc75c"))
	require.NoError(t, r.Register(ctx, pool))

	assert.True(t, r.Has(pool))
	assert.True(t, r.Has("0x2B4C76D0DC16BE1C31D4C1DC53BF9B45987FC75C"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RegisterFailure(t *testing.T) {
	r := New(failingKV{KV: kv.NewMemory()})

	err := r.Register(context.Background(), pool)
	assert.Error(t, err)
	assert.False(t, r.Has(pool))
}

// ========== Load Tests ==========

func TestRegistry_LoadRestores(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	require.NoError(t, New(store).Register(ctx, pool))
	require.NoError(t, store.Put(ctx, "pair:"+pool, []byte("{}")))

	restored := New(store)
	n, err := restored.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, restored.Has(pool))
}
