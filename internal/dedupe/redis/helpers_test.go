package redis

import (
	"sync"
	"testing"

	rdb "ammindexer/internal/stores/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/alicebob/miniredis/v2/server"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"
)

func newTestLogger() logger.Logger {
	return logger.New(loggerCfg.LoggerCfg{Level: "error", Format: "json"})
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *rdb.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := &rdb.Client{
		Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
	}
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

// registerBloomModule serves BF.RESERVE, BF.ADD and BF.EXISTS from exact sets,
// standing in for the RedisBloom module miniredis lacks.
func registerBloomModule(t *testing.T, mr *miniredis.Miniredis) {
	t.Helper()

	var (
		mu      sync.Mutex
		filters = map[string]map[string]struct{}{}
	)

	require.NoError(t, mr.Server().Register("BF.RESERVE", func(c *server.Peer, _ string, args []string) {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := filters[args[0]]; ok {
			c.WriteError("ERR item exists")
			return
		}
		filters[args[0]] = map[string]struct{}{}
		c.WriteOK()
	}))

	require.NoError(t, mr.Server().Register("BF.ADD", func(c *server.Peer, _ string, args []string) {
		mu.Lock()
		defer mu.Unlock()
		f, ok := filters[args[0]]
		if !ok {
			f = map[string]struct{}{}
			filters[args[0]] = f
		}
		if _, ok = f[args[1]]; ok {
			c.WriteInt(0)
			return
		}
		f[args[1]] = struct{}{}
		c.WriteInt(1)
	}))

	require.NoError(t, mr.Server().Register("BF.EXISTS", func(c *server.Peer, _ string, args []string) {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := filters[args[0]][args[1]]; ok {
			c.WriteInt(1)
			return
		}
		c.WriteInt(0)
	}))
}
