package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	apihttp "ammindexer/internal/api/http"
	"ammindexer/internal/chain"
	"ammindexer/internal/config"
	"ammindexer/internal/dedupe"
	rdbdedupe "ammindexer/internal/dedupe/redis"
	"ammindexer/internal/mapping"
	"ammindexer/internal/metrics"
	"ammindexer/internal/pricing"
	"ammindexer/internal/pubsub/nats"
	"ammindexer/internal/repo"
	"ammindexer/internal/service"
	"ammindexer/internal/sources"
	"ammindexer/internal/stores"
	"ammindexer/internal/stores/clickhouse"
	"ammindexer/internal/stores/kv"
	"ammindexer/internal/stores/redis"
	"ammindexer/internal/tokens"

	"github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	lgcfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"
)

type Container struct {
	app *App
	log logger.Logger
	cfg *config.Config

	// infra
	redis    *redis.Client
	entityKV stores.KV
	ch       *clickhouse.Conn
	chWriter *clickhouse.Writer
	nc       *nats.Client
	rpc      *chain.Client
	deduper  dedupe.Deduper
	entities *repo.Repository
	sources  *sources.Registry

	indexer *service.IndexerService
	httpSrv *apihttp.Server

	profiler *pyroscope.Profiler
}

func (c *Container) Start() error {
	return c.app.Start(context.Background())
}

func (c *Container) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.App.ShutdownTimeout)
	defer cancel()

	if err := c.app.Shutdown(ctx); err != nil {
		return fmt.Errorf("app shutdown is failed, error=%w", err)
	}
	return nil
}

// Build constructs the whole object graph. The returned cleanup releases
// every opened resource and is safe to call after a failed Start.
func Build(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	lg := logger.New(lgcfg.LoggerCfg{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	lg.Info("Successfully initialize logger")

	c := &Container{log: lg, cfg: cfg}
	cleanup := c.cleanup

	fail := func(format string, err error) (*Container, func(), error) {
		cleanup()
		return nil, func() {}, fmt.Errorf(format, err)
	}

	var err error

	c.profiler, err = metrics.InitPProf(&metrics.PProfConfig{
		Enabled:       cfg.Metrics.Pyroscope.Enabled,
		AppInstanceID: cfg.App.InstanceID,
		AppName:       cfg.Metrics.Pyroscope.AppName,
		ServerAddr:    cfg.Metrics.Pyroscope.ServerAddr,
		AuthToken:     cfg.Metrics.Pyroscope.AuthToken,
		Tags:          cfg.Metrics.Pyroscope.Tags,
		ChainID:       cfg.Chain.ChainID,
		MutexFraction: cfg.Metrics.Pyroscope.MutexProfileFraction,
		BlockRate:     cfg.Metrics.Pyroscope.BlockProfileRate,
	})
	if err != nil {
		return fail("pyroscope initialize failed: %w", err)
	}
	if c.profiler != nil {
		lg.Infof("Successfully initialize Pyroscope to %s as %s", cfg.Metrics.Pyroscope.ServerAddr, cfg.Metrics.Pyroscope.AppName)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mtr := metrics.New(reg)

	// Redis client, only when a component needs it
	if cfg.Stores.Entity.Backend == "redis" || cfg.Dedupe.Backend == "redis" {
		if c.redis, err = redis.New(ctx, lg, &cfg.Stores.Redis); err != nil {
			return fail("failed to initialize redis client: %w", err)
		}
	}

	// Entity store
	if c.entityKV, err = newEntityKV(cfg, c.redis); err != nil {
		return fail("failed to initialize entity store: %w", err)
	}
	lg.Infof("Successfully initialize entity store, backend=%s", cfg.Stores.Entity.Backend)

	entities := repo.New(c.entityKV)
	c.entities = entities

	// Dedupe
	if c.deduper, err = newDeduper(ctx, lg, cfg, c.redis); err != nil {
		return fail("failed to initialize deduper: %w", err)
	}
	lg.Infof("Successfully initialize Deduper, backend=%s", cfg.Dedupe.Backend)

	// Chain RPC
	if c.rpc, err = chain.Dial(ctx, lg, &cfg.Chain, mtr); err != nil {
		return fail("failed to initialize chain client: %w", err)
	}
	lg.Infof("Successfully initialize chain client, url=%s", cfg.Chain.RPCURL)

	registry := tokens.NewRegistry(entities,
		tokens.NewStaticResolver(tokens.StaticDefinitionsFromConfig(&cfg.Tokens)),
		tokens.NewAccessorResolver(lg, c.rpc),
		tokens.FallbackResolver{},
	)

	params, err := pricing.ParamsFromConfig(&cfg.Pricing)
	if err != nil {
		return fail("invalid pricing config: %w", err)
	}
	oracle := pricing.NewOracle(lg, entities, chain.NewFactoryAccessor(c.rpc, cfg.Chain.FactoryAddress), params)
	lg.Infof("Successfully initialize price oracle, anchors=%d whitelist=%d", len(params.Anchors), len(params.Whitelist))

	// Pool sources
	srcs := sources.New(c.entityKV)
	c.sources = srcs
	n, err := srcs.Load(ctx)
	if err != nil {
		return fail("failed to load sources: %w", err)
	}
	lg.Infof("Successfully restored %d pool sources", n)

	// ClickHouse history sink
	var recorder mapping.Recorder = mapping.NoopRecorder{}
	if cfg.Stores.ClickHouse.Enabled {
		if c.ch, err = clickhouse.New(ctx, &cfg.Stores.ClickHouse); err != nil {
			return fail("failed to initialize clickhouse client: %w", err)
		}
		if err = c.ch.Migrate(ctx); err != nil {
			return fail("failed to migrate clickhouse: %w", err)
		}
		url := strings.Split(cfg.Stores.ClickHouse.DSN, "?")
		lg.Infof("Successfully initialize clickhouse client, url=%s", url[0])

		c.chWriter = clickhouse.NewWriter(lg, c.ch, cfg.Stores.ClickHouse.Writer, mtr)
		recorder = c.chWriter
		lg.Info("Successfully initialize clickhouse writer")
	}

	handlers := mapping.New(mapping.Deps{
		Log:            lg,
		Repo:           entities,
		Tokens:         registry,
		Oracle:         oracle,
		Pools:          c.rpc,
		Sources:        srcs,
		Recorder:       recorder,
		FactoryAddress: cfg.Chain.FactoryAddress,
	})

	// NATS
	if c.nc, err = nats.Connect(lg, &cfg.PubSub.NATS); err != nil {
		return fail("failed to initialize nats client: %w", err)
	}

	deps := []service.Dependency{
		{Name: "entity store", Checker: c.entityKV},
		{Name: "dedupe", Checker: c.deduper},
		{Name: "nats", Checker: c.nc},
	}
	if c.ch != nil {
		deps = append(deps, service.Dependency{Name: "clickhouse", Checker: c.ch})
	}

	c.indexer = service.NewIndexerService(service.Deps{
		Log:          lg,
		Decoder:      chain.NewDecoder(cfg.Chain.ChainID, cfg.Chain.FactoryAddress, srcs),
		Handler:      handlers,
		Deduper:      c.deduper,
		Subscriber:   c.nc,
		Observer:     mtr,
		Subject:      cfg.Ingest.Subject,
		Dependencies: deps,
	})
	lg.Info("Successfully initialize indexer service")

	c.httpSrv = apihttp.NewServer(&apihttp.ServerDeps{
		Logger:  lg,
		Cfg:     &cfg.API.HTTP,
		Checker: c.indexer,
		Metrics: metrics.HandlerFor(reg),
	})
	lg.Info("Successfully initialize HTTP server")

	c.app = New(lg, c.httpSrv, c.indexer)

	lg.Info("Successfully initialize Wiring")
	return c, cleanup, nil
}

func newEntityKV(cfg *config.Config, rdb *redis.Client) (stores.KV, error) {
	if cfg.Stores.Entity.Backend == "redis" {
		return redis.NewKV(rdb, cfg.Stores.Entity.Prefix)
	}
	return kv.New(&cfg.Stores.Entity)
}

func newDeduper(ctx context.Context, lg logger.Logger, cfg *config.Config, rdb *redis.Client) (dedupe.Deduper, error) {
	if cfg.Dedupe.Backend != "redis" {
		return dedupe.NewInMemoryDedupe(lg, cfg.Dedupe.TTL, time.Minute), nil
	}

	var bloom *rdbdedupe.Bloom
	if cfg.Dedupe.Bloom.Enabled {
		var err error
		if bloom, err = rdbdedupe.NewBloom(&cfg.Dedupe.Bloom, rdb); err != nil {
			return nil, err
		}
		if err = bloom.Ensure(ctx); err != nil {
			return nil, err
		}
		lg.Infof("Successfully initialize Bloom by key=%s, cap=%d, errRate=%f", bloom.Key, bloom.Capacity, bloom.ErrRate)
	}

	return rdbdedupe.NewRedisDeduper(lg, &cfg.Dedupe, rdb, bloom)
}

// cleanup closes in reverse dependency order; the writer flushes before
// ClickHouse closes and the entity store closes last.
func (c *Container) cleanup() {
	lg := c.log
	ctxClean, cancel := context.WithTimeout(context.Background(), c.cfg.App.ShutdownTimeout)
	defer cancel()

	if c.nc != nil {
		if err := c.nc.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF nats client: %v", err)
		}
	}

	if c.chWriter != nil {
		if err := c.chWriter.Close(ctxClean); err != nil {
			lg.Errorf("Failed to close by cleanupF clickhouse writer: %v", err)
		}
	}

	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF clickhouse client: %v", err)
		}
	}

	if c.rpc != nil {
		c.rpc.Close()
	}

	if m, ok := c.deduper.(*dedupe.MemoryDedupe); ok {
		m.Close()
	}

	if c.entityKV != nil {
		if err := c.entityKV.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF entity store: %v", err)
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			lg.Errorf("Failed to close by cleanupF redis client: %v", err)
		}
	}

	if c.profiler != nil {
		if err := c.profiler.Stop(); err != nil {
			lg.Errorf("Failed to stop profiler: %v", err)
		}
	}

	lg.Info("Successfully cleaned up dependency")
}
