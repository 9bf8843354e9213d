package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App     AppConfig     `yaml:"app"`
	Logging LoggingConfig `yaml:"logging"`
	Chain   ChainConfig   `yaml:"chain"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Dedupe  DedupeConfig  `yaml:"dedupe"`
	Stores  StoresConfig  `yaml:"stores"`
	PubSub  PubSubConfig  `yaml:"pubsub"`
	Pricing PricingConfig `yaml:"pricing"`
	Tokens  TokensConfig  `yaml:"tokens"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type AppConfig struct {
	InstanceID      string        `yaml:"instance_id"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type ChainConfig struct {
	ChainID        uint32        `yaml:"chain_id"`
	RPCURL         string        `yaml:"rpc_url" validate:"required,url"`
	FactoryAddress string        `yaml:"factory_address" validate:"required,eth_addr"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
	MaxRetries     int           `yaml:"max_retries" validate:"gte=0"`
	RateLimit      struct {
		RequestsPerSec float64 `yaml:"requests_per_sec" validate:"gte=0"`
		Burst          int     `yaml:"burst" validate:"gte=0"`
	} `yaml:"rate_limit"`
	HTTP struct {
		RetryMax        int           `yaml:"retry_max"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
	} `yaml:"http"`
}

// IngestConfig names the subject one indexer instance consumes. Events are
// applied strictly in order by a single consumer, so queue groups are refused.
type IngestConfig struct {
	Subject    string `yaml:"subject" validate:"required"`
	QueueGroup string `yaml:"queue_group"`
}

type BloomConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Key      string  `yaml:"key"`
	Capacity int64   `yaml:"capacity"`
	ErrRate  float64 `yaml:"err_rate"`
}

type DedupeConfig struct {
	Backend string        `yaml:"backend" validate:"omitempty,oneof=memory redis"`
	TTL     time.Duration `yaml:"ttl"`
	Prefix  string        `yaml:"prefix"`
	Bloom   BloomConfig   `yaml:"bloom"`
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Prefix       string        `yaml:"prefix"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type ClickHouseWriterConfig struct {
	BatchMaxRows     int           `yaml:"batch_max_rows"`
	BatchMaxInterval time.Duration `yaml:"batch_max_interval"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
}

type ClickHouseConfig struct {
	Enabled bool                   `yaml:"enabled"`
	DSN     string                 `yaml:"dsn" validate:"required_if=Enabled true"`
	Writer  ClickHouseWriterConfig `yaml:"writer"`
}

// EntityStoreConfig selects where the aggregate model lives.
type EntityStoreConfig struct {
	Backend string `yaml:"backend" validate:"required,oneof=memory badger redis"`
	Path    string `yaml:"path" validate:"required_if=Backend badger"`
	Prefix  string `yaml:"prefix"`
}

type StoresConfig struct {
	Entity     EntityStoreConfig `yaml:"entity"`
	Redis      RedisConfig       `yaml:"redis"`
	ClickHouse ClickHouseConfig  `yaml:"clickhouse"`
}

type NATSConfig struct {
	URL  string `yaml:"url" validate:"required"`
	Name string `yaml:"name"`
}

type PubSubConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

type AnchorConfig struct {
	Pair           string `yaml:"pair" validate:"eth_addr"`
	StableIsToken0 bool   `yaml:"stable_is_token0"`
}

type PricingConfig struct {
	NativeToken           string         `yaml:"native_token" validate:"omitempty,eth_addr"`
	Anchors               []AnchorConfig `yaml:"anchors" validate:"max=3,dive"`
	Whitelist             []string       `yaml:"whitelist" validate:"dive,eth_addr"`
	UntrackedPairs        []string       `yaml:"untracked_pairs" validate:"dive,eth_addr"`
	MinLiquidityNative    string         `yaml:"min_liquidity_native"`
	MinUSDNewPairs        string         `yaml:"min_usd_new_pairs"`
	MinLiquidityProviders uint64         `yaml:"min_liquidity_providers"`
	StableLookup          *bool          `yaml:"stable_lookup"`
}

type StaticTokenConfig struct {
	Address  string `yaml:"address" validate:"eth_addr"`
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals int32  `yaml:"decimals" validate:"gte=0,lte=77"`
}

type TokensConfig struct {
	Static []StaticTokenConfig `yaml:"static" validate:"dive"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type APIConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

type PyroscopeConfig struct {
	Enabled    bool              `yaml:"enabled"`
	AppName    string            `yaml:"app_name"`
	ServerAddr string            `yaml:"server_addr"`
	AuthToken  string            `yaml:"auth_token"`
	Tags       map[string]string `yaml:"tags"`
	// 0 leaves mutex and block profiling off
	MutexProfileFraction int `yaml:"mutex_profile_fraction" validate:"gte=0"`
	BlockProfileRate     int `yaml:"block_profile_rate" validate:"gte=0"`
}

type MetricsConfig struct {
	Pyroscope PyroscopeConfig `yaml:"pyroscope"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("failed unmarshal config, error=%w", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Ingest.QueueGroup != "" {
		return nil, fmt.Errorf("invalid config: ingest.queue_group=%q splits ordered events across consumers", cfg.Ingest.QueueGroup)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.InstanceID == "" {
		c.App.InstanceID = uuid.NewString()
	}
	if c.App.ShutdownTimeout <= 0 {
		c.App.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Chain.CallTimeout <= 0 {
		c.Chain.CallTimeout = 10 * time.Second
	}
	if c.Stores.Entity.Backend == "" {
		c.Stores.Entity.Backend = "memory"
	}
	if c.Dedupe.Backend == "" {
		c.Dedupe.Backend = "memory"
	}
	if c.Dedupe.TTL <= 0 {
		c.Dedupe.TTL = 24 * time.Hour
	}
	if c.API.HTTP.Addr == "" {
		c.API.HTTP.Addr = ":8080"
	}
}
