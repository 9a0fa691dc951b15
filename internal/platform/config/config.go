// Package config assembles process configuration from defaults, an optional
// YAML file, environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	pstrings "assetd/pkg/platform/strings"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config is the full process configuration.
type Config struct {
	Server   Server      `yaml:"server"`
	Registry Registry    `yaml:"registry"`
	Storage  Storage     `yaml:"storage"`
	Redis    RedisConfig `yaml:"redis"`
	Kafka    Kafka       `yaml:"kafka"`
	Log      Log         `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTAudience     string        `yaml:"jwt_audience"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Registry configures the asset registry and its host.
type Registry struct {
	MaxOwned      uint32        `yaml:"max_owned"`
	BlockInterval time.Duration `yaml:"block_interval"`
	TxTimeout     time.Duration `yaml:"tx_timeout"`
}

// Storage selects and configures the registry backend.
type Storage struct {
	Driver      string `yaml:"driver"`
	BoltPath    string `yaml:"bolt_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// RedisConfig configures the shared go-redis client.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Kafka configures the event publisher. No brokers disables it.
type Kafka struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr: ":8080",
			// Use a default for development - should be overridden in production
			JWTSigningKey:   "dev-secret-key-change-in-production",
			JWTIssuer:       "assetd",
			JWTAudience:     "assetd",
			ShutdownTimeout: 10 * time.Second,
		},
		Registry: Registry{
			MaxOwned:      3,
			BlockInterval: 6 * time.Second,
			TxTimeout:     5 * time.Second,
		},
		Storage: Storage{
			Driver:   DriverMemory,
			BoltPath: "assetd.db",
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Topic:             "assetd.registry.events",
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load parses args, reads the --config file when given, then applies the
// environment and finally any flags set explicitly.
func Load(args []string) (*Config, error) {
	return load(args, os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	fs, flags := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if flags.configPath != "" {
		if err := cfg.loadFile(flags.configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	flags.apply(fs, cfg)

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("ASSETD_ADDR", &c.Server.Addr)
	str("JWT_SIGNING_KEY", &c.Server.JWTSigningKey)
	str("JWT_ISSUER", &c.Server.JWTIssuer)
	str("JWT_AUDIENCE", &c.Server.JWTAudience)
	str("ASSETD_STORAGE", &c.Storage.Driver)
	str("ASSETD_BOLT_PATH", &c.Storage.BoltPath)
	str("DATABASE_URL", &c.Storage.PostgresDSN)
	str("REDIS_URL", &c.Redis.URL)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = pstrings.SplitList(v)
	}
	if v, ok := lookup("ASSETD_MAX_OWNED"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("ASSETD_MAX_OWNED: %w", err)
		}
		c.Registry.MaxOwned = uint32(n)
	}
	if v, ok := lookup("ASSETD_BLOCK_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ASSETD_BLOCK_INTERVAL: %w", err)
		}
		c.Registry.BlockInterval = d
	}
	return nil
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c.Registry.MaxOwned == 0 {
		return errors.New("registry.max_owned must be at least 1")
	}
	if c.Registry.BlockInterval <= 0 {
		return errors.New("registry.block_interval must be positive")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverBolt:
		if c.Storage.BoltPath == "" {
			return errors.New("storage.bolt_path is required for the bolt driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	case DriverRedis:
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when brokers are set")
	}
	return nil
}

type flagValues struct {
	configPath    string
	addr          string
	storage       string
	boltPath      string
	postgresDSN   string
	redisURL      string
	kafkaBrokers  []string
	maxOwned      uint32
	blockInterval time.Duration
	logLevel      string
	logFormat     string
}

func newFlagSet() (*pflag.FlagSet, *flagValues) {
	v := &flagValues{}
	fs := pflag.NewFlagSet("assetd", pflag.ContinueOnError)
	fs.StringVar(&v.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&v.addr, "addr", "", "HTTP listen address")
	fs.StringVar(&v.storage, "storage", "", "storage driver: memory, bolt, postgres or redis")
	fs.StringVar(&v.boltPath, "bolt-path", "", "bolt database file")
	fs.StringVar(&v.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	fs.StringVar(&v.redisURL, "redis-url", "", "Redis URL")
	fs.StringSliceVar(&v.kafkaBrokers, "kafka-brokers", nil, "Kafka seed brokers")
	fs.Uint32Var(&v.maxOwned, "max-owned", 0, "maximum assets one account may own")
	fs.DurationVar(&v.blockInterval, "block-interval", 0, "interval between sealed blocks")
	fs.StringVar(&v.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&v.logFormat, "log-format", "", "json or text")
	return fs, v
}

func (v *flagValues) apply(fs *pflag.FlagSet, c *Config) {
	if fs.Changed("addr") {
		c.Server.Addr = v.addr
	}
	if fs.Changed("storage") {
		c.Storage.Driver = v.storage
	}
	if fs.Changed("bolt-path") {
		c.Storage.BoltPath = v.boltPath
	}
	if fs.Changed("postgres-dsn") {
		c.Storage.PostgresDSN = v.postgresDSN
	}
	if fs.Changed("redis-url") {
		c.Redis.URL = v.redisURL
	}
	if fs.Changed("kafka-brokers") {
		c.Kafka.Brokers = pstrings.DedupeAndTrim(v.kafkaBrokers)
	}
	if fs.Changed("max-owned") {
		c.Registry.MaxOwned = v.maxOwned
	}
	if fs.Changed("block-interval") {
		c.Registry.BlockInterval = v.blockInterval
	}
	if fs.Changed("log-level") {
		c.Log.Level = v.logLevel
	}
	if fs.Changed("log-format") {
		c.Log.Format = v.logFormat
	}
}
