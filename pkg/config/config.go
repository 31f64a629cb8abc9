// Package config resolves the process-wide cache configuration once at
// startup: an optional YAML file, overridden by CRAWLCACHE_* environment
// variables. The resulting Config is immutable and shared read-only.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendRedis   = "redis"
	BackendLevelDB = "leveldb"
)

// Duration is a time.Duration that parses Go duration strings ("30m",
// "6h") from YAML and environment values.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler (used by env).
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// Defaults.
const (
	// DefaultTag is the default key namespace tag.
	DefaultTag = "cm_spiders"

	// DefaultTTL is the default entry lifetime: 6 hours.
	DefaultTTL = 6 * time.Hour

	// DefaultStoreTimeout bounds each store round-trip.
	DefaultStoreTimeout = 5 * time.Second
)

// StoreConfig selects and configures the store backend.
type StoreConfig struct {
	// Backend is "redis" or "leveldb".
	Backend string `yaml:"backend" env:"CRAWLCACHE_STORE_BACKEND"`

	// Addr is the Redis host:port.
	Addr string `yaml:"addr" env:"CRAWLCACHE_STORE_ADDR"`

	// Password is the static Redis auth credential.
	Password string `yaml:"password" env:"CRAWLCACHE_STORE_PASSWORD"`

	// DB is the Redis database number.
	DB int `yaml:"db" env:"CRAWLCACHE_STORE_DB"`

	// Path is the LevelDB directory.
	Path string `yaml:"path" env:"CRAWLCACHE_STORE_PATH"`

	// Timeout bounds each store call.
	Timeout Duration `yaml:"timeout" env:"CRAWLCACHE_STORE_TIMEOUT"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" env:"CRAWLCACHE_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"CRAWLCACHE_LOG_PRETTY"`
}

// Config is the process-wide cache configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`

	// Tag namespaces every cache key.
	Tag string `yaml:"tag" env:"CRAWLCACHE_TAG"`

	// DefaultTTL applies when neither a request nor its spider sets one.
	DefaultTTL Duration `yaml:"default_ttl" env:"CRAWLCACHE_DEFAULT_TTL"`

	// Enabled is the global cache switch.
	Enabled bool `yaml:"enabled" env:"CRAWLCACHE_ENABLED"`

	Log LogConfig `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendRedis,
			Addr:    "localhost:6379",
			Timeout: Duration(DefaultStoreTimeout),
		},
		Tag:        DefaultTag,
		DefaultTTL: Duration(DefaultTTL),
		Enabled:    true,
		Log:        LogConfig{Level: "info"},
	}
}

// Load resolves the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Tag == "" {
		return fmt.Errorf("tag must not be empty")
	}
	if c.DefaultTTL <= 0 {
		return fmt.Errorf("default_ttl must be positive, got %s", c.DefaultTTL)
	}
	switch c.Store.Backend {
	case BackendRedis:
		if c.Store.Addr == "" {
			return fmt.Errorf("store.addr is required for the redis backend")
		}
	case BackendLevelDB:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the leveldb backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive, got %s", c.Store.Timeout)
	}
	return nil
}
