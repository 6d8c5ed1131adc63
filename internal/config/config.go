// Package config loads carbonledger settings from a YAML file, a .env file
// and CARBONLEDGER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultStoreDriver             = "sqlite"
	DefaultSupplierTimeoutSeconds  = 10
	DefaultSupplierMaxIdleConns    = 100
	DefaultSupplierMaxConnsPerHost = 10
	DefaultAggregationWorkers      = 10
	DefaultCacheBackend            = "memory"
	DefaultCacheTTLSeconds         = 600
	DefaultServerAddr              = ":8080"
	DefaultOutputFormat            = "table"
	DefaultOutputPrecision         = 2

	configDirName  = ".carbonledger"
	configFileName = "config.yaml"
)

// Environment variables overriding the config file.
const (
	EnvConfigFile        = "CARBONLEDGER_CONFIG"
	EnvHome              = "CARBONLEDGER_HOME"
	EnvStoreDriver       = "CARBONLEDGER_STORE_DRIVER"
	EnvStoreDSN          = "CARBONLEDGER_STORE_DSN"
	EnvSupplierTimeout   = "CARBONLEDGER_SUPPLIER_TIMEOUT_SECONDS"
	EnvWorkers           = "CARBONLEDGER_WORKERS"
	EnvCacheEnabled      = "CARBONLEDGER_CACHE_ENABLED"
	EnvCacheBackend      = "CARBONLEDGER_CACHE_BACKEND"
	EnvCacheTTL          = "CARBONLEDGER_CACHE_TTL_SECONDS"
	EnvCacheDir          = "CARBONLEDGER_CACHE_DIR"
	EnvRedisAddr         = "CARBONLEDGER_REDIS_ADDR"
	EnvRedisPassword     = "CARBONLEDGER_REDIS_PASSWORD"
	EnvRedisDB           = "CARBONLEDGER_REDIS_DB"
	EnvServerAddr        = "CARBONLEDGER_SERVER_ADDR"
	EnvLogLevel          = "CARBONLEDGER_LOG_LEVEL"
	EnvLogFormat         = "CARBONLEDGER_LOG_FORMAT"
	EnvLogFile           = "CARBONLEDGER_LOG_FILE"
	EnvOutputFormat      = "CARBONLEDGER_OUTPUT_FORMAT"
	envSupplierIdleConns = "CARBONLEDGER_SUPPLIER_MAX_IDLE_CONNS"
	envSupplierHostConns = "CARBONLEDGER_SUPPLIER_MAX_CONNS_PER_HOST"
)

// Validation errors.
var (
	ErrInvalidDriver       = errors.New("store driver must be sqlite or postgres")
	ErrInvalidTimeout      = errors.New("supplier timeout must be positive")
	ErrInvalidWorkers      = errors.New("aggregation workers must be between 1 and 256")
	ErrInvalidCacheBackend = errors.New("cache backend must be memory, file or redis")
	ErrInvalidCacheTTL     = errors.New("cache TTL must be positive")
	ErrMissingRedisAddr    = errors.New("redis cache backend requires cache.redis_addr")
	ErrInvalidRedisDB      = errors.New("redis database index must not be negative")
	ErrInvalidOutputFormat = errors.New("output format must be table, json or ndjson")
)

// maxWorkers bounds the aggregation pool.
const maxWorkers = 256

// Config is the root configuration document.
type Config struct {
	Store       StoreConfig       `yaml:"store" json:"store"`
	Supplier    SupplierConfig    `yaml:"supplier" json:"supplier"`
	Aggregation AggregationConfig `yaml:"aggregation" json:"aggregation"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Output      OutputConfig      `yaml:"output" json:"output"`

	// path is the file the config was loaded from, if any.
	path string
}

// StoreConfig selects the relational store.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the driver-specific data source name. Defaults to a sqlite file in the config dir.
	DSN string `yaml:"dsn" json:"dsn"`
}

// SupplierConfig tunes the shared supplier HTTP client.
type SupplierConfig struct {
	TimeoutSeconds  int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// MaxIdleConns is the keep-alive pool size. Concurrency is bounded by
	// aggregation.workers.
	MaxIdleConns    int `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxConnsPerHost int `yaml:"max_conns_per_host" json:"max_conns_per_host"`
}

// AggregationConfig sizes the worker pool.
type AggregationConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// CacheConfig defines the aggregation response cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Backend    string `yaml:"backend" json:"backend"`
	TTLSeconds int    `yaml:"ttl_seconds" json:"ttl_seconds"`

	// Directory is used by the file backend. Defaults to <config dir>/cache.
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`

	// RedisAddr is used by the redis backend.
	RedisAddr string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`

	// RedisPassword is usually supplied through CARBONLEDGER_REDIS_PASSWORD
	// rather than written to the config file.
	RedisPassword string `yaml:"redis_password,omitempty" json:"-"`
	RedisDB       int    `yaml:"redis_db,omitempty" json:"redis_db,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Precision     int    `yaml:"precision" json:"precision"`
}

// New returns a configuration populated with defaults.
func New() *Config {
	dir := Dir()
	return &Config{
		Store: StoreConfig{
			Driver: DefaultStoreDriver,
			DSN:    filepath.Join(dir, "carbonledger.db"),
		},
		Supplier: SupplierConfig{
			TimeoutSeconds:  DefaultSupplierTimeoutSeconds,
			MaxIdleConns:    DefaultSupplierMaxIdleConns,
			MaxConnsPerHost: DefaultSupplierMaxConnsPerHost,
		},
		Aggregation: AggregationConfig{Workers: DefaultAggregationWorkers},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    DefaultCacheBackend,
			TTLSeconds: DefaultCacheTTLSeconds,
			Directory:  filepath.Join(dir, "cache"),
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			DefaultFormat: DefaultOutputFormat,
			Precision:     DefaultOutputPrecision,
		},
	}
}

// Dir returns the carbonledger home directory (CARBONLEDGER_HOME or ~/.carbonledger).
func Dir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(userHome, configDirName)
}

// DefaultPath returns the config file path used when none is given.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	return filepath.Join(Dir(), configFileName)
}

// Load reads path (or DefaultPath when empty) over the defaults, then applies
// the .env file in the working directory and CARBONLEDGER_* overrides.
// A missing default config file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	// .env is optional and never overrides variables already set.
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := New()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, unmarshalErr)
		}
		cfg.path = path
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if envErr := cfg.applyEnv(); envErr != nil {
		return nil, envErr
	}
	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("writing config: %w", writeErr)
	}
	c.path = path
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidDriver, c.Store.Driver)
	}
	if c.Supplier.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTimeout, c.Supplier.TimeoutSeconds)
	}
	if c.Aggregation.Workers < 1 || c.Aggregation.Workers > maxWorkers {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Aggregation.Workers)
	}
	switch c.Cache.Backend {
	case "memory", "file":
	case "redis":
		if c.Cache.Enabled && c.Cache.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
		if c.Cache.RedisDB < 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidRedisDB, c.Cache.RedisDB)
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidCacheBackend, c.Cache.Backend)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCacheTTL, c.Cache.TTLSeconds)
	}
	if !IsValidOutputFormat(c.Output.DefaultFormat) {
		return fmt.Errorf("%w: got %q", ErrInvalidOutputFormat, c.Output.DefaultFormat)
	}
	return nil
}

// IsValidOutputFormat reports whether format is table, json or ndjson.
func IsValidOutputFormat(format string) bool {
	switch format {
	case "table", "json", "ndjson":
		return true
	default:
		return false
	}
}

// applyEnv overrides fields from CARBONLEDGER_* variables.
func (c *Config) applyEnv() error {
	setString(&c.Store.Driver, EnvStoreDriver)
	setString(&c.Store.DSN, EnvStoreDSN)
	setString(&c.Cache.Backend, EnvCacheBackend)
	setString(&c.Cache.Directory, EnvCacheDir)
	setString(&c.Cache.RedisAddr, EnvRedisAddr)
	setString(&c.Cache.RedisPassword, EnvRedisPassword)
	setString(&c.Server.Addr, EnvServerAddr)
	setString(&c.Logging.Level, EnvLogLevel)
	setString(&c.Logging.Format, EnvLogFormat)
	setString(&c.Logging.File, EnvLogFile)
	setString(&c.Output.DefaultFormat, EnvOutputFormat)

	ints := []struct {
		dst *int
		env string
	}{
		{&c.Supplier.TimeoutSeconds, EnvSupplierTimeout},
		{&c.Supplier.MaxIdleConns, envSupplierIdleConns},
		{&c.Supplier.MaxConnsPerHost, envSupplierHostConns},
		{&c.Aggregation.Workers, EnvWorkers},
		{&c.Cache.TTLSeconds, EnvCacheTTL},
		{&c.Cache.RedisDB, EnvRedisDB},
	}
	for _, i := range ints {
		if err := setInt(i.dst, i.env); err != nil {
			return err
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvCacheEnabled)); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCacheEnabled, v, err)
		}
		c.Cache.Enabled = enabled
	}
	return nil
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) error {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", env, v, err)
	}
	*dst = n
	return nil
}
