package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kode4food/flowrun/pkg/log"
)

type (
	// Config holds configuration settings for the flow-run service
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string

		// Storage
		Store StoreConfig

		// Runs
		RunTimeout      time.Duration
		ShutdownTimeout time.Duration
	}

	// StoreConfig describes the Redis instance holding flows and sessions
	StoreConfig struct {
		Addr          string
		Password      string
		DB            int
		Prefix        string
		SessionTTL    time.Duration
		FlowCacheSize int
	}
)

const (
	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisPrefix   = "flowrun"
	DefaultRedisDB       = 0
	MaxRedisDB           = 15

	DefaultSessionTTL      = 24 * time.Hour
	DefaultFlowCacheSize   = 1024
	DefaultRunTimeout      = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	MaxFlowCacheSize = 1_000_000
	MaxSessionTTL    = 365 * 24 * time.Hour
	MaxRunTimeout    = 24 * time.Hour
)

var (
	ErrInvalidAPIPort       = errors.New("invalid API port")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidRedisAddr     = errors.New("redis address is required")
	ErrInvalidSessionTTL    = errors.New("session TTL must be positive")
	ErrInvalidFlowCacheSize = errors.New("flow cache size must be positive")
	ErrInvalidRunTimeout    = errors.New("run timeout must be positive")
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// API server, storage, and runs
func NewDefaultConfig() *Config {
	return &Config{
		APIPort:  DefaultAPIPort,
		APIHost:  DefaultAPIHost,
		LogLevel: "info",
		Store: StoreConfig{
			Addr:          DefaultRedisEndpoint,
			DB:            DefaultRedisDB,
			Prefix:        DefaultRedisPrefix,
			SessionTTL:    DefaultSessionTTL,
			FlowCacheSize: DefaultFlowCacheSize,
		},
		RunTimeout:      DefaultRunTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Store.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Store.Password = password
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.Store.Prefix = prefix
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"REDIS_DB", &c.Store.DB, -1, MaxRedisDB,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"FLOW_CACHE_SIZE", &c.Store.FlowCacheSize, 0, MaxFlowCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"SESSION_TTL", &c.Store.SessionTTL, MaxSessionTTL,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"RUN_TIMEOUT", &c.RunTimeout, MaxRunTimeout,
	); err != nil {
		return err
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if !log.IsLevel(c.LogLevel) {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}

	if c.Store.Addr == "" {
		return ErrInvalidRedisAddr
	}

	if c.Store.SessionTTL <= 0 {
		return ErrInvalidSessionTTL
	}

	if c.Store.FlowCacheSize <= 0 {
		return ErrInvalidFlowCacheSize
	}

	if c.RunTimeout <= 0 {
		return ErrInvalidRunTimeout
	}

	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

// loadEnvDuration reads a Go duration string such as "90s" or "12h" from
// the environment. The value must be positive and no greater than max
func loadEnvDuration(key string, dst *time.Duration, max time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if d <= 0 || d > max {
		return fmt.Errorf("invalid %s: %s out of range (0, %s]", key, d, max)
	}
	*dst = d
	return nil
}
