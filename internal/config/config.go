// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

// Dedupe backends.
const (
	DedupeMemory = "memory"
	DedupeRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ActivityQueueSize bounds the in-memory activity queue.
	ActivityQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of activity workers.
	WorkerCount int `koanf:"worker_count"`

	DedupeSize       int    `koanf:"dedupe_size"`
	DedupeBackend    string `koanf:"dedupe_backend"`
	DedupeTTLSeconds int    `koanf:"dedupe_ttl_seconds"`
	RedisURL         string `koanf:"redis_url"`

	StoreDriver    string `koanf:"store_driver"`
	BadgerPath     string `koanf:"badger_path"`
	BadgerInMemory bool   `koanf:"badger_in_memory"`
	PostgresURL    string `koanf:"postgres_url"`

	// Timezone names the calendar used to decide which day an activity falls
	// on, e.g. "Europe/Berlin". Empty means the process local zone.
	Timezone string `koanf:"timezone"`

	// MaxLeaderboardLimit caps GET /v1/leaderboards/{board}?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RateLimitRPS and RateLimitBurst bound activity ingestion per client.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// TrustedProxies is a comma separated list of reverse proxy addresses
	// whose X-Forwarded-For header names the client. Empty trusts nobody.
	TrustedProxies string `koanf:"trusted_proxies"`

	FCMEnabled         bool   `koanf:"fcm_enabled"`
	FCMCredentialsFile string `koanf:"fcm_credentials_file"`
	FCMTopicPrefix     string `koanf:"fcm_topic_prefix"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ActivityQueueSize:   10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          500_000,
		DedupeBackend:       DedupeMemory,
		DedupeTTLSeconds:    86_400,
		StoreDriver:         StoreBadger,
		BadgerPath:          "data/shelf",
		MaxLeaderboardLimit: 100,
		RateLimitRPS:        5,
		RateLimitBurst:      30,
		FCMTopicPrefix:      "shelf-user-",
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// TrustedProxyList splits TrustedProxies.
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, ip := range strings.Split(c.TrustedProxies, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			out = append(out, ip)
		}
	}
	return out
}

// DedupeTTL returns the Redis dedupe TTL.
func (c *Config) DedupeTTL() time.Duration {
	return time.Duration(c.DedupeTTLSeconds) * time.Second
}

// Validate checks invariants that loading cannot express.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ActivityQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.RateLimitRPS <= 0 || c.RateLimitBurst < 1:
		return fmt.Errorf("%w: rate limit must be positive", ErrInvalidConfig)
	}
	for _, ip := range c.TrustedProxyList() {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("%w: trusted_proxies entry %q is not an IP address", ErrInvalidConfig, ip)
		}
	}

	switch c.StoreDriver {
	case StoreBadger:
		if !c.BadgerInMemory && c.BadgerPath == "" {
			return fmt.Errorf("%w: badger_path is required unless badger_in_memory is set", ErrInvalidConfig)
		}
	case StorePostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("%w: postgres_url is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch c.DedupeBackend {
	case DedupeMemory:
	case DedupeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url is required for the redis dedupe backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown dedupe_backend %q", ErrInvalidConfig, c.DedupeBackend)
	}

	if c.FCMEnabled && c.FCMCredentialsFile == "" {
		return fmt.Errorf("%w: fcm_credentials_file is required when fcm is enabled", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
