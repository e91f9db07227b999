package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	RateLimitBackendRedis  = "redis"
	RateLimitBackendMemory = "memory"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// TrustedProxies lists proxy CIDRs whose X-Forwarded-For is honoured when
	// deriving the client address. Empty means the socket peer is used.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Scan      ScanConfig

	ActivityMaxLimit int `env:"ACTIVITY_MAX_LIMIT, default=100"`
}

type MongoConfig struct {
	URI         string        `env:"MONGO_URI,           default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database    string        `env:"MONGO_DB,            default=credential_vault"`
	Timeout     time.Duration `env:"MONGO_TIMEOUT,       default=10s"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=20"`
}

// RateLimitConfig controls the login rate gate.
type RateLimitConfig struct {
	MaxAttempts   int           `env:"RATE_LIMIT_MAX_ATTEMPTS,   default=5"`
	BlockWindow   time.Duration `env:"RATE_LIMIT_BLOCK_WINDOW,   default=15m"`
	Backend       string        `env:"RATE_LIMIT_BACKEND,        default=redis"`
	MaxIdentities int           `env:"RATE_LIMIT_MAX_IDENTITIES, default=100000"`
}

// ScanConfig controls the asynchronous vault scan workers.
type ScanConfig struct {
	Workers  int           `env:"SCAN_WORKERS,   default=4"`
	DedupTTL time.Duration `env:"SCAN_DEDUP_TTL, default=30s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RateLimit.MaxAttempts <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_ATTEMPTS must be positive"))
	}
	if c.RateLimit.BlockWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BLOCK_WINDOW must be positive"))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
		}
	}
	switch c.RateLimit.Backend {
	case RateLimitBackendRedis, RateLimitBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q", RateLimitBackendRedis, RateLimitBackendMemory))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsDevelopment reports whether human-friendly output should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
