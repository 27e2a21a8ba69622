package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the engine's environment-driven configuration.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=true"`

	// SigningKey is the base64-encoded HMAC key credentials are signed with.
	SigningKey string `env:"SIGNING_KEY"`

	// Storage selects the room/account backing store: memory or postgres.
	Storage     string `env:"STORAGE, default=memory"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	// CredentialStore selects where the session credential persists:
	// memory, file or redis.
	CredentialStore string `env:"CREDENTIAL_STORE, default=file"`
	CredentialDir   string `env:"CREDENTIAL_DIR, default=.sketchroom"`

	RedisAddr string `env:"REDIS_ADDR, default=localhost:6379"`
	RedisDB   int    `env:"REDIS_DB, default=0"`

	StatsAddr string `env:"STATS_ADDR, default=localhost:8600"`

	WatchdogInterval time.Duration `env:"WATCHDOG_INTERVAL, default=1m"`

	signingKey []byte
}

// Load reads configuration from the environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("signing key cannot be empty")
	}

	key, err := base64.StdEncoding.DecodeString(cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}
	cfg.signingKey = key

	switch cfg.Storage {
	case "memory":
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("postgres storage requires DATABASE_DSN")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	switch cfg.CredentialStore {
	case "memory", "file":
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis credential store requires REDIS_ADDR")
		}
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}

	if cfg.WatchdogInterval <= 0 {
		return nil, fmt.Errorf("watchdog interval must be positive")
	}

	return &cfg, nil
}

// SigningKeyBytes returns the decoded HMAC key.
func (c *Config) SigningKeyBytes() []byte {
	return c.signingKey
}
