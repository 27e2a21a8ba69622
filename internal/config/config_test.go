package config

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func TestLoad(t *testing.T) {
	ctx := context.Background()

	tt := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{"SIGNING_KEY": testSigningKey},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.LogLevel)
				assert.True(t, cfg.LogPretty)
				assert.Equal(t, "memory", cfg.Storage)
				assert.Equal(t, "file", cfg.CredentialStore)
				assert.Equal(t, ".sketchroom", cfg.CredentialDir)
				assert.Equal(t, "localhost:8600", cfg.StatsAddr)
				assert.Equal(t, time.Minute, cfg.WatchdogInterval)
				assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), cfg.SigningKeyBytes())
			},
		},
		{
			name:    "missing signing key",
			env:     map[string]string{},
			wantErr: "signing key cannot be empty",
		},
		{
			name: "malformed signing key",
			env: map[string]string{
				"SIGNING_KEY": "not base64 !!!",
			},
			wantErr: "decode signing key",
		},
		{
			name: "postgres storage",
			env: map[string]string{
				"SIGNING_KEY":  testSigningKey,
				"STORAGE":      "postgres",
				"DATABASE_DSN": "postgres://localhost/sketchroom?sslmode=disable",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.Storage)
			},
		},
		{
			name: "postgres storage without dsn",
			env: map[string]string{
				"SIGNING_KEY": testSigningKey,
				"STORAGE":     "postgres",
			},
			wantErr: "requires DATABASE_DSN",
		},
		{
			name: "unknown storage backend",
			env: map[string]string{
				"SIGNING_KEY": testSigningKey,
				"STORAGE":     "cassandra",
			},
			wantErr: "unknown storage backend",
		},
		{
			name: "redis credential store",
			env: map[string]string{
				"SIGNING_KEY":      testSigningKey,
				"CREDENTIAL_STORE": "redis",
				"REDIS_ADDR":       "localhost:6380",
				"REDIS_DB":         "2",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "redis", cfg.CredentialStore)
				assert.Equal(t, "localhost:6380", cfg.RedisAddr)
				assert.Equal(t, 2, cfg.RedisDB)
			},
		},
		{
			name: "unknown credential store",
			env: map[string]string{
				"SIGNING_KEY":      testSigningKey,
				"CREDENTIAL_STORE": "vault",
			},
			wantErr: "unknown credential store",
		},
		{
			name: "custom watchdog interval",
			env: map[string]string{
				"SIGNING_KEY":       testSigningKey,
				"WATCHDOG_INTERVAL": "15s",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 15*time.Second, cfg.WatchdogInterval)
			},
		},
		{
			name: "non-positive watchdog interval",
			env: map[string]string{
				"SIGNING_KEY":       testSigningKey,
				"WATCHDOG_INTERVAL": "0s",
			},
			wantErr: "watchdog interval must be positive",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := load(ctx, envconfig.MapLookuper(tc.env))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}
