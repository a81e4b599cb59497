package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s",
	}))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, DriverMongo, cfg.StoreDriver)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, "epic_events", cfg.Mongo.Database)
	require.Equal(t, 5*time.Second, cfg.Redis.LockTTL)
	require.Equal(t, 10, cfg.Redis.LoginRatePerMinute)
	require.Empty(t, cfg.Redis.Addr)
	require.True(t, cfg.IsDevelopment())
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "s",
		"ENV":                "production",
		"STORE_DRIVER":       "postgres",
		"POSTGRES_DSN":       "postgres://crm@localhost/crm",
		"POSTGRES_MAX_CONNS": "4",
		"JWT_TTL":            "90m",
		"REDIS_ADDR":         "redis:6379",
		"AUDIT_WORKERS":      "2",
	}))
	require.NoError(t, err)
	require.False(t, cfg.IsDevelopment())
	require.Equal(t, DriverPostgres, cfg.StoreDriver)
	require.EqualValues(t, 4, cfg.Postgres.MaxConns)
	require.Equal(t, 90*time.Minute, cfg.JWTTTL)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
	require.Equal(t, 2, cfg.Audit.Workers)
}

func TestLoadWith_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {},
		"unknown driver":       {"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"},
		"postgres without dsn": {"JWT_SECRET": "s", "STORE_DRIVER": "postgres"},
		"admin without pass":   {"JWT_SECRET": "s", "BOOTSTRAP_ADMIN_USERNAME": "root"},
	}
	for name, env := range cases {
		_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
		require.Error(t, err, name)
	}
}
